// Package metrics defines the Prometheus collectors of the comment API.
package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// Metrics holds the collectors recorded by services
type Metrics struct {
	registry *prometheus.Registry

	voteTransitions  *prometheus.CounterVec
	commentMutations *prometheus.CounterVec
	treeBuild        prometheus.Histogram
	treeSize         prometheus.Histogram
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		voteTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_transitions_total",
			Help:      "Persisted vote transitions by action.",
		}, []string{"action"}),
		commentMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_mutations_total",
			Help:      "Comment writes by kind (create, update, delete).",
		}, []string{"kind"}),
		treeBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comment_tree_build_seconds",
			Help:      "Time spent assembling a comment tree, queries included.",
			Buckets:   prometheus.DefBuckets,
		}),
		treeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comment_tree_size",
			Help:      "Number of visible comments in an assembled tree.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.voteTransitions,
		m.commentMutations,
		m.treeBuild,
		m.treeSize,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WatchDB exports the connection pool statistics of db
func (m *Metrics) WatchDB(db *sql.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// VoteTransition counts one persisted vote transition
func (m *Metrics) VoteTransition(action string) {
	if m == nil {
		return
	}
	m.voteTransitions.WithLabelValues(action).Inc()
}

// CommentMutation counts one comment write
func (m *Metrics) CommentMutation(kind string) {
	if m == nil {
		return
	}
	m.commentMutations.WithLabelValues(kind).Inc()
}

// TreeBuilt records the duration and size of one tree assembly
func (m *Metrics) TreeBuilt(d time.Duration, size int) {
	if m == nil {
		return
	}
	m.treeBuild.Observe(d.Seconds())
	m.treeSize.Observe(float64(size))
}
