package metrics_test

import (
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/portfolio-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.VoteTransition("insert")
	m.VoteTransition("insert")
	m.VoteTransition("delete")
	m.CommentMutation("create")
	m.TreeBuilt(5*time.Millisecond, 12)

	expected := `
# HELP portfolio_vote_transitions_total Persisted vote transitions by action.
# TYPE portfolio_vote_transitions_total counter
portfolio_vote_transitions_total{action="delete"} 1
portfolio_vote_transitions_total{action="insert"} 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "portfolio_vote_transitions_total"); err != nil {
		t.Errorf("Unexpected vote metrics: %v", err)
	}

	n, err := testutil.GatherAndCount(m.Registry(), "portfolio_comment_tree_size")
	if err != nil || n != 1 {
		t.Errorf("Expected tree size histogram to be collected, got %d (%v)", n, err)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.VoteTransition("insert")
	m.CommentMutation("create")
	m.TreeBuilt(time.Second, 1)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.CommentMutation("delete")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `portfolio_comment_mutations_total{kind="delete"} 1`) {
		t.Errorf("Expected comment mutation counter in output")
	}
}

func TestMetrics_WatchDB(t *testing.T) {
	// sql.Open does not dial, the pool stays empty
	db, err := sql.Open("postgres", "host=localhost dbname=portfolio sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to open pool: %v", err)
	}
	defer db.Close()

	m := metrics.New()
	m.WatchDB(db, "portfolio")

	n, err := testutil.GatherAndCount(m.Registry(), "go_sql_open_connections")
	if err != nil || n != 1 {
		t.Errorf("Expected pool gauge for one database, got %d (%v)", n, err)
	}
}
