package client

import (
	"context"
	"errors"
	"sync"

	"github.com/portfolio-api/internal/commenttree"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/vote"
	"github.com/rs/zerolog"
)

// ErrUnknownComment is returned when voting on a comment that is not in the
// held tree, or is a deleted placeholder
var ErrUnknownComment = errors.New("comment not in thread")

// Thread holds one page of a post's comment tree. Votes are applied to the
// held tree before the server answers; a failed call discards the tree and
// loads it again.
type Thread struct {
	client   *Client
	blogSlug string
	opts     ListOptions
	log      zerolog.Logger

	mu    sync.Mutex
	page  *Page
	stale bool
}

// NewThread creates a Thread. Call Load before reading or voting.
func NewThread(client *Client, blogSlug string, opts ListOptions, log zerolog.Logger) *Thread {
	return &Thread{
		client:   client,
		blogSlug: blogSlug,
		opts:     opts,
		log:      log.With().Str("component", "thread").Str("blog_slug", blogSlug).Logger(),
	}
}

// Load fetches the authoritative tree and replaces the held one
func (t *Thread) Load(ctx context.Context) error {
	page, err := t.client.List(ctx, t.blogSlug, t.opts)
	if err != nil {
		t.mu.Lock()
		t.stale = true
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	t.page = page
	t.stale = false
	t.mu.Unlock()
	return nil
}

// Nodes returns the held top-level nodes
func (t *Thread) Nodes() []*models.CommentNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.page == nil {
		return nil
	}
	return t.page.Nodes
}

// Total returns the number of top-level comments reported by the server
func (t *Thread) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.page == nil {
		return 0
	}
	return t.page.Total
}

// Stale reports whether the last load failed. After a rejected vote whose
// reload also failed the held tree is discarded, so Nodes returns nil until
// the next successful Load.
func (t *Thread) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stale
}

// Find returns the held node with the given id
func (t *Thread) Find(id string) *models.CommentNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.page == nil {
		return nil
	}
	return commenttree.Find(t.page.Nodes, id)
}

// Sort re-sorts the held tree at every level
func (t *Thread) Sort(order string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.page == nil {
		return
	}
	commenttree.Sort(t.page.Nodes, order)
	t.opts.Sort = order
}

// Vote applies voteType to the held node, then sends it to the server
func (t *Thread) Vote(ctx context.Context, commentID string, voteType int) (vote.Outcome, error) {
	out, err := t.optimistic(commentID, func(current vote.State) (vote.Outcome, error) {
		return vote.Transition(current, voteType)
	})
	if err != nil {
		return vote.Outcome{}, err
	}

	return out, t.reconcile(ctx, t.client.Vote(ctx, commentID, voteType))
}

// RemoveVote clears the caller's vote on the held node, then on the server
func (t *Thread) RemoveVote(ctx context.Context, commentID string) (vote.Outcome, error) {
	out, err := t.optimistic(commentID, func(current vote.State) (vote.Outcome, error) {
		return vote.Retract(current), nil
	})
	if err != nil {
		return vote.Outcome{}, err
	}

	return out, t.reconcile(ctx, t.client.RemoveVote(ctx, commentID))
}

func (t *Thread) optimistic(commentID string, decide func(vote.State) (vote.Outcome, error)) (vote.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.page == nil {
		return vote.Outcome{}, ErrUnknownComment
	}
	node := commenttree.Find(t.page.Nodes, commentID)
	if node == nil || node.IsDeleted {
		return vote.Outcome{}, ErrUnknownComment
	}

	current, err := vote.StateOf(node.UserVote)
	if err != nil {
		return vote.Outcome{}, err
	}
	out, err := decide(current)
	if err != nil {
		return vote.Outcome{}, err
	}

	node.VoteCount += out.Delta
	node.UserVote = int(out.To)
	return out, nil
}

// reconcile reloads the tree after a rejected call. The optimistic delta is
// never inverted locally.
func (t *Thread) reconcile(ctx context.Context, callErr error) error {
	if callErr == nil {
		return nil
	}

	t.log.Warn().Err(callErr).Msg("Vote rejected, reloading thread")
	if err := t.Load(ctx); err != nil {
		t.log.Error().Err(err).Msg("Failed to reload thread")
		// the held tree carries the rejected vote, drop it
		t.mu.Lock()
		t.page = nil
		t.mu.Unlock()
		return errors.Join(callErr, err)
	}
	return callErr
}
