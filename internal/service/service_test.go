package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio-api/internal/commenttree"
	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/mocks"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/service"
	"github.com/portfolio-api/internal/vote"
	"github.com/rs/zerolog"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service.Services
	comments *mocks.MockCommentRepository
	votes    *mocks.MockVoteRepository
	users    *mocks.MockUserRepository
}

func newFixture() *fixture {
	repos, comments, votes, users := mocks.NewRepositories()
	cfg := &config.Config{Comments: config.CommentsConfig{DefaultLimit: 10, MaxLimit: 100, MaxLength: 5000}}
	return &fixture{
		svc:      service.NewServices(repos, cfg, zerolog.Nop(), nil),
		comments: comments,
		votes:    votes,
		users:    users,
	}
}

func (f *fixture) add(userID string, parent *models.Comment, minute int) *models.Comment {
	c := &models.Comment{
		ID:        uuid.NewString(),
		BlogSlug:  "hello-world",
		UserID:    userID,
		Content:   fmt.Sprintf("comment at minute %d", minute),
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
	c.UpdatedAt = c.CreatedAt
	if parent != nil {
		c.ParentID = &parent.ID
	}
	f.comments.Add(c)
	return c
}

func list(t *testing.T, f *fixture, userID string, page, limit int) *models.CommentPage {
	t.Helper()
	result, err := f.svc.Comment.ListTree(context.Background(), models.ListCommentsParams{
		BlogSlug: "hello-world", UserID: userID, Page: page, Limit: limit, Sort: models.SortNewest,
	})
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}
	return result
}

var (
	alice = &models.AuthUser{UID: "alice", DisplayName: "Alice", Email: "alice@test.com"}
	bob   = &models.AuthUser{UID: "bob", DisplayName: "Bob", Email: "bob@test.com"}
)

func TestCommentService_ListTree_NestsAndAnnotates(t *testing.T) {
	f := newFixture()
	root := f.add("alice", nil, 1)
	reply := f.add("bob", root, 2)
	deep := f.add("alice", reply, 3)
	f.votes.Set(root.ID, "bob", 1)
	f.votes.Set(root.ID, "carol", 1)
	f.votes.Set(deep.ID, "alice", -1)

	result := list(t, f, "alice", 1, 10)

	if len(result.Nodes) != 1 || result.Total != 1 {
		t.Fatalf("Expected 1 top-level node, got %d (total %d)", len(result.Nodes), result.Total)
	}
	node := result.Nodes[0]
	if node.VoteCount != 2 || node.UserVote != 0 {
		t.Errorf("Root: expected count 2 and no own vote, got %d/%d", node.VoteCount, node.UserVote)
	}
	got := commenttree.Find(result.Nodes, deep.ID)
	if got == nil {
		t.Fatal("Deep reply missing from tree")
	}
	if got.VoteCount != -1 || got.UserVote != -1 {
		t.Errorf("Deep reply: expected count -1 and own vote -1, got %d/%d", got.VoteCount, got.UserVote)
	}
	if commenttree.Find(result.Nodes, reply.ID).VoteCount != 0 {
		t.Error("Comment without votes should count 0")
	}
}

func TestCommentService_ListTree_AnonymousSkipsOwnVotes(t *testing.T) {
	f := newFixture()
	root := f.add("alice", nil, 1)
	f.votes.Set(root.ID, "alice", 1)

	result := list(t, f, "", 1, 10)

	if result.Nodes[0].UserVote != 0 {
		t.Errorf("Anonymous request should see userVote 0, got %d", result.Nodes[0].UserVote)
	}
	if f.votes.UserVoteCalls != 0 {
		t.Errorf("Expected no own-vote query, got %d", f.votes.UserVoteCalls)
	}
}

func TestCommentService_ListTree_PaginatesTopLevelOnly(t *testing.T) {
	f := newFixture()
	var tops []*models.Comment
	for i := 0; i < 15; i++ {
		tops = append(tops, f.add("alice", nil, i))
	}
	// oldest top-level comment carries 50 replies and lands on page 2
	for i := 0; i < 50; i++ {
		f.add("bob", tops[0], 100+i)
	}
	// newest top-level comment carries one reply with a vote
	reply := f.add("bob", tops[14], 200)
	f.votes.Set(reply.ID, "alice", 1)

	page1 := list(t, f, "", 1, 10)
	page2 := list(t, f, "", 2, 10)

	if len(page1.Nodes) != 10 || page1.Total != 15 {
		t.Errorf("Expected 10 of 15 top-level nodes, got %d of %d", len(page1.Nodes), page1.Total)
	}
	if len(page2.Nodes) != 5 {
		t.Fatalf("Expected 5 top-level nodes on page 2, got %d", len(page2.Nodes))
	}
	last := page2.Nodes[4]
	if last.ID != tops[0].ID || len(last.Replies) != 50 {
		t.Errorf("Expected oldest comment with 50 replies last, got %s with %d", last.ID, len(last.Replies))
	}
	if page1.Nodes[0].Replies[0].VoteCount != 1 {
		t.Error("Replies of a paginated comment need their vote counts")
	}
}

func TestCommentService_ListTree_DeletedParentKeepsReplies(t *testing.T) {
	f := newFixture()
	root := f.add("alice", nil, 1)
	reply := f.add("bob", root, 2)
	root.IsDeleted = true

	result := list(t, f, "", 1, 10)

	if len(result.Nodes) != 1 {
		t.Fatalf("Expected the placeholder at top level, got %d nodes", len(result.Nodes))
	}
	placeholder := result.Nodes[0]
	if placeholder.Content != "" || !placeholder.IsDeleted {
		t.Errorf("Deleted comment content must not be exposed, got %q", placeholder.Content)
	}
	if len(placeholder.Replies) != 1 || placeholder.Replies[0].ID != reply.ID {
		t.Errorf("Reply should stay attached to its deleted parent")
	}
}

func TestCommentService_ListTree_Sorts(t *testing.T) {
	f := newFixture()
	a := f.add("alice", nil, 1)
	b := f.add("alice", nil, 2)
	f.votes.Set(a.ID, "bob", 1)

	result, err := f.svc.Comment.ListTree(context.Background(), models.ListCommentsParams{
		BlogSlug: "hello-world", Page: 1, Limit: 10, Sort: models.SortVotes,
	})
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}
	if result.Nodes[0].ID != a.ID || result.Nodes[1].ID != b.ID {
		t.Errorf("Expected most voted first")
	}
}

func TestCommentService_ListTree_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Comment.ListTree(ctx, models.ListCommentsParams{Page: 1, Limit: 10})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("Expected validation error for missing slug, got %v", err)
	}

	f.add("alice", nil, 1)
	f.votes.SumError = errors.New("connection reset")
	result, err := f.svc.Comment.ListTree(ctx, models.ListCommentsParams{BlogSlug: "hello-world", Page: 1, Limit: 10})
	if err == nil || result != nil {
		t.Errorf("Expected failure without partial result, got %v, %v", result, err)
	}

	f.votes.SumError = nil
	f.comments.ListError = errors.New("timeout")
	if _, err := f.svc.Comment.ListTree(ctx, models.ListCommentsParams{BlogSlug: "hello-world", Page: 1, Limit: 10}); err == nil {
		t.Error("Expected fetch failure to propagate")
	}
}

func TestCommentService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	gh := "alice-gh"

	created, err := f.svc.Comment.Create(ctx, alice, &models.CreateCommentRequest{
		BlogSlug:       "hello-world",
		Content:        "  <b>Great</b> post & thanks  ",
		GithubUsername: &gh,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Content != "Great post & thanks" {
		t.Errorf("Expected sanitized content, got %q", created.Content)
	}
	if created.UserID != "alice" || created.ParentID != nil {
		t.Errorf("Unexpected comment %+v", created)
	}
	if created.DisplayName == nil || *created.DisplayName != "Alice" {
		t.Error("Created comment should carry the joined profile")
	}
	if created.GithubUsername == nil || *created.GithubUsername != "alice-gh" {
		t.Error("Expected github username from the request")
	}

	reply, err := f.svc.Comment.Create(ctx, bob, &models.CreateCommentRequest{
		BlogSlug: "hello-world",
		Content:  "reply",
		ParentID: &created.ID,
	})
	if err != nil {
		t.Fatalf("Create reply failed: %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != created.ID {
		t.Error("Reply should reference its parent")
	}
}

func TestCommentService_Create_Rejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	other := f.add("alice", nil, 1)
	other.BlogSlug = "other-post"
	missing := uuid.NewString()

	tests := []struct {
		name string
		req  *models.CreateCommentRequest
	}{
		{"empty content", &models.CreateCommentRequest{BlogSlug: "hello-world", Content: ""}},
		{"markup only", &models.CreateCommentRequest{BlogSlug: "hello-world", Content: "<b></b>"}},
		{"missing slug", &models.CreateCommentRequest{Content: "hi"}},
		{"unknown parent", &models.CreateCommentRequest{BlogSlug: "hello-world", Content: "hi", ParentID: &missing}},
		{"parent on another post", &models.CreateCommentRequest{BlogSlug: "hello-world", Content: "hi", ParentID: &other.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Comment.Create(ctx, alice, tt.req)
			if !errors.Is(err, service.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	if f.users.UpsertCalls != 0 {
		t.Errorf("Rejected requests must not touch storage, got %d upserts", f.users.UpsertCalls)
	}
}

func TestCommentService_Update(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.add("alice", nil, 1)

	_, err := f.svc.Comment.Update(ctx, bob, c.ID, &models.UpdateCommentRequest{Content: "hijacked"})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected forbidden, got %v", err)
	}
	if c.Content != "comment at minute 1" || c.IsEdited {
		t.Errorf("Comment must be unchanged after a forbidden edit, got %q", c.Content)
	}

	updated, err := f.svc.Comment.Update(ctx, alice, c.ID, &models.UpdateCommentRequest{Content: "fixed typo"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Content != "fixed typo" || !updated.IsEdited {
		t.Errorf("Unexpected update result %+v", updated)
	}

	_, err = f.svc.Comment.Update(ctx, alice, uuid.NewString(), &models.UpdateCommentRequest{Content: "x"})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestCommentService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.add("alice", nil, 1)

	if err := f.svc.Comment.Delete(ctx, bob, c.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected forbidden, got %v", err)
	}
	if c.IsDeleted {
		t.Fatal("Comment must not be deleted by another user")
	}

	if err := f.svc.Comment.Delete(ctx, alice, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !c.IsDeleted {
		t.Error("Expected comment to be soft-deleted")
	}
	if _, ok := f.comments.Comments[c.ID]; !ok {
		t.Error("Soft delete must keep the row")
	}

	if err := f.svc.Comment.Delete(ctx, alice, c.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Deleting twice should be not found, got %v", err)
	}
	if err := f.svc.Comment.Delete(ctx, alice, "not-a-uuid"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Malformed id should be not found, got %v", err)
	}
}

func TestVoteService_RejectsInvalidTypeBeforePersistence(t *testing.T) {
	f := newFixture()
	c := f.add("alice", nil, 1)

	for _, voteType := range []int{0, 2, -2} {
		_, err := f.svc.Vote.Cast(context.Background(), bob, c.ID, voteType)
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("Expected validation error for %d, got %v", voteType, err)
		}
	}
	if f.votes.ApplyCalls != 0 || f.votes.Rows() != 0 {
		t.Errorf("Invalid votes must not reach storage, got %d calls", f.votes.ApplyCalls)
	}

	// invalid type wins over a missing comment
	_, err := f.svc.Vote.Cast(context.Background(), bob, uuid.NewString(), 0)
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestVoteService_Toggles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.add("alice", nil, 1)

	cast := func(voteType int) vote.Outcome {
		out, err := f.svc.Vote.Cast(ctx, bob, c.ID, voteType)
		if err != nil {
			t.Fatalf("Cast failed: %v", err)
		}
		return out
	}

	first, second := cast(1), cast(1)
	if second.To != vote.None || first.Delta+second.Delta != 0 || f.votes.Rows() != 0 {
		t.Errorf("Upvoting twice should cancel out, got %+v then %+v", first, second)
	}

	first, second = cast(1), cast(-1)
	if second.To != vote.Down || first.Delta+second.Delta != -1 || second.Delta != -2 {
		t.Errorf("Up then down: got %+v then %+v", first, second)
	}
	if got := f.votes.Get(c.ID, "bob"); got != -1 {
		t.Errorf("Expected stored vote -1, got %d", got)
	}
	if f.votes.Rows() != 1 {
		t.Errorf("Expected exactly one vote row, got %d", f.votes.Rows())
	}

	out, err := f.svc.Vote.Remove(ctx, bob, c.ID)
	if err != nil || out.Delta != 1 || f.votes.Rows() != 0 {
		t.Errorf("Remove: got %+v, %v", out, err)
	}
	out, err = f.svc.Vote.Remove(ctx, bob, c.ID)
	if err != nil || out.Delta != 0 || out.Action != 0 {
		t.Errorf("Removing a missing vote should be a no-op, got %+v, %v", out, err)
	}
}

func TestVoteService_SelfVoteAllowed(t *testing.T) {
	f := newFixture()
	c := f.add("alice", nil, 1)
	if _, err := f.svc.Vote.Cast(context.Background(), alice, c.ID, 1); err != nil {
		t.Errorf("Self vote should be allowed, got %v", err)
	}
}

func TestVoteService_NotFound(t *testing.T) {
	f := newFixture()
	deleted := f.add("alice", nil, 1)
	deleted.IsDeleted = true

	for _, id := range []string{uuid.NewString(), "42", deleted.ID} {
		if _, err := f.svc.Vote.Cast(context.Background(), bob, id, 1); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected not found for %s, got %v", id, err)
		}
		if _, err := f.svc.Vote.Remove(context.Background(), bob, id); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected not found on remove for %s, got %v", id, err)
		}
	}
}

func TestVoteService_RetriesConflictOnce(t *testing.T) {
	f := newFixture()
	c := f.add("alice", nil, 1)

	f.votes.ConflictsLeft = 1
	if _, err := f.svc.Vote.Cast(context.Background(), bob, c.ID, 1); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if f.votes.ApplyCalls != 2 {
		t.Errorf("Expected 2 apply calls, got %d", f.votes.ApplyCalls)
	}

	f.votes.ConflictsLeft = 2
	if _, err := f.svc.Vote.Cast(context.Background(), bob, c.ID, 1); err == nil {
		t.Error("Expected a second conflict to fail")
	}
}

// Applying a transition to a fetched node must give the same counts as
// fetching again after the server applied it.
func TestVoteService_OptimisticMatchesRefetch(t *testing.T) {
	for _, row := range vote.Outcomes() {
		t.Run(fmt.Sprintf("%s_%+d", row.From, row.Requested), func(t *testing.T) {
			f := newFixture()
			c := f.add("alice", nil, 1)
			f.votes.Set(c.ID, "carol", 1)
			if row.From != vote.None {
				f.votes.Set(c.ID, "bob", int(row.From))
			}

			before := list(t, f, "bob", 1, 10).Nodes[0]
			current, _ := vote.StateOf(before.UserVote)
			optimistic, err := vote.Transition(current, row.Requested)
			if err != nil {
				t.Fatalf("Transition failed: %v", err)
			}
			wantCount := before.VoteCount + optimistic.Delta
			wantVote := int(optimistic.To)

			if _, err := f.svc.Vote.Cast(context.Background(), bob, c.ID, row.Requested); err != nil {
				t.Fatalf("Cast failed: %v", err)
			}

			after := list(t, f, "bob", 1, 10).Nodes[0]
			if after.VoteCount != wantCount || after.UserVote != wantVote {
				t.Errorf("Optimistic %d/%d, server %d/%d", wantCount, wantVote, after.VoteCount, after.UserVote)
			}
		})
	}
}

func TestExportService_StreamComments(t *testing.T) {
	f := newFixture()
	root := f.add("alice", nil, 1)
	f.add("bob", root, 2)
	root.IsDeleted = true

	w := httptest.NewRecorder()
	if err := f.svc.Export.StreamComments(context.Background(), w, "hello-world", service.FormatNDJSON); err != nil {
		t.Fatalf("StreamComments failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 ndjson lines including the deleted comment, got %d", len(lines))
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Unexpected content type %s", ct)
	}

	w = httptest.NewRecorder()
	if err := f.svc.Export.StreamComments(context.Background(), w, "", service.FormatCSV); err != nil {
		t.Fatalf("StreamComments csv failed: %v", err)
	}
	rows := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(rows) != 3 || !strings.HasPrefix(rows[0], "id,blog_slug") {
		t.Errorf("Expected header plus 2 rows, got %v", rows)
	}
	if !strings.HasSuffix(rows[1], ",true") {
		t.Errorf("Expected deleted flag on first row, got %s", rows[1])
	}

	w = httptest.NewRecorder()
	if err := f.svc.Export.StreamComments(context.Background(), w, "", service.FormatJSON); err != nil {
		t.Fatalf("StreamComments json failed: %v", err)
	}
	if body := w.Body.String(); !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		t.Errorf("Expected a JSON array, got %s", body)
	}

	err := f.svc.Export.StreamComments(context.Background(), httptest.NewRecorder(), "", "xml")
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("Expected validation error for xml, got %v", err)
	}
}
