package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/repository"
	"github.com/portfolio-api/internal/vote"
)

var (
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
	_ repository.VoteRepository    = (*MockVoteRepository)(nil)
	_ repository.UserRepository    = (*MockUserRepository)(nil)
)

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mu       sync.Mutex
	Comments map[string]*models.Comment
	Users    *MockUserRepository // optional, joined onto reads like the SQL left join

	InsertError error
	ListError   error
	UpdateError error
	ListCalls   int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
	}
}

// Add stores a comment as-is, for test setup
func (m *MockCommentRepository) Add(comments ...*models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range comments {
		m.Comments[c.ID] = c
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Add(comment)
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	return m.joined(c), nil
}

func (m *MockCommentRepository) ListByBlogSlug(ctx context.Context, blogSlug string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	out := make([]models.Comment, 0)
	for _, c := range m.Comments {
		if c.BlogSlug == blogSlug {
			out = append(out, *m.joined(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	c, ok := m.Comments[id]
	if !ok || c.IsDeleted {
		return false, nil
	}
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = at
	return true, nil
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	c, ok := m.Comments[id]
	if !ok || c.IsDeleted {
		return false, nil
	}
	c.IsDeleted = true
	c.UpdatedAt = at
	return true, nil
}

func (m *MockCommentRepository) StreamAll(ctx context.Context, blogSlug string, callback func(*models.Comment) error) error {
	m.mu.Lock()
	comments := make([]*models.Comment, 0, len(m.Comments))
	for _, c := range m.Comments {
		if blogSlug == "" || c.BlogSlug == blogSlug {
			comments = append(comments, m.joined(c))
		}
	}
	m.mu.Unlock()

	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	for _, comment := range comments {
		if err := callback(comment); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockCommentRepository) joined(c *models.Comment) *models.Comment {
	out := *c
	if m.Users == nil {
		return &out
	}
	if u := m.Users.get(c.UserID); u != nil {
		out.DisplayName = &u.DisplayName
		out.PhotoURL = &u.PhotoURL
		out.GithubUsername = &u.GithubUsername
		out.Role = &u.Role
	}
	return &out
}

// MockVoteRepository is a mock implementation of VoteRepository keyed by
// comment id then user id
type MockVoteRepository struct {
	mu    sync.Mutex
	Votes map[string]map[string]int

	SumError   error
	ApplyError error
	// ConflictsLeft makes the next Apply calls fail with ErrVoteConflict
	ConflictsLeft int
	ApplyCalls    int
	SumCalls      int
	UserVoteCalls int
}

func NewMockVoteRepository() *MockVoteRepository {
	return &MockVoteRepository{
		Votes: make(map[string]map[string]int),
	}
}

// Set stores a vote directly, for test setup
func (m *MockVoteRepository) Set(commentID, userID string, voteType int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Votes[commentID] == nil {
		m.Votes[commentID] = make(map[string]int)
	}
	m.Votes[commentID][userID] = voteType
}

// Get returns the stored vote type, 0 when absent
func (m *MockVoteRepository) Get(commentID, userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Votes[commentID][userID]
}

// Rows returns the number of stored votes
func (m *MockVoteRepository) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byUser := range m.Votes {
		n += len(byUser)
	}
	return n
}

func (m *MockVoteRepository) SumByCommentIDs(ctx context.Context, commentIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SumCalls++
	if m.SumError != nil {
		return nil, m.SumError
	}
	sums := make(map[string]int)
	for _, id := range commentIDs {
		byUser, ok := m.Votes[id]
		if !ok || len(byUser) == 0 {
			continue
		}
		total := 0
		for _, v := range byUser {
			total += v
		}
		sums[id] = total
	}
	return sums, nil
}

func (m *MockVoteRepository) UserVotes(ctx context.Context, userID string, commentIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserVoteCalls++
	votes := make(map[string]int)
	for _, id := range commentIDs {
		if v, ok := m.Votes[id][userID]; ok {
			votes[id] = v
		}
	}
	return votes, nil
}

func (m *MockVoteRepository) Apply(ctx context.Context, commentID, userID string, decide repository.DecideFunc) (vote.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls++
	if m.ApplyError != nil {
		return vote.Outcome{}, m.ApplyError
	}
	if m.ConflictsLeft > 0 {
		m.ConflictsLeft--
		return vote.Outcome{}, repository.ErrVoteConflict
	}

	state, err := vote.StateOf(m.Votes[commentID][userID])
	if err != nil {
		return vote.Outcome{}, err
	}
	out, err := decide(state)
	if err != nil {
		return vote.Outcome{}, err
	}

	switch out.Action {
	case vote.Insert, vote.Update:
		if m.Votes[commentID] == nil {
			m.Votes[commentID] = make(map[string]int)
		}
		m.Votes[commentID][userID] = int(out.To)
	case vote.Delete:
		delete(m.Votes[commentID], userID)
	}
	return out, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	UpsertError error
	UpsertCalls int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) UpsertProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}

	stored := *user
	if existing, ok := m.Users[user.ID]; ok {
		stored.Role = existing.Role
		if stored.GithubUsername == "" {
			stored.GithubUsername = existing.GithubUsername
		}
	} else if stored.Role == "" {
		stored.Role = models.RoleUser
	}
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.get(id), nil
}

func (m *MockUserRepository) get(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil
	}
	out := *u
	return &out
}

// NewRepositories bundles fresh mock repositories, with comment reads
// joined against the mock users
func NewRepositories() (*repository.Repositories, *MockCommentRepository, *MockVoteRepository, *MockUserRepository) {
	users := NewMockUserRepository()
	comments := NewMockCommentRepository()
	comments.Users = users
	votes := NewMockVoteRepository()
	return &repository.Repositories{Comment: comments, Vote: votes, User: users}, comments, votes, users
}
