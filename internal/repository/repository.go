package repository

import (
	"context"
	"errors"
	"time"

	"github.com/portfolio-api/internal/database"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/vote"
)

// ErrVoteConflict is returned when a concurrent request inserted the same
// (comment, user) vote first
var ErrVoteConflict = errors.New("vote already exists for this comment and user")

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByBlogSlug(ctx context.Context, blogSlug string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, at time.Time) (bool, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	StreamAll(ctx context.Context, blogSlug string, callback func(*models.Comment) error) error
}

// DecideFunc maps the user's current vote on a comment to the transition to apply
type DecideFunc func(current vote.State) (vote.Outcome, error)

// VoteRepository defines the interface for vote data operations
type VoteRepository interface {
	SumByCommentIDs(ctx context.Context, commentIDs []string) (map[string]int, error)
	UserVotes(ctx context.Context, userID string, commentIDs []string) (map[string]int, error)
	Apply(ctx context.Context, commentID, userID string, decide DecideFunc) (vote.Outcome, error)
}

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	UpsertProfile(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment CommentRepository
	Vote    VoteRepository
	User    UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment: NewCommentRepo(db),
		Vote:    NewVoteRepo(db),
		User:    NewUserRepo(db),
	}
}
