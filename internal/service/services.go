package service

import (
	"context"
	"net/http"

	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/metrics"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/repository"
	"github.com/portfolio-api/internal/validation"
	"github.com/portfolio-api/internal/vote"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/portfolio-api/internal/service")

// CommentService defines the interface for comment operations
type CommentService interface {
	ListTree(ctx context.Context, params models.ListCommentsParams) (*models.CommentPage, error)
	Create(ctx context.Context, user *models.AuthUser, req *models.CreateCommentRequest) (*models.Comment, error)
	Update(ctx context.Context, user *models.AuthUser, id string, req *models.UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, user *models.AuthUser, id string) error
}

// VoteService defines the interface for vote operations
type VoteService interface {
	Cast(ctx context.Context, user *models.AuthUser, commentID string, voteType int) (vote.Outcome, error)
	Remove(ctx context.Context, user *models.AuthUser, commentID string) (vote.Outcome, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamComments(ctx context.Context, w http.ResponseWriter, blogSlug, format string) error
}

// Services holds all service interfaces
type Services struct {
	Comment CommentService
	Vote    VoteService
	Export  ExportService

	// Validator is shared with the transport layer for query parsing
	Validator *validation.Validator
}

// NewServices creates all services. m may be nil.
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) *Services {
	validator := validation.NewValidator(cfg.Comments.DefaultLimit, cfg.Comments.MaxLimit, cfg.Comments.MaxLength)

	return &Services{
		Comment: newCommentService(repos, validator, m, log),
		Vote:    newVoteService(repos, validator, m, log),
		Export:  newExportService(repos, log),

		Validator: validator,
	}
}
