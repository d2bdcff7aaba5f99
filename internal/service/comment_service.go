package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/portfolio-api/internal/commenttree"
	"github.com/portfolio-api/internal/metrics"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/repository"
	"github.com/portfolio-api/internal/validation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	sanitizer *bluemonday.Policy
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, validator *validation.Validator, m *metrics.Metrics, log zerolog.Logger) *commentService {
	return &commentService{
		repos:     repos,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		metrics:   m,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// ListTree returns one page of a post's comment tree. Every visible comment
// of the post is loaded and nested before the top level is paginated, so a
// page always carries complete reply subtrees.
func (s *commentService) ListTree(ctx context.Context, params models.ListCommentsParams) (*models.CommentPage, error) {
	if params.BlogSlug == "" {
		return nil, invalid(validation.ValidationError{Field: "blogSlug", Message: "blogSlug is required"})
	}
	if params.Page < 1 || params.Limit < 1 {
		return nil, invalid(validation.ValidationError{Field: "page", Message: "page and limit must be positive"})
	}

	ctx, span := tracer.Start(ctx, "CommentService.ListTree")
	defer span.End()
	span.SetAttributes(attribute.String("blog.slug", params.BlogSlug), attribute.Int("page", params.Page))

	start := time.Now()

	rows, err := s.repos.Comment.ListByBlogSlug(ctx, params.BlogSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	ids := commenttree.VisibleIDs(rows)

	// aggregates and own votes are independent reads
	var voteCounts, userVotes map[string]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sums, err := s.repos.Vote.SumByCommentIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch vote counts: %w", err)
		}
		voteCounts = sums
		return nil
	})
	if params.UserID != "" {
		g.Go(func() error {
			mine, err := s.repos.Vote.UserVotes(gctx, params.UserID, ids)
			if err != nil {
				return fmt.Errorf("failed to fetch user votes: %w", err)
			}
			userVotes = mine
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := commenttree.Build(rows, voteCounts, userVotes)
	if params.Sort != "" && params.Sort != models.SortNewest {
		commenttree.Sort(nodes, params.Sort)
	}

	s.metrics.TreeBuilt(time.Since(start), len(ids))
	s.log.Debug().
		Str("blog_slug", params.BlogSlug).
		Int("comments", len(ids)).
		Int("top_level", len(nodes)).
		Dur("duration", time.Since(start)).
		Msg("Comment tree assembled")

	return &models.CommentPage{
		Nodes: commenttree.Paginate(nodes, params.Page, params.Limit),
		Total: len(nodes),
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

// Create stores a new comment or reply and refreshes the author's profile
func (s *commentService) Create(ctx context.Context, user *models.AuthUser, req *models.CreateCommentRequest) (*models.Comment, error) {
	if errs := s.validator.ValidateCreateComment(req); len(errs) > 0 {
		return nil, invalid(errs...)
	}

	content, err := s.sanitize(req.Content)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.repos.Comment.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch parent comment: %w", err)
		}
		if parent == nil || parent.IsDeleted || parent.BlogSlug != req.BlogSlug {
			return nil, invalid(validation.ValidationError{
				Field:   "parentId",
				Message: "parent comment does not exist on this post",
				Value:   *req.ParentID,
			})
		}
	}

	profile := &models.User{
		ID:          user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
	}
	if req.GithubUsername != nil {
		profile.GithubUsername = *req.GithubUsername
	}
	if err := s.repos.User.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save user profile: %w", err)
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		BlogSlug:  req.BlogSlug,
		UserID:    user.UID,
		ParentID:  req.ParentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.metrics.CommentMutation("create")
	s.log.Info().
		Str("comment_id", comment.ID).
		Str("blog_slug", comment.BlogSlug).
		Str("user_id", comment.UserID).
		Bool("reply", !comment.IsTopLevel()).
		Msg("Comment created")

	return s.reload(ctx, comment)
}

// Update replaces the content of a comment owned by user
func (s *commentService) Update(ctx context.Context, user *models.AuthUser, id string, req *models.UpdateCommentRequest) (*models.Comment, error) {
	if errs := s.validator.ValidateUpdateComment(req); len(errs) > 0 {
		return nil, invalid(errs...)
	}

	content, err := s.sanitize(req.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repos.Comment.UpdateContent(ctx, comment.ID, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.metrics.CommentMutation("update")
	s.log.Info().Str("comment_id", id).Str("user_id", user.UID).Msg("Comment updated")

	return s.reload(ctx, comment)
}

// Delete soft-deletes a comment owned by user. Replies stay attached.
func (s *commentService) Delete(ctx context.Context, user *models.AuthUser, id string) error {
	comment, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}

	ok, err := s.repos.Comment.SoftDelete(ctx, comment.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.metrics.CommentMutation("delete")
	s.log.Info().Str("comment_id", id).Str("user_id", user.UID).Msg("Comment deleted")
	return nil
}

// owned loads a live comment and checks that user wrote it
func (s *commentService) owned(ctx context.Context, user *models.AuthUser, id string) (*models.Comment, error) {
	comment, err := findLive(ctx, s.repos.Comment, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != user.UID {
		return nil, ErrForbidden
	}
	return comment, nil
}

func (s *commentService) reload(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	stored, err := s.repos.Comment.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment: %w", err)
	}
	if stored == nil {
		return nil, ErrNotFound
	}
	return stored, nil
}

// sanitize strips markup, keeping the text as typed
func (s *commentService) sanitize(content string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(content)))
	if clean == "" {
		return "", invalid(validation.ValidationError{Field: "content", Message: "content is required"})
	}
	return clean, nil
}

// findLive returns the comment with the given id, or ErrNotFound when the id
// is malformed, unknown or soft-deleted
func findLive(ctx context.Context, repo repository.CommentRepository, id string) (*models.Comment, error) {
	if !validation.IsValidID(id) {
		return nil, ErrNotFound
	}
	comment, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment: %w", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, ErrNotFound
	}
	return comment, nil
}
