package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/portfolio-api/internal/metrics"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/repository"
	"github.com/portfolio-api/internal/validation"
	"github.com/portfolio-api/internal/vote"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// voteService is the concrete implementation of VoteService
type voteService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// newVoteService creates a new VoteService
func newVoteService(repos *repository.Repositories, validator *validation.Validator, m *metrics.Metrics, log zerolog.Logger) *voteService {
	return &voteService{
		repos:     repos,
		validator: validator,
		metrics:   m,
		log:       log.With().Str("service", "vote").Logger(),
	}
}

// Cast applies the transition for voteType to the user's vote on a comment.
// The vote type is checked before the comment is looked up.
func (s *voteService) Cast(ctx context.Context, user *models.AuthUser, commentID string, voteType int) (vote.Outcome, error) {
	if errs := s.validator.ValidateVote(&models.VoteRequest{VoteType: &voteType}); len(errs) > 0 {
		return vote.Outcome{}, invalid(errs...)
	}

	return s.apply(ctx, user, commentID, "VoteService.Cast", func(current vote.State) (vote.Outcome, error) {
		return vote.Transition(current, voteType)
	})
}

// Remove deletes the user's vote on a comment, whatever its type
func (s *voteService) Remove(ctx context.Context, user *models.AuthUser, commentID string) (vote.Outcome, error) {
	return s.apply(ctx, user, commentID, "VoteService.Remove", func(current vote.State) (vote.Outcome, error) {
		return vote.Retract(current), nil
	})
}

func (s *voteService) apply(ctx context.Context, user *models.AuthUser, commentID, op string, decide repository.DecideFunc) (vote.Outcome, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("comment.id", commentID))

	if _, err := findLive(ctx, s.repos.Comment, commentID); err != nil {
		return vote.Outcome{}, err
	}

	out, err := s.repos.Vote.Apply(ctx, commentID, user.UID, decide)
	if errors.Is(err, repository.ErrVoteConflict) {
		// a concurrent request created the row first, decide again against it
		s.log.Warn().Str("comment_id", commentID).Str("user_id", user.UID).Msg("Vote conflict, retrying")
		out, err = s.repos.Vote.Apply(ctx, commentID, user.UID, decide)
	}
	if err != nil {
		return vote.Outcome{}, fmt.Errorf("failed to apply vote: %w", err)
	}

	if out.Action != 0 {
		s.metrics.VoteTransition(out.Action.String())
	}
	s.log.Info().
		Str("comment_id", commentID).
		Str("user_id", user.UID).
		Stringer("from", out.From).
		Stringer("to", out.To).
		Int("delta", out.Delta).
		Msg("Vote applied")

	return out, nil
}
