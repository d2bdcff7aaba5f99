package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/portfolio-api/internal/database"
	"github.com/portfolio-api/internal/vote"
)

const uniqueViolation = "23505"

// voteRepo is the concrete implementation of VoteRepository
type voteRepo struct {
	db *database.DB
}

// NewVoteRepo creates a new vote repository
func NewVoteRepo(db *database.DB) VoteRepository {
	return &voteRepo{db: db}
}

// SumByCommentIDs returns the sum of vote types per comment. Comments without
// votes are absent from the map.
func (r *voteRepo) SumByCommentIDs(ctx context.Context, commentIDs []string) (map[string]int, error) {
	sums := make(map[string]int, len(commentIDs))
	if len(commentIDs) == 0 {
		return sums, nil
	}

	query := `
		SELECT comment_id, COALESCE(SUM(vote_type), 0)
		FROM votes
		WHERE comment_id = ANY($1::uuid[])
		GROUP BY comment_id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(commentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var sum int
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}

// UserVotes returns the user's own vote type per comment for the given ids
func (r *voteRepo) UserVotes(ctx context.Context, userID string, commentIDs []string) (map[string]int, error) {
	votes := make(map[string]int)
	if userID == "" || len(commentIDs) == 0 {
		return votes, nil
	}

	query := `
		SELECT comment_id, vote_type
		FROM votes
		WHERE user_id = $1 AND comment_id = ANY($2::uuid[])
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(commentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var voteType int
		if err := rows.Scan(&id, &voteType); err != nil {
			return nil, err
		}
		votes[id] = voteType
	}
	return votes, rows.Err()
}

// Apply runs one vote transition inside a transaction. The existing row is
// locked while decide picks the outcome, then the outcome's action is
// persisted. An insert that loses a race against a concurrent insert returns
// ErrVoteConflict.
func (r *voteRepo) Apply(ctx context.Context, commentID, userID string, decide DecideFunc) (vote.Outcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return vote.Outcome{}, err
	}
	defer tx.Rollback()

	var (
		voteID  string
		current int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, vote_type FROM votes WHERE comment_id = $1 AND user_id = $2 FOR UPDATE`,
		commentID, userID,
	).Scan(&voteID, &current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return vote.Outcome{}, err
	}

	state, err := vote.StateOf(current)
	if err != nil {
		return vote.Outcome{}, err
	}

	out, err := decide(state)
	if err != nil {
		return vote.Outcome{}, err
	}

	now := time.Now()
	switch out.Action {
	case vote.Insert:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO votes (id, comment_id, user_id, vote_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)`,
			uuid.New().String(), commentID, userID, int(out.To), now,
		)
		if isUniqueViolation(err) {
			return vote.Outcome{}, ErrVoteConflict
		}
	case vote.Update:
		_, err = tx.ExecContext(ctx,
			`UPDATE votes SET vote_type = $1, updated_at = $2 WHERE id = $3`,
			int(out.To), now, voteID,
		)
	case vote.Delete:
		_, err = tx.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, voteID)
	default:
		// nothing to persist
		return out, nil
	}
	if err != nil {
		return vote.Outcome{}, err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return vote.Outcome{}, ErrVoteConflict
		}
		return vote.Outcome{}, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
