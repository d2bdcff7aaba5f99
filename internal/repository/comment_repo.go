package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/portfolio-api/internal/database"
	"github.com/portfolio-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentColumns = `
	c.id, c.blog_slug, c.user_id, c.parent_id, c.content,
	c.created_at, c.updated_at, c.is_edited, c.is_deleted,
	u.display_name, u.photo_url, u.github_username, u.role
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		comment                                      models.Comment
		parentID                                     sql.NullString
		displayName, photoURL, githubUsername, role sql.NullString
	)
	err := row.Scan(
		&comment.ID, &comment.BlogSlug, &comment.UserID, &parentID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt, &comment.IsEdited, &comment.IsDeleted,
		&displayName, &photoURL, &githubUsername, &role,
	)
	if err != nil {
		return nil, err
	}

	comment.ParentID = nullable(parentID)
	comment.DisplayName = nullable(displayName)
	comment.PhotoURL = nullable(photoURL)
	comment.GithubUsername = nullable(githubUsername)
	comment.Role = nullable(role)
	return &comment, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, blog_slug, user_id, parent_id, content, created_at, updated_at, is_edited, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE)
	`
	var parentID sql.NullString
	if comment.ParentID != nil {
		parentID = sql.NullString{String: *comment.ParentID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.BlogSlug, comment.UserID, parentID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt,
	)
	return err
}

// GetByID retrieves a comment by ID, soft-deleted rows included
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByBlogSlug returns every comment row of a post, soft-deleted rows
// included, newest first
func (r *commentRepo) ListByBlogSlug(ctx context.Context, blogSlug string) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.blog_slug = $1
		ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, blogSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

// UpdateContent replaces the content of a live comment and marks it edited
func (r *commentRepo) UpdateContent(ctx context.Context, id, content string, at time.Time) (bool, error) {
	query := `
		UPDATE comments
		SET content = $1, is_edited = TRUE, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, content, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SoftDelete flags a comment as deleted, leaving the row and its replies in place
func (r *commentRepo) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE comments
		SET is_deleted = TRUE, updated_at = $1
		WHERE id = $2 AND is_deleted = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// StreamAll streams comments for export. An empty blogSlug streams every post.
func (r *commentRepo) StreamAll(ctx context.Context, blogSlug string, callback func(*models.Comment) error) error {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE ($1 = '' OR c.blog_slug = $1)
		ORDER BY c.created_at`

	rows, err := r.db.QueryContext(ctx, query, blogSlug)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return err
		}

		if err := callback(comment); err != nil {
			return err
		}
	}

	return rows.Err()
}
