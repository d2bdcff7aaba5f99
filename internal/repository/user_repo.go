package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/portfolio-api/internal/database"
	"github.com/portfolio-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// UpsertProfile inserts or refreshes the public profile of a user.
// The role of an existing user is kept, and an empty github username does
// not clear a stored one.
func (r *userRepo) UpsertProfile(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, display_name, email, photo_url, github_username, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			photo_url = EXCLUDED.photo_url,
			github_username = CASE
				WHEN EXCLUDED.github_username = '' THEN users.github_username
				ELSE EXCLUDED.github_username
			END,
			updated_at = EXCLUDED.updated_at
	`
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.DisplayName, user.Email, user.PhotoURL, user.GithubUsername,
		role, time.Now(),
	)
	return err
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, display_name, email, photo_url, github_username, role, created_at, updated_at
		FROM users WHERE id = $1
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PhotoURL, &user.GithubUsername,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}
