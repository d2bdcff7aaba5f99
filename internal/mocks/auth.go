package mocks

import (
	"net/http"

	"github.com/portfolio-api/internal/auth"
	"github.com/portfolio-api/internal/models"
)

// MockAuthenticator resolves bearer tokens from a fixed table
type MockAuthenticator struct {
	Tokens map[string]*models.AuthUser
}

// Verify interface compliance
var _ auth.Authenticator = (*MockAuthenticator)(nil)

func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{Tokens: make(map[string]*models.AuthUser)}
}

func (m *MockAuthenticator) Authenticate(r *http.Request) (*models.AuthUser, error) {
	token := auth.BearerToken(r)
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	user, ok := m.Tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}
