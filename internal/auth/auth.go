// Package auth resolves the identity of a request from its bearer token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/models"
)

var (
	// ErrMissingToken is returned when the request has no bearer token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks
	ErrInvalidToken = errors.New("invalid token")
)

// Authenticator resolves the identity behind a request
type Authenticator interface {
	Authenticate(r *http.Request) (*models.AuthUser, error)
}

// JWTAuthenticator verifies HS256 tokens carrying Firebase-style claims
// (sub or user_id, name, email, picture, role, firebase.sign_in_provider)
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTAuthenticator creates an authenticator from the auth configuration
func NewJWTAuthenticator(cfg config.AuthConfig) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Authenticate parses the Authorization header of r
func (a *JWTAuthenticator) Authenticate(r *http.Request) (*models.AuthUser, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}
	return a.Verify(token)
}

// Verify validates a raw token and maps its claims to an identity
func (a *JWTAuthenticator) Verify(token string) (*models.AuthUser, error) {
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) { return a.secret, nil }, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	uid := claimString(claims, "sub")
	if uid == "" {
		uid = claimString(claims, "user_id")
	}
	if uid == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	user := &models.AuthUser{
		UID:          uid,
		DisplayName:  claimString(claims, "name"),
		Email:        claimString(claims, "email"),
		PhotoURL:     claimString(claims, "picture"),
		Role:         claimString(claims, "role"),
		ProviderData: []models.ProviderInfo{},
	}
	if fb, ok := claims["firebase"].(map[string]any); ok {
		if provider, _ := fb["sign_in_provider"].(string); provider != "" {
			user.ProviderData = append(user.ProviderData, models.ProviderInfo{ProviderID: provider, UID: uid})
		}
	}
	return user, nil
}

// Issue signs a token for user valid for ttl
func (a *JWTAuthenticator) Issue(user *models.AuthUser, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     user.UID,
		"name":    user.DisplayName,
		"email":   user.Email,
		"picture": user.PhotoURL,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if user.Role != "" {
		claims["role"] = user.Role
	}
	if a.issuer != "" {
		claims["iss"] = a.issuer
	}
	if a.audience != "" {
		claims["aud"] = a.audience
	}
	if len(user.ProviderData) > 0 {
		claims["firebase"] = map[string]any{"sign_in_provider": user.ProviderData[0].ProviderID}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
