package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/vote"
)

var (
	slugRegex   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	githubRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9]){0,38}$`)
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// Join renders a list of validation errors as one message
func Join(errs []ValidationError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator provides validation methods for comment and vote requests
type Validator struct {
	defaultLimit int
	maxLimit     int
	maxLength    int
}

// NewValidator creates a new validator instance
func NewValidator(defaultLimit, maxLimit, maxLength int) *Validator {
	return &Validator{
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		maxLength:    maxLength,
	}
}

// ParseListParams validates the query of a comment listing and fills in
// defaults: page 1, the configured limit, newest first.
func (v *Validator) ParseListParams(blogSlug, page, limit, sort string) (models.ListCommentsParams, []ValidationError) {
	var errors []ValidationError
	params := models.ListCommentsParams{
		BlogSlug: blogSlug,
		Page:     1,
		Limit:    v.defaultLimit,
		Sort:     models.SortNewest,
	}

	errors = append(errors, validateSlug(blogSlug)...)

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			errors = append(errors, ValidationError{Field: "page", Message: "page must be a positive integer", Value: page})
		} else {
			params.Page = n
		}
	}

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			errors = append(errors, ValidationError{Field: "limit", Message: "limit must be a positive integer", Value: limit})
		} else if n > v.maxLimit {
			errors = append(errors, ValidationError{
				Field:   "limit",
				Message: fmt.Sprintf("limit must not exceed %d", v.maxLimit),
				Value:   limit,
			})
		} else {
			params.Limit = n
		}
	}

	if sort != "" {
		if !models.ValidSorts[sort] {
			errors = append(errors, ValidationError{
				Field:   "sort",
				Message: "invalid sort, must be one of: newest, oldest, votes",
				Value:   sort,
			})
		} else {
			params.Sort = sort
		}
	}

	return params, errors
}

// ValidateCreateComment validates a new comment
func (v *Validator) ValidateCreateComment(req *models.CreateCommentRequest) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateSlug(req.BlogSlug)...)
	errors = append(errors, v.validateContent(req.Content)...)

	if req.ParentID != nil && !IsValidID(*req.ParentID) {
		errors = append(errors, ValidationError{Field: "parentId", Message: "invalid parentId format", Value: *req.ParentID})
	}

	if req.GithubUsername != nil && *req.GithubUsername != "" && !githubRegex.MatchString(*req.GithubUsername) {
		errors = append(errors, ValidationError{Field: "githubUsername", Message: "invalid githubUsername", Value: *req.GithubUsername})
	}

	return errors
}

// ValidateUpdateComment validates an edit of an existing comment
func (v *Validator) ValidateUpdateComment(req *models.UpdateCommentRequest) []ValidationError {
	return v.validateContent(req.Content)
}

// ValidateVote validates a vote request. Only 1 and -1 are accepted.
func (v *Validator) ValidateVote(req *models.VoteRequest) []ValidationError {
	if req.VoteType == nil {
		return []ValidationError{{Field: "voteType", Message: "voteType is required"}}
	}
	if !vote.Valid(*req.VoteType) {
		return []ValidationError{{Field: "voteType", Message: vote.ErrInvalidType.Error(), Value: *req.VoteType}}
	}
	return nil
}

func (v *Validator) validateContent(content string) []ValidationError {
	if strings.TrimSpace(content) == "" {
		return []ValidationError{{Field: "content", Message: "content is required"}}
	}
	if n := utf8.RuneCountInString(content); n > v.maxLength {
		return []ValidationError{{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", v.maxLength, n),
		}}
	}
	return nil
}

func validateSlug(slug string) []ValidationError {
	if slug == "" {
		return []ValidationError{{Field: "blogSlug", Message: "blogSlug is required"}}
	}
	if !slugRegex.MatchString(slug) {
		return []ValidationError{{
			Field:   "blogSlug",
			Message: "blogSlug must be kebab-case (lowercase letters, numbers, hyphens)",
			Value:   slug,
		}}
	}
	return nil
}

// IsValidID checks if a string is a valid comment id (UUID)
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
