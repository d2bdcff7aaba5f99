package models

import (
	"time"
)

// Comment represents a comment row on a blog post, joined with the public
// profile of its author. Profile fields are nil when the user row is missing.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	BlogSlug  string    `json:"blogSlug" db:"blog_slug"`
	UserID    string    `json:"userId" db:"user_id"`
	ParentID  *string   `json:"parentId" db:"parent_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	IsEdited  bool      `json:"isEdited" db:"is_edited"`
	IsDeleted bool      `json:"isDeleted" db:"is_deleted"`

	DisplayName    *string `json:"displayName" db:"display_name"`
	PhotoURL       *string `json:"photoUrl" db:"photo_url"`
	GithubUsername *string `json:"githubUsername" db:"github_username"`
	Role           *string `json:"role" db:"role"`
}

// IsTopLevel reports whether the comment is attached directly to the post
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentNode is the nested view of a comment returned to clients.
// A deleted comment with visible replies appears as a placeholder with
// isDeleted true, empty content, no author and zero votes.
type CommentNode struct {
	Comment
	VoteCount int            `json:"voteCount"`
	UserVote  int            `json:"userVote"`
	Replies   []*CommentNode `json:"replies"`
}

// CommentPage is one page of top-level nodes with their full reply subtrees
type CommentPage struct {
	Nodes []*CommentNode `json:"nodes"`
	Total int            `json:"total"` // top-level nodes before pagination
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// Sort orders accepted when listing comments
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortVotes  = "votes"
)

// ValidSorts defines allowed sort orders
var ValidSorts = map[string]bool{
	SortNewest: true,
	SortOldest: true,
	SortVotes:  true,
}

// ListCommentsParams selects one page of a blog post's comment tree
type ListCommentsParams struct {
	BlogSlug string
	UserID   string // optional, only used to annotate UserVote
	Page     int
	Limit    int
	Sort     string
}

// CreateCommentRequest is the body of POST /api/comments
type CreateCommentRequest struct {
	BlogSlug       string  `json:"blogSlug"`
	Content        string  `json:"content"`
	ParentID       *string `json:"parentId,omitempty"`
	GithubUsername *string `json:"githubUsername,omitempty"`
}

// UpdateCommentRequest is the body of PUT /api/comments/:id
type UpdateCommentRequest struct {
	Content string `json:"content"`
}
