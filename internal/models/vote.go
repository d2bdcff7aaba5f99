package models

import (
	"time"
)

// Vote is a single user's vote on a comment. At most one exists per
// (CommentID, UserID).
type Vote struct {
	ID        string    `json:"id" db:"id"`
	CommentID string    `json:"commentId" db:"comment_id"`
	UserID    string    `json:"userId" db:"user_id"`
	VoteType  int       `json:"voteType" db:"vote_type"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// VoteRequest is the body of POST /api/comments/:id/vote.
// VoteType is a pointer so a missing field is told apart from 0.
type VoteRequest struct {
	VoteType *int `json:"voteType"`
}
