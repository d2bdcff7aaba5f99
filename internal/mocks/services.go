package mocks

import (
	"context"
	"net/http"

	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/service"
	"github.com/portfolio-api/internal/vote"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	ListTreeFunc func(ctx context.Context, params models.ListCommentsParams) (*models.CommentPage, error)
	CreateFunc   func(ctx context.Context, user *models.AuthUser, req *models.CreateCommentRequest) (*models.Comment, error)
	UpdateFunc   func(ctx context.Context, user *models.AuthUser, id string, req *models.UpdateCommentRequest) (*models.Comment, error)
	DeleteFunc   func(ctx context.Context, user *models.AuthUser, id string) error

	ListParams []models.ListCommentsParams
	Created    []*models.CreateCommentRequest
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) ListTree(ctx context.Context, params models.ListCommentsParams) (*models.CommentPage, error) {
	m.ListParams = append(m.ListParams, params)
	if m.ListTreeFunc != nil {
		return m.ListTreeFunc(ctx, params)
	}
	return &models.CommentPage{Nodes: []*models.CommentNode{}, Page: params.Page, Limit: params.Limit}, nil
}

func (m *MockCommentService) Create(ctx context.Context, user *models.AuthUser, req *models.CreateCommentRequest) (*models.Comment, error) {
	m.Created = append(m.Created, req)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, req)
	}
	return &models.Comment{ID: "new-comment", BlogSlug: req.BlogSlug, UserID: user.UID, ParentID: req.ParentID, Content: req.Content}, nil
}

func (m *MockCommentService) Update(ctx context.Context, user *models.AuthUser, id string, req *models.UpdateCommentRequest) (*models.Comment, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user, id, req)
	}
	return &models.Comment{ID: id, UserID: user.UID, Content: req.Content, IsEdited: true}, nil
}

func (m *MockCommentService) Delete(ctx context.Context, user *models.AuthUser, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, user, id)
	}
	return nil
}

// VoteCall records one call to MockVoteService
type VoteCall struct {
	UserID    string
	CommentID string
	VoteType  int // 0 for Remove
}

// MockVoteService is a mock implementation of VoteService
type MockVoteService struct {
	Err   error
	Calls []VoteCall
}

// Verify interface compliance
var _ service.VoteService = (*MockVoteService)(nil)

func NewMockVoteService() *MockVoteService {
	return &MockVoteService{}
}

func (m *MockVoteService) Cast(ctx context.Context, user *models.AuthUser, commentID string, voteType int) (vote.Outcome, error) {
	m.Calls = append(m.Calls, VoteCall{UserID: user.UID, CommentID: commentID, VoteType: voteType})
	if m.Err != nil {
		return vote.Outcome{}, m.Err
	}
	return vote.Transition(vote.None, voteType)
}

func (m *MockVoteService) Remove(ctx context.Context, user *models.AuthUser, commentID string) (vote.Outcome, error) {
	m.Calls = append(m.Calls, VoteCall{UserID: user.UID, CommentID: commentID})
	if m.Err != nil {
		return vote.Outcome{}, m.Err
	}
	return vote.Retract(vote.None), nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamCommentsFunc func(ctx context.Context, w http.ResponseWriter, blogSlug, format string) error
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamComments(ctx context.Context, w http.ResponseWriter, blogSlug, format string) error {
	if m.StreamCommentsFunc != nil {
		return m.StreamCommentsFunc(ctx, w, blogSlug, format)
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Write([]byte("{}\n"))
	return nil
}
