// Package client is a Go client for the comments API. Thread keeps a fetched
// comment tree in memory and applies votes to it optimistically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/portfolio-api/internal/models"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client calls the comments API over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New creates a Client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions selects one page of a post's comments. Zero values use the
// server defaults.
type ListOptions struct {
	Page   int
	Limit  int
	Sort   string
	UserID string
}

// Page is one page of top-level comments with their replies
type Page struct {
	Nodes []*models.CommentNode
	Total int
	Page  int
	Limit int
}

// List fetches one page of the comment tree of a blog post
func (c *Client) List(ctx context.Context, blogSlug string, opts ListOptions) (*Page, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.UserID != "" {
		q.Set("userId", opts.UserID)
	}

	path := "/api/comments/" + url.PathEscape(blogSlug)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var nodes []*models.CommentNode
	resp, err := c.do(ctx, http.MethodGet, path, nil, &nodes)
	if err != nil {
		return nil, err
	}

	page := &Page{Nodes: nodes}
	page.Total, _ = strconv.Atoi(resp.Header.Get("X-Total-Count"))
	page.Page, _ = strconv.Atoi(resp.Header.Get("X-Page"))
	page.Limit, _ = strconv.Atoi(resp.Header.Get("X-Limit"))
	return page, nil
}

// Create posts a new comment or reply
func (c *Client) Create(ctx context.Context, req *models.CreateCommentRequest) (*models.Comment, error) {
	var comment models.Comment
	if _, err := c.do(ctx, http.MethodPost, "/api/comments", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update replaces the content of one of the caller's comments
func (c *Client) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	var comment models.Comment
	body := &models.UpdateCommentRequest{Content: content}
	if _, err := c.do(ctx, http.MethodPut, "/api/comments/"+url.PathEscape(id), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete soft-deletes one of the caller's comments
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), nil, nil)
	return err
}

// Vote casts voteType (1 or -1) on a comment
func (c *Client) Vote(ctx context.Context, commentID string, voteType int) error {
	body := &models.VoteRequest{VoteType: &voteType}
	_, err := c.do(ctx, http.MethodPost, "/api/comments/"+url.PathEscape(commentID)+"/vote", body, nil)
	return err
}

// RemoveVote deletes the caller's vote on a comment
func (c *Client) RemoveVote(ctx context.Context, commentID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(commentID)+"/vote", nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return resp, &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}
