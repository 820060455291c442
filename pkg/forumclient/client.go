package forumclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/qna-forum-backend/pkg/logger"
)

const apiPrefix = "/api/v1"

// Client talks to the forum REST API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.config.Token = token
	return &clone
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.config.BaseURL+"/health", nil, nil)
}

// Replies

func (c *Client) ListReplies(ctx context.Context, postID uint, opts ListRepliesOptions) (*ReplyList, error) {
	q := url.Values{}
	if opts.ParentReply != nil {
		q.Set("parentReply", strconv.FormatUint(uint64(*opts.ParentReply), 10))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}

	var out ReplyList
	if err := c.get(ctx, fmt.Sprintf("/replies/post/%d", postID), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUserReplies(ctx context.Context, userID uint, page, limit int) (*UserReplies, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out UserReplies
	if err := c.get(ctx, fmt.Sprintf("/replies/user/%d", userID), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReply(ctx context.Context, postID uint, req CreateReplyRequest) (*ReplyResult, error) {
	var out ReplyResult
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/replies/post/%d", postID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpvoteReply(ctx context.Context, replyID uint) (*VoteResult, error) {
	return c.vote(ctx, fmt.Sprintf("/replies/%d/upvote", replyID))
}

func (c *Client) DownvoteReply(ctx context.Context, replyID uint) (*VoteResult, error) {
	return c.vote(ctx, fmt.Sprintf("/replies/%d/downvote", replyID))
}

func (c *Client) AcceptReply(ctx context.Context, replyID uint) (*ReplyResult, error) {
	var out ReplyResult
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/replies/%d/accept", replyID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateReply(ctx context.Context, replyID uint, content string) (*ReplyResult, error) {
	body := map[string]string{"content": content}
	var out ReplyResult
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/replies/%d", replyID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReply soft deletes a reply. The returned reply carries the placeholder content.
func (c *Client) DeleteReply(ctx context.Context, replyID uint) (*ReplyResult, error) {
	var out ReplyResult
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/replies/%d", replyID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Posts

func (c *Client) ListPosts(ctx context.Context, opts ListPostsOptions) (*PostList, error) {
	var out PostList
	if err := c.get(ctx, "/posts", opts.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPostsByCategory(ctx context.Context, category string, opts ListPostsOptions) (*PostList, error) {
	opts.Category = ""
	var out PostList
	if err := c.get(ctx, "/posts/category/"+url.PathEscape(category), opts.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPost(ctx context.Context, postID uint) (*Post, error) {
	var out PostResult
	if err := c.get(ctx, fmt.Sprintf("/posts/%d", postID), nil, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*PostResult, error) {
	var out PostResult
	if err := c.send(ctx, http.MethodPost, "/posts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID uint, req UpdatePostRequest) (*PostResult, error) {
	var out PostResult
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", postID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", postID), nil, nil)
}

func (c *Client) UpvotePost(ctx context.Context, postID uint) (*VoteResult, error) {
	return c.vote(ctx, fmt.Sprintf("/posts/%d/upvote", postID))
}

func (c *Client) DownvotePost(ctx context.Context, postID uint) (*VoteResult, error) {
	return c.vote(ctx, fmt.Sprintf("/posts/%d/downvote", postID))
}

func (c *Client) SetAnswered(ctx context.Context, postID uint, answered bool) (*PostResult, error) {
	body := map[string]bool{"is_answered": answered}
	var out PostResult
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/posts/%d/answered", postID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) vote(ctx context.Context, path string) (*VoteResult, error) {
	var out VoteResult
	if err := c.send(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o ListPostsOptions) values() url.Values {
	q := url.Values{}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.AuthorID != 0 {
		q.Set("author_id", strconv.FormatUint(uint64(o.AuthorID), 10))
	}
	if o.IsAnswered != nil {
		q.Set("is_answered", strconv.FormatBool(*o.IsAnswered))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	target := c.config.BaseURL + apiPrefix + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, target, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload, out interface{}) error {
	return c.do(ctx, method, c.config.BaseURL+apiPrefix+path, payload, out)
}

// do performs one request and decodes a 2xx body into out. Other statuses
// become *APIError.
func (c *Client) do(ctx context.Context, method, target string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("Forum API request", map[string]interface{}{
		"method":      method,
		"url":         target,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorBody
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Code = errResp.Error
			apiErr.Message = errResp.Message
			apiErr.Fields = errResp.Fields
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// replyNotFound reports whether err means the reply no longer exists on the server.
func replyNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeReplyNotFound
}
