// Package client is the HTTP client for the users REST API.
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
	"strings"
	"time"

	"user-console/internal/domain"
)

const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Observer is told the outcome of every call ("ok", "not_found", "conflict", "error").
type Observer func(op, outcome string)

// Client calls the users API under a fixed base URL. It keeps no state between calls.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver installs a call outcome hook.
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type userPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (p userPayload) toDomain() domain.User {
	return domain.User{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		IsActive: p.IsActive,
	}
}

type createPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type patchPayload struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type errorPayload struct {
	Detail any `json:"detail"`
}

// List returns all users in server order.
func (c *Client) List(ctx context.Context) ([]domain.User, error) {
	var payload []userPayload
	if err := c.do(ctx, OpList, http.MethodGet, "/users/", nil, &payload); err != nil {
		return nil, err
	}
	users := make([]domain.User, len(payload))
	for i := range payload {
		users[i] = payload[i].toDomain()
	}
	return users, nil
}

// Get fetches one user.
func (c *Client) Get(ctx context.Context, id int64) (*domain.User, error) {
	var payload userPayload
	if err := c.do(ctx, OpGet, http.MethodGet, userPath(id), nil, &payload); err != nil {
		return nil, err
	}
	user := payload.toDomain()
	return &user, nil
}

// Create registers a new user. A taken email fails with domain.ErrEmailRegistered.
func (c *Client) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	body := createPayload{Name: in.Name, Email: in.Email, Password: in.Password}
	var payload userPayload
	if err := c.do(ctx, OpCreate, http.MethodPost, "/users/", body, &payload); err != nil {
		return nil, err
	}
	user := payload.toDomain()
	return &user, nil
}

// Update applies a partial update.
func (c *Client) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	body := patchPayload{
		Name:     patch.Name,
		Email:    patch.Email,
		Password: patch.Password,
		IsActive: patch.IsActive,
	}
	var payload userPayload
	if err := c.do(ctx, OpUpdate, http.MethodPatch, userPath(id), body, &payload); err != nil {
		return nil, err
	}
	user := payload.toDomain()
	return &user, nil
}

// Delete removes a user and echoes its id.
func (c *Client) Delete(ctx context.Context, id int64) (int64, error) {
	if err := c.do(ctx, OpDelete, http.MethodDelete, userPath(id), nil, nil); err != nil {
		return 0, err
	}
	return id, nil
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	defer func() {
		c.observe(op, err)
	}()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readDetail pulls the "detail" field from an error body. Non-string details
// (validation error lists) are returned as raw JSON.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Detail == nil {
		return strings.TrimSpace(string(raw))
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	b, _ := json.Marshal(payload.Detail)
	return string(b)
}

func (c *Client) observe(op string, err error) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		outcome = "not_found"
	case IsConflict(err):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	c.observer(op, outcome)
}
