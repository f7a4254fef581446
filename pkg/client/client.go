package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/naveenspark/webadmin/pkg/domain"
)

// DefaultTimeout bounds every request made through a Client.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 1 << 20

// AuthFailure describes a response that came back 401.
type AuthFailure struct {
	Method    string
	Path      string
	RequestID string
}

// Client is the webadmin API client. All traffic goes through one shared
// http.Client and the request/response middleware pipeline.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	reqMW      []RequestMiddleware
	respMW     []ResponseMiddleware

	mu        sync.Mutex
	nextID    int
	onUnauthz map[int]func(AuthFailure)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource attaches bearer credentials from src.
func WithTokenSource(src TokenSource) Option {
	return WithRequestMiddleware(BearerToken(src))
}

// WithToken attaches a fixed bearer token.
func WithToken(token string) Option {
	return WithTokenSource(StaticToken(token))
}

// WithRequestMiddleware appends request middlewares.
func WithRequestMiddleware(mw ...RequestMiddleware) Option {
	return func(c *Client) { c.reqMW = append(c.reqMW, mw...) }
}

// WithResponseMiddleware appends response middlewares.
func WithResponseMiddleware(mw ...ResponseMiddleware) Option {
	return func(c *Client) { c.respMW = append(c.respMW, mw...) }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    slog.Default(),
		reqMW:     []RequestMiddleware{AcceptJSON(), RequestID()},
		onUnauthz: make(map[int]func(AuthFailure)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized registers fn to run once for every 401 response, before the
// failing call returns. The returned func unregisters it.
func (c *Client) OnUnauthorized(fn func(AuthFailure)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.onUnauthz[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.onUnauthz, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) emitAuthFailure(ev AuthFailure) {
	c.mu.Lock()
	handlers := make([]func(AuthFailure), 0, len(c.onUnauthz))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.onUnauthz[i]; ok {
			handlers = append(handlers, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// --- Auth ---

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.post(ctx, "/api/login", creds, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

// Signup registers a new account and returns its session.
func (c *Client) Signup(ctx context.Context, p domain.UserPayload) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.post(ctx, "/api/signup", p, &out); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}
	return &out, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/api/user", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// --- Users ---

// ListUsers fetches one page of users. page <= 0 lets the API pick the first page.
func (c *Client) ListUsers(ctx context.Context, page int) (*domain.UserPage, error) {
	path := "/api/users"
	if page > 0 {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		path += "?" + params.Encode()
	}

	var out domain.UserPage
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	if out.Data == nil {
		out.Data = []domain.User{}
	}
	return &out, nil
}

// GetUser fetches a single user by ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, userPath(id), &u); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	return &u, nil
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, p domain.UserPayload) (*domain.User, error) {
	var u domain.User
	if err := c.post(ctx, "/api/users", p, &u); err != nil {
		return nil, fmt.Errorf("client.CreateUser: %w", err)
	}
	return &u, nil
}

// UpdateUser replaces a user's fields.
func (c *Client) UpdateUser(ctx context.Context, id int64, p domain.UserPayload) (*domain.User, error) {
	var u domain.User
	if err := c.doRequest(ctx, http.MethodPut, userPath(id), p, &u); err != nil {
		return nil, fmt.Errorf("client.UpdateUser: %w", err)
	}
	return &u, nil
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, userPath(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteUser: %w", err)
	}
	return nil
}

func userPath(id int64) string {
	return "/api/users/" + url.PathEscape(strconv.FormatInt(id, 10))
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, mw := range c.reqMW {
		req = mw(req)
	}
	reqID := req.Header.Get(RequestIDHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	for _, mw := range c.respMW {
		if next := mw(resp); next != nil {
			resp = next
		}
	}
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)

	if resp.StatusCode >= 400 {
		return c.responseError(resp, AuthFailure{Method: method, Path: path, RequestID: reqID})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) responseError(resp *http.Response, ev AuthFailure) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("authorization failure", "method", ev.Method, "path", ev.Path, "request_id", ev.RequestID)
		c.emitAuthFailure(ev)
	}
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}

	var apiErr struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	decoded := json.Unmarshal(respBody, &apiErr) == nil

	if resp.StatusCode == http.StatusUnprocessableEntity {
		verr := &ValidationError{Message: apiErr.Message, Fields: apiErr.Errors}
		if !decoded {
			verr.Message = string(respBody)
		}
		return verr
	}

	msg := string(respBody)
	if decoded {
		switch {
		case apiErr.Message != "":
			msg = apiErr.Message
		case apiErr.Error != "":
			msg = apiErr.Error
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}
