package client

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestMiddleware transforms an outgoing request. Middlewares run in
// registration order and must return a request (the same one or a clone).
type RequestMiddleware func(*http.Request) *http.Request

// ResponseMiddleware transforms an incoming response before status handling.
// A nil return keeps the response unchanged.
type ResponseMiddleware func(*http.Response) *http.Response

// TokenSource yields the current bearer token, "" when unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string { return f() }

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token() string { return string(t) }

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// BearerToken attaches "Authorization: Bearer <token>" when src has a token.
// The token is read per request, so logins and logouts take effect immediately.
func BearerToken(src TokenSource) RequestMiddleware {
	return func(req *http.Request) *http.Request {
		if src == nil {
			return req
		}
		if tok := src.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		return req
	}
}

// RequestID sets X-Request-ID unless the caller already provided one.
func RequestID() RequestMiddleware {
	return func(req *http.Request) *http.Request {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return req
	}
}

// AcceptJSON asks the API for JSON bodies. Without it the backend answers auth
// and validation failures with redirects.
func AcceptJSON() RequestMiddleware {
	return func(req *http.Request) *http.Request {
		req.Header.Set("Accept", "application/json")
		return req
	}
}
