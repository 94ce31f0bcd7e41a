package apiclient

import (
	"net/url"
	"sync/atomic"

	"github.com/google/uuid"
)

// Request is the per-call metadata visible to interceptors. It travels
// alongside the underlying *http.Request instead of being stapled onto it,
// so concurrent calls never share mutable state.
type Request struct {
	// ID uniquely identifies this outbound call for logging and tracing.
	ID uuid.UUID

	Method string
	// Path is the endpoint relative to the API base, e.g. "/login".
	Path string

	// NoAuth suppresses the Authorization header (login, register).
	NoAuth bool

	query   url.Values
	handled atomic.Bool
}

func newRequest(method, path string) *Request {
	return &Request{
		ID:     uuid.New(),
		Method: method,
		Path:   path,
		query:  url.Values{},
	}
}

// MarkHandled sets the once-only handled marker. It returns true for the
// first caller and false for every subsequent one.
func (r *Request) MarkHandled() bool {
	return r.handled.CompareAndSwap(false, true)
}

// Handled reports whether an interceptor already processed this call.
func (r *Request) Handled() bool {
	return r.handled.Load()
}

// RequestOption customizes a single outbound call.
type RequestOption func(*Request)

// WithQuery appends query parameters to the call. Empty values are skipped
// so callers can pass optional filters unconditionally.
func WithQuery(params url.Values) RequestOption {
	return func(r *Request) {
		for key, values := range params {
			for _, v := range values {
				if v != "" {
					r.query.Add(key, v)
				}
			}
		}
	}
}

// WithoutAuth omits the bearer credential. Used by the login and
// registration endpoints, which by definition have no session yet.
func WithoutAuth() RequestOption {
	return func(r *Request) {
		r.NoAuth = true
	}
}
