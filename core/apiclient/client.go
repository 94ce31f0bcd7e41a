package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Yahoo0976095579/accounting-go/core/config"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
)

// DefaultTimeout bounds every call unless a custom http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// Config describes the client's environment-driven settings, loaded with
// core/config. CredentialsPath selects the persisted credential location
// (see credentials.NewFromPath); empty keeps credentials in memory.
type Config struct {
	BaseURL         string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	Timeout         time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	CredentialsPath string        `env:"CREDENTIALS_PATH"`
}

// LoadConfig reads the client settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TokenSource supplies the current bearer credential for outbound calls.
// An empty string means the session is anonymous and no header is attached.
type TokenSource func() string

// Client issues JSON requests against the accounting backend.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger

	mu           sync.RWMutex
	token        TokenSource
	interceptors []Interceptor
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource sets the bearer credential provider.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.token = ts
	}
}

// WithLogger configures structured logging for the client.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the backend rooted at baseURL (including the
// /api prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromEnv creates a client from the environment configuration. Options
// are applied after the configured base URL and timeout, so they win.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg.BaseURL, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...), nil
}

// Use appends a response interceptor. Interceptors are meant to be
// registered once at startup, before the first request.
func (c *Client) Use(ic Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, ic)
}

// SetTokenSource replaces the bearer credential provider.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ts
}

// Get issues a GET request and decodes the response into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT request with a JSON body and decodes the response.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE request and decodes the response into out (may be nil).
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	req := newRequest(method, path)
	for _, opt := range opts {
		opt(req)
	}

	res, err := c.execute(ctx, req, body)

	c.mu.RLock()
	chain := c.interceptors
	c.mu.RUnlock()

	if err = intercept(ctx, chain, req, res, err); err != nil {
		c.log.DebugContext(ctx, "request failed",
			logger.Method(req.Method),
			logger.Endpoint(req.Path),
			logger.RequestID(req.ID.String()),
			logger.Error(err),
		)
		return err
	}

	// An interceptor may swallow an error; never decode an error-status
	// body into the caller's value in that case.
	if out != nil && res != nil && res.StatusCode < http.StatusBadRequest && len(res.Body) > 0 {
		if err := json.Unmarshal(res.Body, out); err != nil {
			return fmt.Errorf("apiclient: decode %s %s: %w", req.Method, req.Path, err)
		}
	}
	return nil
}

// execute performs the HTTP exchange and maps the outcome to the package's
// error taxonomy. The interceptor chain runs on its result.
func (c *Client) execute(ctx context.Context, req *Request, body any) (*Response, error) {
	u := c.baseURL + req.Path
	if encoded := req.query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s %s: %w", req.Method, req.Path, err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build %s %s: %w", req.Method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if !req.NoAuth && token != nil {
		if t := token(); t != "" {
			httpReq.Header.Set("Authorization", "Bearer "+t)
		}
	}

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	defer httpRes.Body.Close()

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, wrapTransportError(err)
	}

	res := &Response{StatusCode: httpRes.StatusCode, Body: data}
	if httpRes.StatusCode >= http.StatusBadRequest {
		return res, newAPIError(httpRes.StatusCode, data)
	}
	return res, nil
}

func unmarshalLoose(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
