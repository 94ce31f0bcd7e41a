package nav

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/session"
)

// Decision is the guard's verdict on a view transition.
type Decision int

const (
	// Allow commits the transition as requested.
	Allow Decision = iota
	// RedirectLogin aborts the transition in favor of the login view.
	RedirectLogin
	// RedirectHome aborts the transition in favor of the home view.
	RedirectHome
)

// Session is the slice of the session manager the guard depends on.
type Session interface {
	IsAuthenticated() bool
	HasCredential() bool
	FetchCurrentUser(ctx context.Context) error
}

// Navigator resolves paths against the route table, guards transitions,
// and tracks the current view. It implements session.Redirector so the
// session lifecycle can request view changes.
type Navigator struct {
	routes  []Route
	session Session
	log     *slog.Logger

	mu      sync.RWMutex
	current Route
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger configures structured logging for the navigator.
func WithLogger(log *slog.Logger) Option {
	return func(n *Navigator) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates a navigator over the given route table.
func New(sess Session, routes []Route, opts ...Option) *Navigator {
	n := &Navigator{
		routes:  routes,
		session: sess,
		current: NotFound,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve maps a path to its route; unmatched paths resolve to NotFound.
func (n *Navigator) Resolve(path string) Route {
	for _, r := range n.routes {
		if r.Path == path {
			return r
		}
	}
	return NotFound
}

// Guard decides whether a transition to the given route may commit.
//
// When the session has no user but a persisted credential exists (a fresh
// process start), it first attempts rehydration; authentication state is
// recomputed afterwards because it may have changed either way.
func (n *Navigator) Guard(ctx context.Context, to Route) Decision {
	if !n.session.IsAuthenticated() && n.session.HasCredential() {
		if err := n.session.FetchCurrentUser(ctx); err != nil {
			n.log.Debug("rehydration during navigation failed",
				logger.Path(to.Path), logger.Error(err))
			if to.RequiresAuth {
				return RedirectLogin
			}
		}
	}

	authenticated := n.session.IsAuthenticated()
	switch {
	case to.RequiresAuth && !authenticated:
		return RedirectLogin
	case (to.Path == session.ViewLogin || to.Path == session.ViewRegister) && authenticated:
		return RedirectHome
	default:
		return Allow
	}
}

// Go resolves the path, runs the guard, and commits the resulting view.
// It returns the route actually committed, which differs from the request
// when the guard redirected.
func (n *Navigator) Go(ctx context.Context, path string) Route {
	to := n.Resolve(path)

	switch n.Guard(ctx, to) {
	case RedirectLogin:
		to = n.Resolve(session.ViewLogin)
	case RedirectHome:
		to = n.Resolve(session.ViewHome)
	}

	n.mu.Lock()
	n.current = to
	n.mu.Unlock()

	n.log.Debug("navigated", logger.Path(to.Path))
	return to
}

// Push implements session.Redirector.
func (n *Navigator) Push(path string) {
	n.Go(context.Background(), path)
}

// Current returns the view the navigator last committed.
func (n *Navigator) Current() Route {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}
