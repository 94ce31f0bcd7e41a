// Package notify implements the single-slot user notification channel.
// A new message replaces any pending one and restarts the auto-hide timer;
// messages are never queued.
package notify

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultDuration is how long a notification stays visible unless replaced.
const DefaultDuration = 3 * time.Second

// Kind classifies a notification for presentation purposes.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Notification is an immutable snapshot of the notifier's current slot.
type Notification struct {
	Text    string
	Kind    Kind
	Visible bool
}

// Notifier holds at most one visible notification at a time.
// It is safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	gen      uint64
	current  Notification
	timer    *time.Timer
	duration time.Duration
	logger   *slog.Logger
	updates  chan Notification
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDuration overrides the default auto-hide duration.
func WithDuration(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.duration = d
		}
	}
}

// WithLogger configures structured logging for the notifier.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithUpdates attaches a channel that receives each state change.
// Sends are non-blocking: when the consumer lags, intermediate states are
// dropped, which matches the replace-not-queue contract.
func WithUpdates(ch chan Notification) Option {
	return func(n *Notifier) {
		n.updates = ch
	}
}

// New creates a Notifier with the default 3 second auto-hide window.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		current:  Notification{Kind: KindSuccess},
		duration: DefaultDuration,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show publishes a notification with the notifier's configured duration.
func (n *Notifier) Show(text string, kind Kind) {
	n.ShowFor(text, kind, n.duration)
}

// ShowFor publishes a notification that auto-hides after d. Any pending
// auto-hide timer is cancelled first, so the previous message is never
// shown again. Each publication starts a new generation; a stopped timer
// that already fired carries the old generation and cannot touch the slot.
func (n *Notifier) ShowFor(text string, kind Kind, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.gen++
	gen := n.gen
	if n.timer != nil {
		n.timer.Stop()
	}

	n.current = Notification{Text: text, Kind: kind, Visible: true}
	n.timer = time.AfterFunc(d, func() { n.expire(gen) })

	n.logger.Debug("notification shown",
		slog.String("kind", string(kind)),
		slog.String("text", text))
	n.publishLocked()
}

// Hide clears the slot and resets the kind to the default.
func (n *Notifier) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	n.hideLocked()
}

// expire is the auto-hide path. Stop cannot cancel a timer whose callback
// is already in flight, so a callback racing a replacement can land here
// after its notification is gone; the generation check makes it a no-op.
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return
	}
	n.hideLocked()
}

func (n *Notifier) hideLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = Notification{Kind: KindSuccess}
	n.publishLocked()
}

// Snapshot returns the current notification state.
func (n *Notifier) Snapshot() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Notifier) publishLocked() {
	if n.updates == nil {
		return
	}
	select {
	case n.updates <- n.current:
	default:
	}
}
