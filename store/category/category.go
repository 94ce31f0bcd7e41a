// Package category mirrors the backend's category collection into local
// state and performs category CRUD.
package category

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

// Category is a user-owned income or expense category.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"` // "income" or "expense"
	UserID int64  `json:"user_id"`
}

// Input carries the writable category fields.
type Input struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Store fetches and mutates the category collection. Its local slice is a
// mirror of the backend's authoritative list; concurrent mutations resolve
// last-write-wins.
type Store struct {
	client   *apiclient.Client
	notifier *notify.Notifier
	log      *slog.Logger

	mu         sync.RWMutex
	categories []Category
	loading    bool
	fetchErr   string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures structured logging for the store.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a category store over the shared API client.
func New(client *apiclient.Client, notifier *notify.Notifier, opts ...Option) *Store {
	s := &Store{
		client:   client,
		notifier: notifier,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch replaces the local collection with the backend's list.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setFetchError("")

	var categories []Category
	if err := s.client.Get(ctx, "/categories", &categories); err != nil {
		s.setFetchError(apiclient.Message(err))
		s.log.Warn("fetch categories failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return nil
}

// Add creates a category and appends it locally. Validation failures are
// returned to the caller for inline display rather than notified globally.
func (s *Store) Add(ctx context.Context, input Input) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var created Category
	if err := s.client.Post(ctx, "/categories", input, &created); err != nil {
		s.log.Warn("add category failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	s.categories = append(s.categories, created)
	s.mu.Unlock()
	return nil
}

// Update renames or retypes a category and refreshes the local entry.
func (s *Store) Update(ctx context.Context, id int64, input Input) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var updated Category
	if err := s.client.Put(ctx, categoryPath(id), input, &updated); err != nil {
		s.log.Warn("update category failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a category and notifies the outcome. The backend rejects
// deleting a category that still has transactions; that message is surfaced
// verbatim.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.Delete(ctx, categoryPath(id), nil); err != nil {
		s.notifier.Show(apiclient.Message(err), notify.KindError)
		s.log.Warn("delete category failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	s.mu.Unlock()

	s.notifier.Show("Category deleted.", notify.KindSuccess)
	return nil
}

// Categories returns a copy of the local collection.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

// IsLoading reports whether a store operation is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// FetchError returns the last fetch failure message, or "".
func (s *Store) FetchError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchErr
}

func categoryPath(id int64) string {
	return "/categories/" + strconv.FormatInt(id, 10)
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setFetchError(msg string) {
	s.mu.Lock()
	s.fetchErr = msg
	s.mu.Unlock()
}
