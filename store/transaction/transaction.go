// Package transaction mirrors the backend's personal transaction pages into
// local state: filtered, paginated listing plus CRUD and period totals.
package transaction

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

// DefaultPerPage matches the backend's page size.
const DefaultPerPage = 10

// Transaction is a single income or expense record.
type Transaction struct {
	ID           int64   `json:"id"`
	Amount       float64 `json:"amount"`
	Type         string  `json:"type"` // "income" or "expense"
	Description  string  `json:"description"`
	Date         string  `json:"date"` // YYYY-MM-DD
	CreatedAt    string  `json:"created_at"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	UserID       int64   `json:"user_id"`
}

// Input carries the writable transaction fields.
type Input struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	CategoryID  int64   `json:"category_id"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
}

// Filter narrows a transaction listing. Zero values are omitted from the
// query string.
type Filter struct {
	Type       string
	CategoryID int64
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	SearchTerm string
}

// Values encodes the filter as query parameters.
func (f Filter) Values() url.Values {
	params := url.Values{}
	params.Set("type", f.Type)
	if f.CategoryID != 0 {
		params.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	params.Set("start_date", f.StartDate)
	params.Set("end_date", f.EndDate)
	params.Set("search_term", f.SearchTerm)
	return params
}

// Page is the backend's paginated listing envelope.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Pages        int           `json:"pages"`
	Page         int           `json:"page"`
	HasNext      bool          `json:"has_next"`
	HasPrev      bool          `json:"has_prev"`
}

// Summary is the filtered period totals from /transactions/summary.
type Summary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Store fetches and mutates personal transactions. After every mutation it
// re-fetches the current page so local state converges on the backend's
// authoritative list.
type Store struct {
	client   *apiclient.Client
	notifier *notify.Notifier
	log      *slog.Logger

	mu      sync.RWMutex
	page    Page
	filter  Filter
	perPage int
	summary Summary
	loading bool
	errMsg  string
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

// New creates a transaction store over the shared API client.
func New(client *apiclient.Client, notifier *notify.Notifier, opts ...Option) *Store {
	s := &Store{
		client:   client,
		notifier: notifier,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		perPage:  DefaultPerPage,
		page:     Page{Page: 1, Pages: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads one page of transactions for the given filter and remembers
// the filter for post-mutation refreshes.
func (s *Store) Fetch(ctx context.Context, filter Filter, page int) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	params := filter.Values()
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(s.perPage))

	var result Page
	if err := s.client.Get(ctx, "/transactions", &result, apiclient.WithQuery(params)); err != nil {
		s.setError(apiclient.Message(err))
		s.log.Warn("fetch transactions failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	s.page = result
	s.filter = filter
	s.mu.Unlock()
	return nil
}

// Add records a transaction, notifies, and reloads the current page.
func (s *Store) Add(ctx context.Context, input Input) error {
	s.setLoading(true)
	var created Transaction
	err := s.client.Post(ctx, "/transactions", input, &created)
	s.setLoading(false)
	if err != nil {
		s.setError(apiclient.Message(err))
		s.notifier.Show(apiclient.Message(err), notify.KindError)
		s.log.Warn("add transaction failed", logger.Error(err))
		return err
	}

	s.notifier.Show("Transaction added.", notify.KindSuccess)
	return s.refresh(ctx)
}

// Update modifies a transaction, notifies, and reloads the current page,
// since the change may alter ordering or fall out of the active filter.
func (s *Store) Update(ctx context.Context, id int64, input Input) error {
	s.setLoading(true)
	err := s.client.Put(ctx, transactionPath(id), input, nil)
	s.setLoading(false)
	if err != nil {
		s.setError(apiclient.Message(err))
		s.notifier.Show(apiclient.Message(err), notify.KindError)
		s.log.Warn("update transaction failed", logger.Error(err))
		return err
	}

	s.notifier.Show("Transaction updated.", notify.KindSuccess)
	return s.refresh(ctx)
}

// Delete removes a transaction. The entry disappears from the local page
// immediately; when the deletion empties a page past the first, the store
// steps back one page before reloading.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.setLoading(true)
	err := s.client.Delete(ctx, transactionPath(id), nil)
	s.setLoading(false)
	if err != nil {
		s.setError(apiclient.Message(err))
		s.notifier.Show(apiclient.Message(err), notify.KindError)
		s.log.Warn("delete transaction failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	kept := s.page.Transactions[:0]
	for _, tx := range s.page.Transactions {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	s.page.Transactions = kept
	s.page.Total--
	if len(kept) == 0 && s.page.Page > 1 {
		s.page.Page--
	}
	s.mu.Unlock()

	s.notifier.Show("Transaction deleted.", notify.KindSuccess)
	return s.refresh(ctx)
}

// FetchSummary loads the filtered totals.
func (s *Store) FetchSummary(ctx context.Context, filter Filter) error {
	var summary Summary
	if err := s.client.Get(ctx, "/transactions/summary", &summary, apiclient.WithQuery(filter.Values())); err != nil {
		s.log.Warn("fetch transaction summary failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return nil
}

// refresh reloads the remembered filter and page after a mutation.
func (s *Store) refresh(ctx context.Context) error {
	s.mu.RLock()
	filter := s.filter
	page := s.page.Page
	s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	return s.Fetch(ctx, filter, page)
}

// Page returns a copy of the current page state.
func (s *Store) Page() Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := s.page
	page.Transactions = append([]Transaction(nil), s.page.Transactions...)
	return page
}

// Filter returns the filter of the most recent fetch.
func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Summary returns the most recent filtered totals.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// IsLoading reports whether a store operation is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last operation's failure message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func transactionPath(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
