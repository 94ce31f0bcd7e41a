// Package grouptx mirrors a group's shared ledger: filtered, paginated
// listing plus CRUD and the group's running totals, all scoped under
// /groups/:id/transactions.
package grouptx

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
	"github.com/Yahoo0976095579/accounting-go/store/transaction"
)

// DefaultPerPage matches the backend's page size.
const DefaultPerPage = 10

// Transaction is one entry in a group's shared ledger. Unlike a personal
// transaction it records which member created it.
type Transaction struct {
	ID                int64   `json:"id"`
	Amount            float64 `json:"amount"`
	Type              string  `json:"type"`
	Description       string  `json:"description"`
	Date              string  `json:"date"`
	CreatedAt         string  `json:"created_at"`
	CategoryID        int64   `json:"category_id"`
	CategoryName      string  `json:"category_name"`
	GroupID           int64   `json:"group_id"`
	CreatedByUserID   int64   `json:"created_by_user_id"`
	CreatedByUsername string  `json:"created_by_username"`
}

// Input carries the writable group transaction fields.
type Input struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	CategoryID  int64   `json:"category_id"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
}

// Page is the backend's paginated listing envelope for a group ledger.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Pages        int           `json:"pages"`
	Page         int           `json:"page"`
	HasNext      bool          `json:"has_next"`
	HasPrev      bool          `json:"has_prev"`
}

// Summary is the group's running totals from /groups/:id/summary.
type Summary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
}

// Store tracks one group's ledger at a time. Switching groups is just a
// Fetch with a different group ID; all state belongs to the last fetched
// group.
type Store struct {
	client   *apiclient.Client
	notifier *notify.Notifier
	log      *slog.Logger

	mu      sync.RWMutex
	groupID int64
	page    Page
	filter  transaction.Filter
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

// New creates a group ledger store over the shared API client.
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

// Fetch loads one page of a group's transactions and remembers the group
// and filter for post-mutation refreshes.
func (s *Store) Fetch(ctx context.Context, groupID int64, filter transaction.Filter, page int) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	params := filter.Values()
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(s.perPage))

	var result Page
	err := s.client.Get(ctx, ledgerPath(groupID), &result, apiclient.WithQuery(params))
	if err != nil {
		s.fail("fetch group transactions failed", groupID, err)
		return err
	}

	s.mu.Lock()
	s.groupID = groupID
	s.page = result
	s.filter = filter
	s.mu.Unlock()
	return nil
}

// Add records a transaction in the group ledger, notifies, and reloads the
// current page.
func (s *Store) Add(ctx context.Context, groupID int64, input Input) error {
	s.setLoading(true)
	var created Transaction
	err := s.client.Post(ctx, ledgerPath(groupID), input, &created)
	s.setLoading(false)
	if err != nil {
		s.fail("add group transaction failed", groupID, err)
		return err
	}

	s.notifier.Show("Group transaction added.", notify.KindSuccess)
	return s.refresh(ctx, groupID)
}

// Update modifies a group transaction, notifies, and reloads the page.
func (s *Store) Update(ctx context.Context, groupID, txID int64, input Input) error {
	s.setLoading(true)
	err := s.client.Put(ctx, entryPath(groupID, txID), input, nil)
	s.setLoading(false)
	if err != nil {
		s.fail("update group transaction failed", groupID, err)
		return err
	}

	s.notifier.Show("Group transaction updated.", notify.KindSuccess)
	return s.refresh(ctx, groupID)
}

// Delete removes a group transaction, stepping back a page when the
// deletion empties a page past the first.
func (s *Store) Delete(ctx context.Context, groupID, txID int64) error {
	s.setLoading(true)
	err := s.client.Delete(ctx, entryPath(groupID, txID), nil)
	s.setLoading(false)
	if err != nil {
		s.fail("delete group transaction failed", groupID, err)
		return err
	}

	s.mu.Lock()
	kept := s.page.Transactions[:0]
	for _, tx := range s.page.Transactions {
		if tx.ID != txID {
			kept = append(kept, tx)
		}
	}
	s.page.Transactions = kept
	s.page.Total--
	if len(kept) == 0 && s.page.Page > 1 {
		s.page.Page--
	}
	s.mu.Unlock()

	s.notifier.Show("Group transaction deleted.", notify.KindSuccess)
	return s.refresh(ctx, groupID)
}

// FetchSummary loads the group's running totals.
func (s *Store) FetchSummary(ctx context.Context, groupID int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var summary Summary
	if err := s.client.Get(ctx, groupPath(groupID)+"/summary", &summary); err != nil {
		s.fail("fetch group summary failed", groupID, err)
		return err
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return nil
}

// refresh reloads the remembered group, filter, and page after a mutation.
func (s *Store) refresh(ctx context.Context, groupID int64) error {
	s.mu.RLock()
	filter := s.filter
	page := s.page.Page
	s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	return s.Fetch(ctx, groupID, filter, page)
}

// GroupID returns the group of the most recent fetch, 0 before any fetch.
func (s *Store) GroupID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupID
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
func (s *Store) Filter() transaction.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Summary returns the group's most recent totals.
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

func (s *Store) fail(msg string, groupID int64, err error) {
	text := apiclient.Message(err)
	s.setError(text)
	s.notifier.Show(text, notify.KindError)
	s.log.Warn(msg, logger.Error(err), slog.Int64("group_id", groupID))
}

func groupPath(groupID int64) string {
	return "/groups/" + strconv.FormatInt(groupID, 10)
}

func ledgerPath(groupID int64) string {
	return groupPath(groupID) + "/transactions"
}

func entryPath(groupID, txID int64) string {
	return ledgerPath(groupID) + "/" + strconv.FormatInt(txID, 10)
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
