// Package summary aggregates the personal dashboard: overall totals,
// per-category breakdowns for both transaction types, and the income/expense
// trend series. LoadDashboard fetches all four datasets concurrently and
// flips a single readiness flag only when every one of them arrived.
package summary

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
)

// Trend intervals accepted by the backend.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
)

// Totals is the all-time personal summary.
type Totals struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
}

// CategoryTotal is one row of a per-category breakdown.
type CategoryTotal struct {
	CategoryName string  `json:"category_name"`
	Type         string  `json:"type"`
	TotalAmount  float64 `json:"total_amount"`
}

// TrendPoint is one aggregated period in the trend series.
type TrendPoint struct {
	Period  string  `json:"period"` // YYYY-MM-DD, YYYY-WW, or YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// ChartFilter bounds the breakdown and trend queries. Interval defaults to
// month on the backend when empty.
type ChartFilter struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Interval  string
}

func (f ChartFilter) values() url.Values {
	params := url.Values{}
	params.Set("start_date", f.StartDate)
	params.Set("end_date", f.EndDate)
	return params
}

// Store holds the dashboard datasets.
type Store struct {
	client *apiclient.Client
	log    *slog.Logger

	mu               sync.RWMutex
	totals           Totals
	expenseBreakdown []CategoryTotal
	incomeBreakdown  []CategoryTotal
	trend            []TrendPoint
	loading          bool
	errMsg           string
	ready            bool
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

// New creates a summary store over the shared API client.
func New(client *apiclient.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDashboard fetches the overall totals, the trend series, and both
// category breakdowns concurrently. Ready reports true only after a load in
// which every request succeeded; any failure leaves it false and records
// the first error's message.
func (s *Store) LoadDashboard(ctx context.Context, filter ChartFilter) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.ready = false
	s.mu.Unlock()
	defer s.setLoading(false)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.fetchTotals(ctx) })
	g.Go(func() error { return s.fetchTrend(ctx, filter) })
	g.Go(func() error { return s.fetchBreakdown(ctx, filter, "expense") })
	g.Go(func() error { return s.fetchBreakdown(ctx, filter, "income") })

	if err := g.Wait(); err != nil {
		s.setError(apiclient.Message(err))
		s.log.Warn("load dashboard failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchTotals(ctx context.Context) error {
	var totals Totals
	if err := s.client.Get(ctx, "/summary", &totals); err != nil {
		return err
	}
	s.mu.Lock()
	s.totals = totals
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchBreakdown(ctx context.Context, filter ChartFilter, txType string) error {
	params := filter.values()
	params.Set("type", txType)

	var rows []CategoryTotal
	if err := s.client.Get(ctx, "/summary/category_breakdown", &rows, apiclient.WithQuery(params)); err != nil {
		return err
	}

	s.mu.Lock()
	if txType == "income" {
		s.incomeBreakdown = rows
	} else {
		s.expenseBreakdown = rows
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchTrend(ctx context.Context, filter ChartFilter) error {
	params := filter.values()
	params.Set("interval", filter.Interval)

	var points []TrendPoint
	if err := s.client.Get(ctx, "/summary/trend", &points, apiclient.WithQuery(params)); err != nil {
		return err
	}

	s.mu.Lock()
	s.trend = points
	s.mu.Unlock()
	return nil
}

// Totals returns the overall income/expense totals.
func (s *Store) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}

// ExpenseBreakdown returns a copy of the per-category expense totals.
func (s *Store) ExpenseBreakdown() []CategoryTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CategoryTotal(nil), s.expenseBreakdown...)
}

// IncomeBreakdown returns a copy of the per-category income totals.
func (s *Store) IncomeBreakdown() []CategoryTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CategoryTotal(nil), s.incomeBreakdown...)
}

// Trend returns a copy of the trend series.
func (s *Store) Trend() []TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TrendPoint(nil), s.trend...)
}

// IsLoading reports whether a dashboard load is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready reports whether the last dashboard load completed in full.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Error returns the last load's failure message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
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
