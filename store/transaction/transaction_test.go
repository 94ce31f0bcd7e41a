package transaction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
	"github.com/Yahoo0976095579/accounting-go/store/transaction"
)

func newStore(t *testing.T, backend http.Handler) (*transaction.Store, *notify.Notifier) {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	notifier := notify.New(notify.WithDuration(time.Minute))
	return transaction.New(apiclient.New(srv.URL), notifier), notifier
}

func TestFilter_Values(t *testing.T) {
	t.Parallel()

	t.Run("encodes set fields", func(t *testing.T) {
		t.Parallel()

		v := transaction.Filter{
			Type:       "expense",
			CategoryID: 7,
			StartDate:  "2026-01-01",
			EndDate:    "2026-01-31",
			SearchTerm: "coffee",
		}.Values()

		assert.Equal(t, "expense", v.Get("type"))
		assert.Equal(t, "7", v.Get("category_id"))
		assert.Equal(t, "2026-01-01", v.Get("start_date"))
		assert.Equal(t, "2026-01-31", v.Get("end_date"))
		assert.Equal(t, "coffee", v.Get("search_term"))
	})

	t.Run("omits zero category", func(t *testing.T) {
		t.Parallel()

		v := transaction.Filter{Type: "income"}.Values()
		assert.False(t, v.Has("category_id"))
	})
}

func TestStore_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("stores page metadata and filter", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "expense", r.URL.Query().Get("type"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("per_page"))
			json.NewEncoder(w).Encode(transaction.Page{
				Transactions: []transaction.Transaction{
					{ID: 11, Amount: 42.5, Type: "expense", CategoryName: "Food"},
				},
				Total:   15,
				Pages:   2,
				Page:    2,
				HasPrev: true,
			})
		})

		store, _ := newStore(t, mux)
		filter := transaction.Filter{Type: "expense"}
		require.NoError(t, store.Fetch(context.Background(), filter, 2))

		page := store.Page()
		require.Len(t, page.Transactions, 1)
		assert.Equal(t, int64(11), page.Transactions[0].ID)
		assert.Equal(t, 15, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.True(t, page.HasPrev)
		assert.Equal(t, filter, store.Filter())
		assert.Empty(t, store.Error())
	})

	t.Run("records error message", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "db down"})
		})

		store, _ := newStore(t, mux)
		require.Error(t, store.Fetch(context.Background(), transaction.Filter{}, 1))
		assert.Equal(t, "db down", store.Error())
	})
}

func TestStore_Add(t *testing.T) {
	t.Parallel()

	t.Run("notifies and refetches current page", func(t *testing.T) {
		t.Parallel()

		var listCalls int
		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			listCalls++
			json.NewEncoder(w).Encode(transaction.Page{
				Transactions: []transaction.Transaction{{ID: 1}},
				Total:        listCalls,
				Page:         1,
				Pages:        1,
			})
		})
		mux.HandleFunc("POST /transactions", func(w http.ResponseWriter, r *http.Request) {
			var input transaction.Input
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			assert.Equal(t, 99.9, input.Amount)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(transaction.Transaction{ID: 2, Amount: input.Amount})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background(), transaction.Filter{}, 1))
		require.NoError(t, store.Add(context.Background(), transaction.Input{
			Amount: 99.9, Type: "expense", CategoryID: 1, Date: "2026-02-01",
		}))

		assert.Equal(t, 2, listCalls)
		n := notifier.Snapshot()
		assert.Equal(t, "Transaction added.", n.Text)
		assert.Equal(t, notify.KindSuccess, n.Kind)
	})

	t.Run("failure notifies backend message", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /transactions", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Amount must be positive"})
		})

		store, notifier := newStore(t, mux)
		require.Error(t, store.Add(context.Background(), transaction.Input{Amount: -1}))

		n := notifier.Snapshot()
		assert.Equal(t, "Amount must be positive", n.Text)
		assert.Equal(t, notify.KindError, n.Kind)
		assert.Equal(t, "Amount must be positive", store.Error())
	})
}

func TestStore_Update(t *testing.T) {
	t.Parallel()

	var listCalls, putCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		json.NewEncoder(w).Encode(transaction.Page{Page: 1, Pages: 1})
	})
	mux.HandleFunc("PUT /transactions/7", func(w http.ResponseWriter, r *http.Request) {
		putCalls++
		json.NewEncoder(w).Encode(transaction.Transaction{ID: 7})
	})

	store, notifier := newStore(t, mux)
	require.NoError(t, store.Fetch(context.Background(), transaction.Filter{}, 1))
	require.NoError(t, store.Update(context.Background(), 7, transaction.Input{
		Amount: 10, Type: "income", CategoryID: 3, Date: "2026-02-01",
	}))

	assert.Equal(t, 1, putCalls)
	assert.Equal(t, 2, listCalls)
	assert.Equal(t, "Transaction updated.", notifier.Snapshot().Text)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes locally and refetches", func(t *testing.T) {
		t.Parallel()

		var requestedPages []string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			requestedPages = append(requestedPages, r.URL.Query().Get("page"))
			json.NewEncoder(w).Encode(transaction.Page{
				Transactions: []transaction.Transaction{{ID: 1}, {ID: 2}},
				Total:        2,
				Page:         1,
				Pages:        1,
			})
		})
		mux.HandleFunc("DELETE /transactions/1", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background(), transaction.Filter{}, 1))
		require.NoError(t, store.Delete(context.Background(), 1))

		assert.Equal(t, []string{"1", "1"}, requestedPages)
		n := notifier.Snapshot()
		assert.Equal(t, "Transaction deleted.", n.Text)
		assert.Equal(t, notify.KindSuccess, n.Kind)
	})

	t.Run("steps back when a later page empties", func(t *testing.T) {
		t.Parallel()

		var requestedPages []string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("page")
			requestedPages = append(requestedPages, page)
			if page == "2" {
				json.NewEncoder(w).Encode(transaction.Page{
					Transactions: []transaction.Transaction{{ID: 11}},
					Total:        11,
					Page:         2,
					Pages:        2,
					HasPrev:      true,
				})
				return
			}
			txs := make([]transaction.Transaction, 10)
			for i := range txs {
				txs[i] = transaction.Transaction{ID: int64(i + 1)}
			}
			json.NewEncoder(w).Encode(transaction.Page{
				Transactions: txs,
				Total:        10,
				Page:         1,
				Pages:        1,
			})
		})
		mux.HandleFunc("DELETE /transactions/11", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background(), transaction.Filter{}, 2))
		require.NoError(t, store.Delete(context.Background(), 11))

		// Deleting the lone entry on page 2 refetches page 1.
		assert.Equal(t, []string{"2", "1"}, requestedPages)
		assert.Equal(t, 1, store.Page().Page)
	})

	t.Run("failure keeps page and notifies error", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(transaction.Page{
				Transactions: []transaction.Transaction{{ID: 5}},
				Total:        1,
				Page:         1,
				Pages:        1,
			})
		})
		mux.HandleFunc("DELETE /transactions/5", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Transaction not found"})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background(), transaction.Filter{}, 1))
		require.Error(t, store.Delete(context.Background(), 5))

		require.Len(t, store.Page().Transactions, 1)
		n := notifier.Snapshot()
		assert.Equal(t, "Transaction not found", n.Text)
		assert.Equal(t, notify.KindError, n.Kind)
	})
}

func TestStore_FetchSummary(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions/summary", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-01-01", r.URL.Query().Get("start_date"))
		json.NewEncoder(w).Encode(transaction.Summary{
			Income:  1000,
			Expense: 250.5,
			Balance: 749.5,
		})
	})

	store, _ := newStore(t, mux)
	require.NoError(t, store.FetchSummary(context.Background(), transaction.Filter{StartDate: "2026-01-01"}))

	got := store.Summary()
	assert.Equal(t, 1000.0, got.Income)
	assert.Equal(t, 250.5, got.Expense)
	assert.Equal(t, 749.5, got.Balance)
}
