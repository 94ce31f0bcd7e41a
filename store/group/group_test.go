package group_test

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
	"github.com/Yahoo0976095579/accounting-go/store/group"
)

func newStore(t *testing.T, backend http.Handler) (*group.Store, *notify.Notifier) {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	notifier := notify.New(notify.WithDuration(time.Minute))
	return group.New(apiclient.New(srv.URL), notifier), notifier
}

func TestStore_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("replaces local list", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]group.Group{
				{ID: 1, Name: "Household"},
				{ID: 2, Name: "Trip"},
			})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background()))

		got := store.Groups()
		require.Len(t, got, 2)
		assert.Equal(t, "Household", got[0].Name)
	})

	t.Run("failure notifies", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "db down"})
		})

		store, notifier := newStore(t, mux)
		require.Error(t, store.Fetch(context.Background()))

		n := notifier.Snapshot()
		assert.Equal(t, "db down", n.Text)
		assert.Equal(t, notify.KindError, n.Kind)
		assert.Equal(t, "db down", store.Error())
	})
}

func TestStore_FetchDetails(t *testing.T) {
	t.Parallel()

	t.Run("loads members", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups/3", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(group.Group{
				ID:   3,
				Name: "Flatmates",
				Members: []group.Member{
					{UserID: 1, Username: "alice", Role: group.RoleOwner},
					{UserID: 2, Username: "bob", Role: group.RoleMember},
				},
			})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.FetchDetails(context.Background(), 3))

		current := store.Current()
		require.NotNil(t, current)
		require.Len(t, current.Members, 2)
		assert.Equal(t, group.RoleOwner, current.Members[0].Role)
	})

	t.Run("failure clears current group", func(t *testing.T) {
		t.Parallel()

		var fail bool
		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups/3", func(w http.ResponseWriter, r *http.Request) {
			if fail {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Not a member"})
				return
			}
			json.NewEncoder(w).Encode(group.Group{ID: 3, Name: "Flatmates"})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.FetchDetails(context.Background(), 3))
		require.NotNil(t, store.Current())

		fail = true
		require.Error(t, store.FetchDetails(context.Background(), 3))
		assert.Nil(t, store.Current())
	})
}

func TestStore_Create(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /groups", func(w http.ResponseWriter, r *http.Request) {
		var input group.Input
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"group": group.Group{ID: 9, Name: input.Name},
		})
	})

	store, notifier := newStore(t, mux)
	created, err := store.Create(context.Background(), group.Input{Name: "Ski trip"})
	require.NoError(t, err)

	assert.Equal(t, int64(9), created.ID)
	require.Len(t, store.Groups(), 1)
	assert.Equal(t, "Ski trip", store.Groups()[0].Name)
	assert.Equal(t, "Group created.", notifier.Snapshot().Text)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes locally and clears open group", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]group.Group{{ID: 1, Name: "Household"}})
		})
		mux.HandleFunc("GET /groups/1", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(group.Group{ID: 1, Name: "Household"})
		})
		mux.HandleFunc("DELETE /groups/1", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background()))
		require.NoError(t, store.FetchDetails(context.Background(), 1))
		require.NoError(t, store.Delete(context.Background(), 1))

		assert.Empty(t, store.Groups())
		assert.Nil(t, store.Current())
	})

	t.Run("owner-only failure surfaces message", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /groups/1", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Only the owner can delete a group"})
		})

		store, notifier := newStore(t, mux)
		require.Error(t, store.Delete(context.Background(), 1))
		assert.Equal(t, "Only the owner can delete a group", notifier.Snapshot().Text)
	})
}

func TestStore_Invite(t *testing.T) {
	t.Parallel()

	t.Run("success notifies backend message", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /groups/4/invite", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "carol", body["username"])
			json.NewEncoder(w).Encode(map[string]string{"message": "Invitation sent to carol"})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.Invite(context.Background(), 4, "carol"))
		assert.Equal(t, "Invitation sent to carol", notifier.Snapshot().Text)
	})

	t.Run("failure stays inline, no notification", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /groups/4/invite", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "User not found"})
		})

		store, notifier := newStore(t, mux)
		err := store.Invite(context.Background(), 4, "nobody")
		require.Error(t, err)
		assert.Equal(t, "User not found", apiclient.Message(err))
		assert.Equal(t, "User not found", store.Error())
		assert.False(t, notifier.Snapshot().Visible)
	})
}

func TestStore_Invitations(t *testing.T) {
	t.Parallel()

	t.Run("accept removes invitation and reloads groups", func(t *testing.T) {
		t.Parallel()

		var groupFetches int
		mux := http.NewServeMux()
		mux.HandleFunc("GET /invitations", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]group.Invitation{
				{ID: 7, GroupID: 4, GroupName: "Trip", InviterUsername: "alice"},
			})
		})
		mux.HandleFunc("POST /invitations/7/accept", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "Joined Trip"})
		})
		mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
			groupFetches++
			json.NewEncoder(w).Encode([]group.Group{{ID: 4, Name: "Trip"}})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.FetchInvitations(context.Background()))
		require.Len(t, store.Invitations(), 1)

		require.NoError(t, store.AcceptInvitation(context.Background(), 7))

		assert.Empty(t, store.Invitations())
		assert.Equal(t, 1, groupFetches)
		require.Len(t, store.Groups(), 1)
		assert.Equal(t, "Joined Trip", notifier.Snapshot().Text)
	})

	t.Run("reject removes invitation without touching groups", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /invitations", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]group.Invitation{{ID: 8, GroupID: 5}})
		})
		mux.HandleFunc("POST /invitations/8/reject", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "Invitation declined"})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.FetchInvitations(context.Background()))
		require.NoError(t, store.RejectInvitation(context.Background(), 8))

		assert.Empty(t, store.Invitations())
		assert.Empty(t, store.Groups())
		assert.Equal(t, "Invitation declined", notifier.Snapshot().Text)
	})
}

func TestStore_Members(t *testing.T) {
	t.Parallel()

	t.Run("remove member refreshes details", func(t *testing.T) {
		t.Parallel()

		var removed bool
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /groups/2/members/5", func(w http.ResponseWriter, r *http.Request) {
			removed = true
			json.NewEncoder(w).Encode(map[string]string{"message": "removed"})
		})
		mux.HandleFunc("GET /groups/2", func(w http.ResponseWriter, r *http.Request) {
			members := []group.Member{{UserID: 1, Username: "alice", Role: group.RoleOwner}}
			if !removed {
				members = append(members, group.Member{UserID: 5, Username: "bob", Role: group.RoleMember})
			}
			json.NewEncoder(w).Encode(group.Group{ID: 2, Members: members})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.FetchDetails(context.Background(), 2))
		require.Len(t, store.Current().Members, 2)

		require.NoError(t, store.RemoveMember(context.Background(), 2, 5))
		require.Len(t, store.Current().Members, 1)
	})

	t.Run("role update sends role body", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("PUT /groups/2/members/5/role", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, group.RoleAdmin, body["role"])
			json.NewEncoder(w).Encode(map[string]string{"message": "updated"})
		})
		mux.HandleFunc("GET /groups/2", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(group.Group{ID: 2})
		})

		store, notifier := newStore(t, mux)
		require.NoError(t, store.UpdateMemberRole(context.Background(), 2, 5, group.RoleAdmin))
		assert.Equal(t, "Member role updated.", notifier.Snapshot().Text)
	})

	t.Run("leave removes the group locally", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]group.Group{{ID: 6, Name: "Club"}})
		})
		mux.HandleFunc("POST /groups/6/leave", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"message": "left"})
		})

		store, _ := newStore(t, mux)
		require.NoError(t, store.Fetch(context.Background()))
		require.NoError(t, store.Leave(context.Background(), 6))
		assert.Empty(t, store.Groups())
	})
}
