package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

func TestNotifier_Show(t *testing.T) {
	t.Parallel()

	t.Run("makes notification visible", func(t *testing.T) {
		t.Parallel()

		n := notify.New()
		n.Show("saved", notify.KindSuccess)

		got := n.Snapshot()
		assert.Equal(t, "saved", got.Text)
		assert.Equal(t, notify.KindSuccess, got.Kind)
		assert.True(t, got.Visible)
	})

	t.Run("auto-hides after the configured duration", func(t *testing.T) {
		t.Parallel()

		n := notify.New(notify.WithDuration(20 * time.Millisecond))
		n.Show("bye", notify.KindInfo)

		require.Eventually(t, func() bool {
			return !n.Snapshot().Visible
		}, time.Second, 5*time.Millisecond)

		got := n.Snapshot()
		assert.Empty(t, got.Text)
		assert.Equal(t, notify.KindSuccess, got.Kind, "kind resets to default on hide")
	})

	t.Run("replaces pending notification instead of queueing", func(t *testing.T) {
		t.Parallel()

		n := notify.New(notify.WithDuration(40 * time.Millisecond))
		n.Show("A", notify.KindError)
		n.Show("B", notify.KindWarning)

		got := n.Snapshot()
		assert.Equal(t, "B", got.Text)
		assert.Equal(t, notify.KindWarning, got.Kind)

		// "A" must never reappear: once "B" hides the slot stays empty.
		require.Eventually(t, func() bool {
			return !n.Snapshot().Visible
		}, time.Second, 5*time.Millisecond)
		assert.Empty(t, n.Snapshot().Text)
	})

	t.Run("expired timer racing a replacement cannot hide it", func(t *testing.T) {
		t.Parallel()

		n := notify.New(notify.WithDuration(time.Minute))
		for i := 0; i < 100; i++ {
			// Let the short timer fire so its callback may still be
			// waiting on the mutex when the replacement is published.
			n.ShowFor("old", notify.KindInfo, 50*time.Microsecond)
			time.Sleep(50 * time.Microsecond)
			n.Show("new", notify.KindWarning)
			time.Sleep(2 * time.Millisecond)

			got := n.Snapshot()
			require.True(t, got.Visible, "iteration %d: replacement was hidden: %+v", i, got)
			require.Equal(t, "new", got.Text)
			n.Hide()
		}
	})

	t.Run("second show restarts the auto-hide timer", func(t *testing.T) {
		t.Parallel()

		n := notify.New(notify.WithDuration(60 * time.Millisecond))
		n.Show("A", notify.KindInfo)
		time.Sleep(40 * time.Millisecond)
		n.Show("B", notify.KindInfo)
		time.Sleep(40 * time.Millisecond)

		// 80ms after the first show, but only 40ms after the second:
		// the replacement must still be visible.
		assert.True(t, n.Snapshot().Visible)
	})
}

func TestNotifier_Hide(t *testing.T) {
	t.Parallel()

	n := notify.New()
	n.Show("msg", notify.KindError)
	n.Hide()

	got := n.Snapshot()
	assert.False(t, got.Visible)
	assert.Empty(t, got.Text)
	assert.Equal(t, notify.KindSuccess, got.Kind)
}

func TestNotifier_Updates(t *testing.T) {
	t.Parallel()

	ch := make(chan notify.Notification, 4)
	n := notify.New(notify.WithUpdates(ch))

	n.Show("hello", notify.KindInfo)

	select {
	case got := <-ch:
		assert.Equal(t, "hello", got.Text)
		assert.True(t, got.Visible)
	case <-time.After(time.Second):
		t.Fatal("expected an update on the channel")
	}
}
