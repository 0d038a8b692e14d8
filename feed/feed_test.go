package feed

import (
	"sync"
	"testing"
	"time"

	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchRecorder struct {
	mu       sync.Mutex
	payments map[int][]models.Payment
	err      error
	calls    int
}

func (f *fetchRecorder) fetch(accountID int) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payments[accountID], nil
}

func (f *fetchRecorder) set(accountID int, payments []models.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payments == nil {
		f.payments = make(map[int][]models.Payment)
	}
	f.payments[accountID] = payments
}

func receiveSnapshot(t *testing.T, ch <-chan []models.Payment) []models.Payment {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return snapshot
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{{ID: 2, Amount: 9000}, {ID: 1, Amount: 5000}})

	h := New(fetcher.fetch)
	defer h.Close()

	ch, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()

	snapshot := receiveSnapshot(t, ch)
	require.Len(t, snapshot, 2)
	// The store orders newest first; the hub passes that through.
	assert.Equal(t, 2, snapshot[0].ID)
}

func TestSubscribeEmptyList(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{})

	h := New(fetcher.fetch)
	defer h.Close()

	ch, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()

	snapshot := receiveSnapshot(t, ch)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}

func TestSubscribeFetchError(t *testing.T) {
	fetcher := &fetchRecorder{err: errors.New("connection refused")}

	h := New(fetcher.fetch)
	defer h.Close()

	_, _, err := h.Subscribe(7)
	assert.Error(t, err)
}

func TestNotifyFansOutFreshSnapshot(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{{ID: 1, Amount: 5000}})

	h := New(fetcher.fetch)
	defer h.Close()

	ch, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()
	receiveSnapshot(t, ch)

	fetcher.set(7, []models.Payment{{ID: 2, Amount: 9000}, {ID: 1, Amount: 5000}})
	h.Notify(7)

	snapshot := receiveSnapshot(t, ch)
	require.Len(t, snapshot, 2)
	assert.Equal(t, 2, snapshot[0].ID)
}

func TestNotifySupersedesUnreadSnapshot(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{{ID: 1}})

	h := New(fetcher.fetch)
	defer h.Close()

	ch, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()

	// The initial snapshot sits unread; two refreshes land before the
	// consumer wakes up. Only the latest one is delivered.
	fetcher.set(7, []models.Payment{{ID: 2}, {ID: 1}})
	h.Notify(7)
	fetcher.set(7, []models.Payment{{ID: 3}, {ID: 2}, {ID: 1}})
	h.Notify(7)

	snapshot := receiveSnapshot(t, ch)
	require.Len(t, snapshot, 3)
	assert.Equal(t, 3, snapshot[0].ID)
}

func TestNotifyWithoutSubscribersSkipsFetch(t *testing.T) {
	fetcher := &fetchRecorder{}

	h := New(fetcher.fetch)
	defer h.Close()

	h.Notify(7)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Zero(t, fetcher.calls)
}

func TestCancelClosesStream(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{})

	h := New(fetcher.fetch)
	defer h.Close()

	ch, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	receiveSnapshot(t, ch)

	cancel()
	cancel() // repeat cancel is a no-op

	_, ok := <-ch
	assert.False(t, ok)

	// A notify after cancel must not panic on the closed channel.
	h.Notify(7)
}

func TestCloseDropsAllSubscribers(t *testing.T) {
	fetcher := &fetchRecorder{}
	fetcher.set(7, []models.Payment{})

	h := New(fetcher.fetch)

	ch, _, err := h.Subscribe(7)
	require.NoError(t, err)
	receiveSnapshot(t, ch)

	h.Close()

	_, ok := <-ch
	assert.False(t, ok)

	_, _, err = h.Subscribe(7)
	assert.Error(t, err)
}
