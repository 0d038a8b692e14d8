package session

import (
	"testing"
	"time"

	"bitbucket.org/skilr/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(seed int64) *Manager {
	return NewManager(&fakeStore{}, &fakeLedger{}, &fakeGateway{}, ManagerConfig{
		Config: Config{
			VATRate:      4,
			MinAmount:    100,
			MaxAmount:    1000000,
			SuccessDelay: 20 * time.Millisecond,
			FailureDelay: 20 * time.Millisecond,
		},
		FeeMin: 300,
		FeeMax: 600,
	}, seed)
}

func TestManagerFeeRange(t *testing.T) {
	m := newTestManager(42)

	for id := 1; id <= 200; id++ {
		fee := m.Get(models.Account{ID: id}).Fee()
		assert.GreaterOrEqual(t, fee, 300.0)
		assert.Less(t, fee, 600.0)
	}
}

func TestManagerReusesSession(t *testing.T) {
	m := newTestManager(42)

	first := m.Get(models.Account{ID: 1, Email: "old@example.com"})
	second := m.Get(models.Account{ID: 1, Email: "new@example.com"})

	require.Same(t, first, second)
	assert.Equal(t, "new@example.com", second.account.Email, "snapshot refreshes on every fetch")
	assert.Equal(t, first.Fee(), second.Fee())
}

func TestManagerLookup(t *testing.T) {
	m := newTestManager(42)

	assert.Nil(t, m.Lookup(1))
	m.Get(models.Account{ID: 1})
	assert.NotNil(t, m.Lookup(1))
}

func TestManagerRemove(t *testing.T) {
	m := newTestManager(42)

	s := m.Get(models.Account{ID: 1})
	m.Remove(1)
	assert.Nil(t, m.Lookup(1))

	// A fresh session gets its own fee draw.
	again := m.Get(models.Account{ID: 1})
	assert.NotSame(t, s, again)
}
