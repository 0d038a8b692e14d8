package session

import (
	"sync"
	"testing"
	"time"

	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insertCall struct {
	accountID int
	amount    float64
	reference string
}

type updateCall struct {
	paymentID int
	status    string
	reference string
}

type fakeStore struct {
	mu        sync.Mutex
	nextID    int
	insertErr error
	inserts   []insertCall
	updates   []updateCall
}

func (f *fakeStore) InsertPendingPayment(accountID int, amount float64, reference string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	f.inserts = append(f.inserts, insertCall{accountID: accountID, amount: amount, reference: reference})
	return f.nextID, nil
}

func (f *fakeStore) UpdatePaymentStatus(paymentID int, status string, finalReference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{paymentID: paymentID, status: status, reference: finalReference})
	return nil
}

type fakeLedger struct {
	mu         sync.Mutex
	reductions []float64
}

func (f *fakeLedger) ReduceUnclearedAmount(accountID int, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reductions = append(f.reductions, amount)
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	openErr error
	opened  []CheckoutConfig
}

func (f *fakeGateway) Open(config CheckoutConfig) (*Handoff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, config)
	return &Handoff{
		AuthorizationURL: "https://checkout.example/" + config.Reference,
		AccessCode:       "access",
		Reference:        config.Reference,
	}, nil
}

var testAccount = models.Account{
	ID:        7,
	Firstname: "Ada",
	Lastname:  "Obi",
	Email:     "ada@example.com",
	Phone:     "+2348000000000",
}

func newTestSession(store *fakeStore, ledger *fakeLedger, gateway *fakeGateway) *Session {
	m := NewManager(store, ledger, gateway, ManagerConfig{
		Config: Config{
			VATRate:      4,
			MinAmount:    100,
			MaxAmount:    1000000,
			SuccessDelay: 20 * time.Millisecond,
			FailureDelay: 20 * time.Millisecond,
		},
		FeeMin: 523,
		FeeMax: 523,
	}, 1)

	s := m.Get(testAccount)
	s.generateReference = func(accountID int) string {
		return "SKILR-TEST"
	}
	return s
}

func TestEnterAmountBounds(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(store, &fakeLedger{}, &fakeGateway{})

	err := s.EnterAmount(50)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, store.inserts)

	err = s.EnterAmount(1000001)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.EnterAmount(100))
	assert.Equal(t, StateAmountEntered, s.State())

	// Revising the amount before continuing is allowed.
	require.NoError(t, s.EnterAmount(5000))
	assert.Equal(t, 5000.0, s.Draft().BaseAmount)
}

func TestContinueComputesSummary(t *testing.T) {
	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})

	require.NoError(t, s.EnterAmount(5000))
	summary, err := s.Continue()
	require.NoError(t, err)

	assert.Equal(t, 200.0, summary.VAT)
	assert.Equal(t, 523.0, summary.TransactionFee)
	assert.Equal(t, 5723.0, summary.Total)
	assert.Equal(t, StateCheckout, s.State())

	_, err = s.Continue()
	assert.ErrorIs(t, errors.Cause(err), ErrInvalidState)
}

func TestBack(t *testing.T) {
	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})

	require.NoError(t, s.EnterAmount(5000))
	require.NoError(t, s.Back())
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Draft())

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	require.NoError(t, s.Back())
	assert.Equal(t, StateIdle, s.State())
}

func TestConfirmSuccessFlow(t *testing.T) {
	store := &fakeStore{}
	ledger := &fakeLedger{}
	gateway := &fakeGateway{}
	s := newTestSession(store, ledger, gateway)

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)

	handoff, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "SKILR-TEST", handoff.Reference)
	assert.Equal(t, StateProcessing, s.State())
	assert.Equal(t, "SKILR-TEST", s.Attempt())

	// The pending record holds the base amount; the widget charges the
	// total, in minor units.
	require.Len(t, store.inserts, 1)
	assert.Equal(t, insertCall{accountID: 7, amount: 5000, reference: "SKILR-TEST"}, store.inserts[0])
	require.Len(t, gateway.opened, 1)
	assert.Equal(t, int64(572300), gateway.opened[0].AmountMinor)
	assert.Equal(t, "ada@example.com", gateway.opened[0].Email)

	require.NoError(t, s.HandleSuccess("SKILR-TEST"))
	assert.Equal(t, StateSucceeded, s.State())
	assert.Nil(t, s.Draft())
	assert.Empty(t, s.Attempt())

	require.Len(t, store.updates, 1)
	assert.Equal(t, updateCall{paymentID: 1, status: models.PaymentStatusCompleted, reference: "SKILR-TEST"}, store.updates[0])
	assert.Equal(t, []float64{5000}, ledger.reductions)

	// The success banner clears itself.
	assert.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestConfirmClosedWidget(t *testing.T) {
	store := &fakeStore{}
	ledger := &fakeLedger{}
	s := newTestSession(store, ledger, &fakeGateway{})

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)

	require.NoError(t, s.HandleClose())
	assert.Equal(t, StateFailed, s.State())

	require.Len(t, store.updates, 1)
	assert.Equal(t, updateCall{paymentID: 1, status: models.PaymentStatusFailed, reference: ""}, store.updates[0])
	assert.Empty(t, ledger.reductions, "a failed payment never touches the balance")

	assert.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestConfirmStoreFailureIsRetryable(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}
	gateway := &fakeGateway{}
	s := newTestSession(store, &fakeLedger{}, gateway)

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)

	_, err = s.Confirm()
	require.Error(t, err)
	assert.Equal(t, StateCheckout, s.State(), "a failed record write keeps the checkout open")
	assert.Empty(t, gateway.opened, "the widget never opens without a backing record")

	store.mu.Lock()
	store.insertErr = nil
	store.mu.Unlock()

	_, err = s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, s.State())
}

func TestConfirmGatewayFailure(t *testing.T) {
	store := &fakeStore{}
	gateway := &fakeGateway{openErr: errors.New("timeout")}
	s := newTestSession(store, &fakeLedger{}, gateway)

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)

	_, err = s.Confirm()
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())

	require.Len(t, store.updates, 1)
	assert.Equal(t, models.PaymentStatusFailed, store.updates[0].status)
}

func TestConfirmWhileProcessing(t *testing.T) {
	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	err = s.Back()
	assert.ErrorIs(t, err, ErrAttemptInFlight)
}

func TestSuccessRequiresAttemptReference(t *testing.T) {
	store := &fakeStore{}
	ledger := &fakeLedger{}
	s := newTestSession(store, ledger, &fakeGateway{})

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)

	// A settled reference from some other invocation must not complete
	// this attempt.
	err = s.HandleSuccess("SKILR-9-1600000000")
	assert.ErrorIs(t, err, ErrReferenceMismatch)

	assert.Equal(t, StateProcessing, s.State(), "the attempt stays open for its own outcome")
	assert.Empty(t, store.updates)
	assert.Empty(t, ledger.reductions)

	// The attempt's own reference still resolves it.
	require.NoError(t, s.HandleSuccess("SKILR-TEST"))
	assert.Equal(t, StateSucceeded, s.State())
}

func TestOutcomeWithoutAttempt(t *testing.T) {
	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})

	assert.ErrorIs(t, s.HandleSuccess("SKILR-TEST"), ErrNoAttempt)
	assert.ErrorIs(t, s.HandleClose(), ErrNoAttempt)
}

func TestAcknowledgeDismissesBanner(t *testing.T) {
	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})
	s.cfg.SuccessDelay = time.Hour

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)
	require.NoError(t, s.HandleSuccess("SKILR-TEST"))

	require.Equal(t, StateSucceeded, s.State())
	require.NoError(t, s.Acknowledge())
	assert.Equal(t, StateIdle, s.State())

	assert.ErrorIs(t, errors.Cause(s.Acknowledge()), ErrInvalidState)
}

func TestFeeFixedAcrossAttempts(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(store, &fakeLedger{}, &fakeGateway{})
	s.cfg.FailureDelay = time.Hour

	fee := s.Fee()

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)
	require.NoError(t, s.HandleClose())
	require.NoError(t, s.Acknowledge())

	// Second attempt reuses the fee drawn at session creation.
	require.NoError(t, s.EnterAmount(9000))
	summary, err := s.Continue()
	require.NoError(t, err)
	assert.Equal(t, fee, summary.TransactionFee)
}

func TestNotifyFiresOnRecordWrites(t *testing.T) {
	var mu sync.Mutex
	var notified []int

	s := newTestSession(&fakeStore{}, &fakeLedger{}, &fakeGateway{})
	s.notify = func(accountID int) {
		mu.Lock()
		notified = append(notified, accountID)
		mu.Unlock()
	}

	require.NoError(t, s.EnterAmount(5000))
	_, err := s.Continue()
	require.NoError(t, err)
	_, err = s.Confirm()
	require.NoError(t, err)
	require.NoError(t, s.HandleSuccess("SKILR-TEST"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{7, 7}, notified, "one refresh per record write")
}
