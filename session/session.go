package session

import (
	"sync"
	"time"

	"bitbucket.org/skilr/backend/db"
	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State of a payment session. One session walks a user from amount entry
// through the hosted-checkout handoff and back.
type State int

const (
	StateIdle State = iota
	StateAmountEntered
	StateCheckout
	StateProcessing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAmountEntered:
		return "amount_entered"
	case StateCheckout:
		return "checkout"
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	ErrInvalidAmount     = errors.New("amount out of bounds")
	ErrInvalidState      = errors.New("invalid state for transition")
	ErrAttemptInFlight   = errors.New("checkout attempt already in flight")
	ErrNoAttempt         = errors.New("no checkout attempt in flight")
	ErrReferenceMismatch = errors.New("reference does not match the attempt in flight")
)

// PaymentStore is the slice of the record store the session drives.
type PaymentStore interface {
	InsertPendingPayment(accountID int, amount float64, reference string) (int, error)
	UpdatePaymentStatus(paymentID int, status string, finalReference string) error
}

// Ledger applies the uncleared-balance reduction after a completed
// payment. Best-effort from the session's point of view.
type Ledger interface {
	ReduceUnclearedAmount(accountID int, amount float64) error
}

// CheckoutGateway opens one hosted-widget session for an attempt and
// returns the handoff the client follows. The gateway reports back
// through exactly one of HandleSuccess or HandleClose.
type CheckoutGateway interface {
	Open(config CheckoutConfig) (*Handoff, error)
}

type CheckoutConfig struct {
	Email       string
	Firstname   string
	Lastname    string
	Phone       string
	AmountMinor int64
	Reference   string
}

type Handoff struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference"`
}

// Config carries the product knobs. Delays are configuration so tests
// run with millisecond banners.
type Config struct {
	VATRate      float64
	MinAmount    float64
	MaxAmount    float64
	SuccessDelay time.Duration
	FailureDelay time.Duration
}

// Session is the per-account payment state machine. All methods are safe
// for concurrent use: user actions arrive from handlers while terminal
// callbacks arrive from the gateway's callback route.
type Session struct {
	mu sync.Mutex

	account models.Account
	fee     float64
	cfg     Config

	store   PaymentStore
	ledger  Ledger
	gateway CheckoutGateway

	// notify pushes a payment-list refresh to subscribers after every
	// record write. Optional.
	notify func(accountID int)

	// generateReference is swappable in tests; defaults to the
	// time-based store reference.
	generateReference func(accountID int) string

	state     State
	draft     *models.CheckoutSummary
	pendingID int
	attempt   string

	bannerTimer *time.Timer
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fee returns the transaction fee drawn when the session was created.
// Fixed for the session's lifetime: repeated checkout attempts reuse it.
func (s *Session) Fee() float64 {
	return s.fee
}

// Attempt returns the store reference of the checkout attempt in
// flight, or the empty string when no attempt is open.
func (s *Session) Attempt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *Session) Draft() *models.CheckoutSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	draft := *s.draft
	return &draft
}

// EnterAmount validates the base amount and moves Idle to AmountEntered.
// An out-of-bounds amount is not an error banner on the dashboard, just
// a disabled continue control, so the state is left untouched.
func (s *Session) EnterAmount(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle && s.state != StateAmountEntered {
		return errors.Wrapf(ErrInvalidState, "enter amount in %s", s.state)
	}

	if amount < s.cfg.MinAmount || amount > s.cfg.MaxAmount {
		return ErrInvalidAmount
	}

	s.state = StateAmountEntered
	s.draft = &models.CheckoutSummary{BaseAmount: amount}
	return nil
}

// Continue computes the checkout summary from the held amount and the
// session fee and moves to Checkout.
func (s *Session) Continue() (*models.CheckoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAmountEntered {
		return nil, errors.Wrapf(ErrInvalidState, "continue in %s", s.state)
	}

	summary := Summarize(s.draft.BaseAmount, s.cfg.VATRate, s.fee)
	s.draft = &summary
	s.state = StateCheckout

	out := summary
	return &out, nil
}

// Back discards the draft and returns to Idle. Allowed from
// AmountEntered and Checkout only; an attempt in flight cannot be
// abandoned from this side.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAmountEntered, StateCheckout:
		s.draft = nil
		s.state = StateIdle
		return nil
	case StateProcessing:
		return ErrAttemptInFlight
	default:
		return errors.Wrapf(ErrInvalidState, "back in %s", s.state)
	}
}

// Confirm creates the Pending record and opens the hosted widget. The
// record write happens first: a widget session without a backing record
// cannot be reconciled. If the write fails the session stays in Checkout
// and the user retries by confirming again; the widget is never opened.
func (s *Session) Confirm() (*Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateProcessing {
		return nil, ErrAttemptInFlight
	}
	if s.state != StateCheckout {
		return nil, errors.Wrapf(ErrInvalidState, "confirm in %s", s.state)
	}

	reference := s.generateReference(s.account.ID)

	pendingID, err := s.store.InsertPendingPayment(s.account.ID, s.draft.BaseAmount, reference)
	if err != nil {
		return nil, errors.Wrap(err, "failed inserting pending payment")
	}

	s.pendingID = pendingID
	s.attempt = reference
	s.state = StateProcessing
	s.notifyPayments()

	handoff, err := s.gateway.Open(CheckoutConfig{
		Email:       s.account.Email,
		Firstname:   s.account.Firstname,
		Lastname:    s.account.Lastname,
		Phone:       s.account.Phone,
		AmountMinor: ToMinorUnits(s.draft.Total),
		Reference:   reference,
	})
	if err != nil {
		// No widget session was started, so the attempt resolves the
		// way an unknown widget failure does.
		s.closeLocked()
		return nil, errors.Wrap(err, "failed opening checkout")
	}

	return handoff, nil
}

// HandleSuccess is the widget's success callback. The record moves to
// Completed with the processor's reference, the uncleared balance is
// reduced and the draft is cleared. Store failures here are logged, not
// surfaced: the user-visible outcome reflects the processor, persistence
// is best-effort.
//
// The reference must be the one handed to the widget when the attempt
// opened. Any other reference, settled or not, belongs to a different
// invocation and cannot complete this attempt; the attempt stays open
// for its own outcome.
func (s *Session) HandleSuccess(finalReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateProcessing {
		return ErrNoAttempt
	}

	if finalReference != s.attempt {
		return errors.Wrapf(ErrReferenceMismatch, "got %s, attempt is %s", finalReference, s.attempt)
	}

	amount := s.draft.BaseAmount

	if err := s.store.UpdatePaymentStatus(s.pendingID, models.PaymentStatusCompleted, finalReference); err != nil {
		log.WithFields(log.Fields{
			"account_id": s.account.ID,
			"payment_id": s.pendingID,
			"error":      err,
		}).Error("failed completing payment record")
	}

	if s.ledger != nil {
		if err := s.ledger.ReduceUnclearedAmount(s.account.ID, amount); err != nil {
			log.WithFields(log.Fields{
				"account_id": s.account.ID,
				"error":      err,
			}).Error("failed reducing uncleared amount")
		}
	}

	s.draft = nil
	s.pendingID = 0
	s.attempt = ""
	s.enterBannerLocked(StateSucceeded, s.cfg.SuccessDelay)
	s.notifyPayments()

	return nil
}

// HandleClose is the widget's close callback, covering both user cancel
// and unknown failure; the two are indistinguishable.
func (s *Session) HandleClose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateProcessing {
		return ErrNoAttempt
	}

	s.closeLocked()
	return nil
}

func (s *Session) closeLocked() {
	if err := s.store.UpdatePaymentStatus(s.pendingID, models.PaymentStatusFailed, ""); err != nil {
		log.WithFields(log.Fields{
			"account_id": s.account.ID,
			"payment_id": s.pendingID,
			"error":      err,
		}).Error("failed marking payment record failed")
	}

	s.draft = nil
	s.pendingID = 0
	s.attempt = ""
	s.enterBannerLocked(StateFailed, s.cfg.FailureDelay)
	s.notifyPayments()
}

// Acknowledge dismisses a success or failure banner before its timer
// fires and returns the session to Idle.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSucceeded && s.state != StateFailed {
		return errors.Wrapf(ErrInvalidState, "acknowledge in %s", s.state)
	}

	s.stopBannerLocked()
	s.state = StateIdle
	return nil
}

// Close stops the banner timer so it cannot fire after the session is
// gone. Called on logout.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBannerLocked()
}

func (s *Session) enterBannerLocked(state State, delay time.Duration) {
	s.stopBannerLocked()
	s.state = state

	s.bannerTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == state {
			s.state = StateIdle
			s.bannerTimer = nil
		}
	})
}

func (s *Session) stopBannerLocked() {
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
}

func (s *Session) notifyPayments() {
	if s.notify != nil {
		s.notify(s.account.ID)
	}
}

var defaultGenerateReference = db.GenerateCheckoutReference
