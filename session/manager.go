package session

import (
	"math/rand"
	"sync"

	"bitbucket.org/skilr/backend/models"
)

// ManagerConfig extends the session knobs with the fee range the
// per-session transaction fee is drawn from: [FeeMin, FeeMax).
type ManagerConfig struct {
	Config

	FeeMin int
	FeeMax int
}

// Manager owns one Session per signed-in account. The transaction fee is
// drawn once when the session is created and held for the dashboard's
// lifetime; the rand source is injected so tests are reproducible.
type Manager struct {
	mu       sync.Mutex
	sessions map[int]*Session
	rng      *rand.Rand

	cfg     ManagerConfig
	store   PaymentStore
	ledger  Ledger
	gateway CheckoutGateway
	notify  func(accountID int)
}

func NewManager(store PaymentStore, ledger Ledger, gateway CheckoutGateway, cfg ManagerConfig, seed int64) *Manager {
	return &Manager{
		sessions: make(map[int]*Session),
		rng:      rand.New(rand.NewSource(seed)),
		cfg:      cfg,
		store:    store,
		ledger:   ledger,
		gateway:  gateway,
	}
}

// SetNotify installs the hook fired after every payment-record write so
// snapshot subscribers refresh.
func (m *Manager) SetNotify(notify func(accountID int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = notify
	for _, s := range m.sessions {
		s.mu.Lock()
		s.notify = notify
		s.mu.Unlock()
	}
}

// Get returns the account's session, creating it on first use. The
// account snapshot is refreshed on every call so a profile update
// reaches the next checkout's contact fields.
func (m *Manager) Get(account models.Account) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[account.ID]
	if !ok {
		s = &Session{
			account:           account,
			fee:               m.drawFee(),
			cfg:               m.cfg.Config,
			store:             m.store,
			ledger:            m.ledger,
			gateway:           m.gateway,
			notify:            m.notify,
			generateReference: defaultGenerateReference,
			state:             StateIdle,
		}
		m.sessions[account.ID] = s
		return s
	}

	s.mu.Lock()
	s.account = account
	s.mu.Unlock()
	return s
}

// Lookup returns the session only if it already exists.
func (m *Manager) Lookup(accountID int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[accountID]
}

// Remove tears the session down on logout, stopping its timers.
func (m *Manager) Remove(accountID int) {
	m.mu.Lock()
	s, ok := m.sessions[accountID]
	if ok {
		delete(m.sessions, accountID)
	}
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (m *Manager) drawFee() float64 {
	if m.cfg.FeeMax <= m.cfg.FeeMin {
		return float64(m.cfg.FeeMin)
	}
	return float64(m.cfg.FeeMin + m.rng.Intn(m.cfg.FeeMax-m.cfg.FeeMin))
}
