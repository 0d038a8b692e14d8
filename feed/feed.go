// Package feed mirrors the payment-record list for an account into live
// subscribers. Every change delivers the full, newest-first list again;
// consumers replace, never merge.
package feed

import (
	"sync"

	"bitbucket.org/skilr/backend/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Fetcher materializes the complete snapshot for an account.
type Fetcher func(accountID int) ([]models.Payment, error)

type subscriber struct {
	ch chan []models.Payment
}

type Hub struct {
	mu          sync.Mutex
	fetch       Fetcher
	subscribers map[int]map[int]*subscriber
	nextID      int
	closed      bool
}

func New(fetch Fetcher) *Hub {
	return &Hub{
		fetch:       fetch,
		subscribers: make(map[int]map[int]*subscriber),
	}
}

// Subscribe opens a snapshot stream for the account. The current
// snapshot is delivered immediately; zero records is an empty list, not
// an error. The returned cancel func closes the stream and is safe to
// call more than once.
func (h *Hub) Subscribe(accountID int) (<-chan []models.Payment, func(), error) {
	snapshot, err := h.fetch(accountID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed fetching payment snapshot")
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, nil, errors.New("feed closed")
	}

	h.nextID++
	id := h.nextID

	sub := &subscriber{
		// Buffer of one: a slow consumer only ever sees the latest
		// snapshot, stale intermediates are dropped.
		ch: make(chan []models.Payment, 1),
	}
	if _, ok := h.subscribers[accountID]; !ok {
		h.subscribers[accountID] = make(map[int]*subscriber)
	}
	h.subscribers[accountID][id] = sub
	sub.ch <- snapshot
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[accountID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subscribers, accountID)
				}
			}
			close(sub.ch)
		})
	}

	return sub.ch, cancel, nil
}

// Notify re-materializes the account's snapshot and fans it out. Fetch
// failures are logged and the previous snapshot stands.
func (h *Hub) Notify(accountID int) {
	h.mu.Lock()
	idle := len(h.subscribers[accountID]) == 0
	h.mu.Unlock()
	if idle {
		return
	}

	snapshot, err := h.fetch(accountID)
	if err != nil {
		log.WithFields(log.Fields{
			"account_id": accountID,
			"error":      err,
		}).Error("failed refreshing payment snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers[accountID] {
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

// Close drops every subscriber. New subscriptions fail afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for accountID, subs := range h.subscribers {
		for id, sub := range subs {
			close(sub.ch)
			delete(subs, id)
		}
		delete(h.subscribers, accountID)
	}
}
