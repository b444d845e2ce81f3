package stream

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"casino-monitor/src/helpers"
	"casino-monitor/src/models"
)

// Handle is one caller's reference to a subscription. Several handles may
// share a session; the session lives until the last one is closed.
type Handle struct {
	id      string
	session *Session
	valid   atomic.Bool

	mu        sync.RWMutex
	callbacks []func(models.MSubscriptionSnapshot)
}

func newHandle(s *Session) *Handle {
	h := &Handle{id: uuid.NewString(), session: s}
	h.valid.Store(true)
	return h
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) Subscription() models.MSubscription {
	return h.session.Sub
}

func (h *Handle) Key() string {
	return h.session.Sub.Key()
}

// Valid is false once the handle has been closed.
func (h *Handle) Valid() bool {
	return h.valid.Load()
}

// OnUpdate registers fn for every state change. Callbacks run on the
// session's dispatch goroutine and must not block or close the handle.
func (h *Handle) OnUpdate(fn func(models.MSubscriptionSnapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, fn)
}

func (h *Handle) deliver(snap models.MSubscriptionSnapshot) {
	if !h.Valid() {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.callbacks {
		if !h.Valid() {
			return
		}
		fn(snap)
	}
}

// silence drops the callbacks, waiting out a delivery in progress.
func (h *Handle) silence() {
	h.mu.Lock()
	h.callbacks = nil
	h.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (h *Handle) Snapshot() (models.MSubscriptionSnapshot, error) {
	if !h.Valid() {
		return models.MSubscriptionSnapshot{}, helpers.ErrSubscriptionClosed
	}
	return h.session.Snapshot(), nil
}

// History returns the ledger, oldest first.
func (h *Handle) History() []models.MHistoryEntry {
	if !h.Valid() {
		return nil
	}
	return h.session.ledger.Get()
}

func (h *Handle) Round() *models.MRoundState {
	if !h.Valid() {
		return nil
	}
	return h.session.store.Get()
}

func (h *Handle) Stats() *models.MDerivedStats {
	if !h.Valid() {
		return nil
	}
	return h.session.stats.Latest()
}

func (h *Handle) Prediction() *models.MPrediction {
	if !h.Valid() {
		return nil
	}
	return h.session.Snapshot().Prediction
}

// RequestHistory asks the server to resend the latest rounds.
func (h *Handle) RequestHistory() error {
	if !h.Valid() {
		return helpers.ErrSubscriptionClosed
	}
	return h.session.requestHistory()
}

// RequestPrediction asks the server for an immediate prediction update.
func (h *Handle) RequestPrediction() error {
	if !h.Valid() {
		return helpers.ErrSubscriptionClosed
	}
	return h.session.requestPrediction()
}
