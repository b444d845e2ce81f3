package stream

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/normalizer"
)

const (
	finalizedQueueSize = 1024
	persistRetries     = 3
)

// TransportFactory builds the transport for a subscription's namespace.
type TransportFactory func(sub models.MSubscription, game models.MGameConfig) interfaces.ITransport

// ManagerStatus is a point-in-time count for health endpoints.
type ManagerStatus struct {
	Sessions int `json:"sessions"`
	Handles  int `json:"handles"`
	Pending  int `json:"pendingRounds"`
	Errors   int `json:"persistErrors"`
}

// -----------------------------------------------------------------------------
// Manager
// -----------------------------------------------------------------------------

// Manager opens and closes subscriptions, sharing one session per
// subscription key among all handles.
type Manager struct {
	Config *models.MConfig
	Logger *logger.Logger

	creds        interfaces.ICredentials
	registry     *normalizer.Registry
	newTransport TransportFactory
	archive      interfaces.IHistoryArchive
	publisher    interfaces.IRoundPublisher
	exchanger    interfaces.IDataExchanger
	errHandler   *helpers.ErrorHandler

	mu        sync.Mutex
	sessions  map[string]*Session
	handles   map[string]*Handle
	closing   map[string]chan struct{}
	closed    bool
	errCount  int
	finalized chan models.MFinalizedRound

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager starts the finalized-round worker right away.
func NewManager(cfg *models.MConfig, creds interfaces.ICredentials, registry *normalizer.Registry, factory TransportFactory, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewLogger(cfg, "ConnectionManager")
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		Config:       cfg,
		Logger:       log,
		creds:        creds,
		registry:     registry,
		newTransport: factory,
		errHandler:   helpers.NewErrorHandler(log.Named("ErrorHandler")),
		sessions:     make(map[string]*Session),
		handles:      make(map[string]*Handle),
		closing:      make(map[string]chan struct{}),
		finalized:    make(chan models.MFinalizedRound, finalizedQueueSize),
		ctx:          ctx,
		cancel:       cancel,
	}
	m.wg.Add(1)
	go m.persistLoop()
	return m
}

// SetArchive, SetPublisher and SetExchanger must be called before Open.
func (m *Manager) SetArchive(a interfaces.IHistoryArchive) {
	m.archive = a
}

func (m *Manager) SetPublisher(p interfaces.IRoundPublisher) {
	m.publisher = p
}

func (m *Manager) SetExchanger(x interfaces.IDataExchanger) {
	m.exchanger = x
}

// SetRetryDelay tunes the pause between persistence retries.
func (m *Manager) SetRetryDelay(d time.Duration) {
	m.errHandler.BaseDelay = d
}

// -----------------------------------------------------------------------------
// Open / Close
// -----------------------------------------------------------------------------

// Open returns a new handle on sub, starting its session if none is running.
// A session still being torn down is waited out before a new one starts.
func (m *Manager) Open(ctx context.Context, sub models.MSubscription) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		return nil, helpers.NewValidationError("invalid subscription", err)
	}
	if _, err := m.creds.Token(); err != nil {
		return nil, err
	}

	key := sub.Key()
	m.mu.Lock()
	for {
		if m.closed {
			m.mu.Unlock()
			return nil, helpers.ErrSubscriptionClosed
		}
		wait, busy := m.closing[key]
		if !busy {
			break
		}
		m.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		var err error
		if s, err = m.startSession(sub); err != nil {
			return nil, err
		}
		m.sessions[key] = s
	}

	h := newHandle(s)
	s.attach(h)
	m.handles[h.id] = h
	m.Logger.Info("Opened handle %s on %s (%d handles)", h.id, key, len(m.handles))
	return h, nil
}

func (m *Manager) startSession(sub models.MSubscription) (*Session, error) {
	n, err := m.registry.Get(sub.Game)
	if err != nil {
		return nil, err
	}
	game, ok := m.Config.Games[string(sub.Game)]
	if !ok {
		return nil, fmt.Errorf("%w: no event table for %s", helpers.ErrUnknownGame, sub.Game)
	}

	deps := sessionDeps{
		transport:  m.newTransport(sub, game),
		normalizer: n,
		analysis:   m.Config.Analysis,
		finalized:  m.finalized,
		logger:     m.Logger.Named("Session-" + sub.Key()),
	}
	if m.exchanger != nil {
		deps.broadcast = m.exchanger.Broadcast
	}
	s := newSession(sub, game, deps)

	if m.archive != nil {
		entries, err := m.archive.LoadRecent(sub, s.ledger.Capacity())
		if err != nil {
			m.Logger.Warning("Warm start for %s failed: %v", sub.Key(), err)
		} else if len(entries) > 0 {
			s.ledger.ReplaceAll(entries)
			m.Logger.Info("Warm start for %s loaded %d rounds", sub.Key(), len(entries))
		}
	}

	if err := s.start(m.ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close invalidates h. The session is torn down with its last handle.
// Closing twice is a no-op.
func (m *Manager) Close(h *Handle) error {
	if h == nil || !h.valid.CompareAndSwap(true, false) {
		return nil
	}
	h.silence()

	m.mu.Lock()
	delete(m.handles, h.id)
	key := h.Key()
	var teardown *Session
	var done chan struct{}
	if h.session.detach(h) == 0 && m.sessions[key] == h.session {
		delete(m.sessions, key)
		teardown = h.session
		done = make(chan struct{})
		m.closing[key] = done
	}
	m.mu.Unlock()

	if teardown == nil {
		return nil
	}
	teardown.Close()
	if m.exchanger != nil {
		m.exchanger.Forget(key)
	}
	m.mu.Lock()
	delete(m.closing, key)
	m.mu.Unlock()
	close(done)
	return nil
}

// CloseKey closes every handle on a subscription key and reports how many.
func (m *Manager) CloseKey(key string) int {
	m.mu.Lock()
	var targets []*Handle
	for _, h := range m.handles {
		if h.Key() == key {
			targets = append(targets, h)
		}
	}
	m.mu.Unlock()

	for _, h := range targets {
		m.Close(h)
	}
	return len(targets)
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// Handle returns any open handle on key.
func (m *Manager) Handle(key string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.handles {
		if h.Key() == key {
			return h, true
		}
	}
	return nil, false
}

// Keys lists the running subscriptions in key order.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) Snapshot(key string) (models.MSubscriptionSnapshot, bool) {
	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return models.MSubscriptionSnapshot{}, false
	}
	return s.Snapshot(), true
}

// NewestSnapshot is Snapshot with history newest first.
func (m *Manager) NewestSnapshot(key string) (models.MSubscriptionSnapshot, bool) {
	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return models.MSubscriptionSnapshot{}, false
	}
	return s.NewestSnapshot(), true
}

// Snapshots returns one snapshot per running subscription, in key order.
func (m *Manager) Snapshots() []models.MSubscriptionSnapshot {
	out := make([]models.MSubscriptionSnapshot, 0)
	for _, k := range m.Keys() {
		if snap, ok := m.Snapshot(k); ok {
			out = append(out, snap)
		}
	}
	return out
}

func (m *Manager) Status() ManagerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStatus{
		Sessions: len(m.sessions),
		Handles:  len(m.handles),
		Pending:  len(m.finalized),
		Errors:   m.errCount,
	}
}

// -----------------------------------------------------------------------------
// Shutdown
// -----------------------------------------------------------------------------

// Shutdown closes every handle, then drains the persistence queue.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		m.Close(h)
	}
	m.cancel()
	m.wg.Wait()
	m.Logger.Info("Connection manager stopped")
}

// -----------------------------------------------------------------------------
// Persistence
// -----------------------------------------------------------------------------

func (m *Manager) persistLoop() {
	defer m.wg.Done()
	for {
		select {
		case r := <-m.finalized:
			m.persist(r)
		case <-m.ctx.Done():
			for {
				select {
				case r := <-m.finalized:
					m.persist(r)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) persist(r models.MFinalizedRound) {
	if m.archive != nil {
		err := m.errHandler.ExecuteWithRetry("archive round "+r.Entry.RoundID, func() error {
			return m.archive.SaveRound(r)
		}, persistRetries)
		if err != nil {
			m.countError()
		}
	}
	if m.publisher != nil {
		err := m.errHandler.ExecuteWithRetry("publish round "+r.Entry.RoundID, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return m.publisher.Publish(ctx, r)
		}, persistRetries)
		if err != nil {
			m.countError()
		}
	}
}

func (m *Manager) countError() {
	m.mu.Lock()
	m.errCount++
	m.mu.Unlock()
}
