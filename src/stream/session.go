package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"casino-monitor/src/analysis"
	"casino-monitor/src/history"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// Session owns everything one subscription needs: its transport, round
// store, ledger and stats engine. All mutation happens on the dispatch
// goroutine, in the order the transport delivered frames.
type Session struct {
	ID     string
	Sub    models.MSubscription
	Game   models.MGameConfig
	Logger *logger.Logger

	transport  interfaces.ITransport
	normalizer interfaces.INormalizer
	store      *RoundStore
	ledger     *history.Ledger
	stats      *analysis.StatsEngine
	finalized  chan<- models.MFinalizedRound
	broadcast  func(models.MSubscriptionSnapshot)

	mu           sync.RWMutex
	connectivity models.Connectivity
	prediction   *models.MPrediction
	status       *models.MServiceStatus
	handles      map[string]*Handle
	closed       bool

	closeOnce sync.Once
	done      chan struct{}
}

type sessionDeps struct {
	transport  interfaces.ITransport
	normalizer interfaces.INormalizer
	analysis   models.MAnalysisConfig
	finalized  chan<- models.MFinalizedRound
	broadcast  func(models.MSubscriptionSnapshot)
	logger     *logger.Logger
}

func newSession(sub models.MSubscription, game models.MGameConfig, deps sessionDeps) *Session {
	ledger := history.NewLedger(deps.analysis.HistoryCapacity)
	log := deps.logger
	if log == nil {
		log = logger.NewLogger(nil, "Session-"+sub.Key())
	}
	return &Session{
		ID:           uuid.NewString(),
		Sub:          sub,
		Game:         game,
		Logger:       log,
		transport:    deps.transport,
		normalizer:   deps.normalizer,
		store:        NewRoundStore(sub.Game),
		ledger:       ledger,
		stats:        analysis.NewStatsEngine(deps.analysis, sub.Game, ledger, log),
		finalized:    deps.finalized,
		broadcast:    deps.broadcast,
		connectivity: models.ConnConnecting,
		handles:      make(map[string]*Handle),
		done:         make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func (s *Session) start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport for %s: %w", s.Sub.Key(), err)
	}
	go s.dispatch()
	return nil
}

// Close sends a best-effort leave, stops the transport and waits for the
// dispatch goroutine, so no state changes after it returns.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.connectivity = models.ConnClosed
		s.prediction = nil
		s.mu.Unlock()

		if s.transport.Connected() && s.Game.LeaveEvent != "" {
			if err := s.transport.Emit(s.Game.LeaveEvent, s.identity(false)); err != nil {
				s.Logger.Debug("Leave for %s not sent: %v", s.Sub.Key(), err)
			}
		}
		if err := s.transport.Close(); err != nil {
			s.Logger.Warning("Closing transport for %s: %v", s.Sub.Key(), err)
		}
		<-s.done
		s.Logger.Info("Session %s for %s closed", s.ID, s.Sub.Key())
	})
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// -----------------------------------------------------------------------------

func (s *Session) attach(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[h.id] = h
}

// detach returns how many handles still reference the session.
func (s *Session) detach(h *Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, h.id)
	return len(s.handles)
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

func (s *Session) dispatch() {
	defer close(s.done)
	for f := range s.transport.Frames() {
		if s.isClosed() {
			continue
		}
		s.handleFrame(f)
	}
}

func (s *Session) handleFrame(f models.MFrame) {
	switch f.Kind {
	case models.FrameConnected:
		s.setConnectivity(models.ConnConnected)
		if err := s.transport.Emit(s.Game.JoinEvent, s.identity(true)); err != nil {
			s.Logger.Warning("Join %s failed: %v", s.Sub.Key(), err)
		}
		s.publish(nil)

	case models.FrameDisconnected:
		s.setConnectivity(models.ConnDisconnected)
		s.publish(s.notify("warning", fmt.Sprintf("Connection to %s lost: %v", s.Sub.Game, f.Err)))

	case models.FrameConnectError:
		s.setConnectivity(models.ConnDisconnected)
		s.publish(s.notify("error", fmt.Sprintf("Could not connect to %s: %v", s.Sub.Game, f.Err)))

	case models.FrameEvent:
		ev := s.normalizer.Normalize(s.Sub, f.Event, f.Payload)
		if ev == nil {
			s.Logger.Debug("Dropped %s event %q", s.Sub.Key(), f.Event)
			return
		}
		s.publish(s.apply(ev))
	}
}

// apply routes a canonical event to the store or ledger. It returns a
// notification when the event warrants one.
func (s *Session) apply(ev *models.MCanonicalEvent) *models.MNotification {
	switch ev.Kind {
	case models.EventLiveTick:
		s.store.ApplyTick(ev.Tick)

	case models.EventRoundSnapshot, models.EventRoundFinalized:
		if entry := s.store.ApplySnapshot(ev.Snapshot); entry != nil {
			s.record(*entry)
		}

	case models.EventHistoryBatch:
		s.ledger.ReplaceAll(ev.History)

	case models.EventPrediction:
		s.mu.Lock()
		s.prediction = ev.Prediction
		s.mu.Unlock()

	case models.EventServiceStatus:
		s.mu.Lock()
		s.status = ev.Status
		s.mu.Unlock()

	case models.EventJoinAck:
		ack := ev.JoinAck
		if ack.History != nil {
			s.ledger.ReplaceAll(ack.History)
		}
		if ack.Status != nil {
			s.mu.Lock()
			s.status = ack.Status
			s.mu.Unlock()
		}
		if !ack.Success {
			return s.notify("warning", fmt.Sprintf("Join of %s was not acknowledged", s.Sub.Key()))
		}
	}
	return nil
}

func (s *Session) record(entry models.MHistoryEntry) {
	if !s.ledger.Append(entry) {
		return
	}
	s.Logger.Debug("Round %s finalized for %s", entry.RoundID, s.Sub.Key())
	if s.finalized == nil {
		return
	}
	select {
	case s.finalized <- models.MFinalizedRound{Subscription: s.Sub, Entry: entry}:
	default:
		s.Logger.Warning("Finalized queue full, round %s not persisted", entry.RoundID)
	}
}

// -----------------------------------------------------------------------------

// identity is the payload of join, leave and request events.
func (s *Session) identity(withTarget bool) map[string]interface{} {
	field := s.Game.IDField
	if field == "" {
		field = "bookmakerId"
	}
	payload := map[string]interface{}{field: s.Sub.BookmakerID}
	if withTarget && s.Sub.SubKey != nil {
		payload["number"] = *s.Sub.SubKey
	}
	return payload
}

func (s *Session) setConnectivity(c models.Connectivity) {
	s.mu.Lock()
	s.connectivity = c
	s.mu.Unlock()
}

func (s *Session) notify(kind, msg string) *models.MNotification {
	s.Logger.Warning("%s", msg)
	return &models.MNotification{Type: kind, Message: msg, CreatedAt: time.Now()}
}

// publish hands the current snapshot to every live handle and the exchanger.
func (s *Session) publish(n *models.MNotification) {
	snap := s.Snapshot()
	snap.Notification = n

	s.mu.RLock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.RUnlock()

	for _, h := range handles {
		h.deliver(snap)
	}
	if s.broadcast != nil {
		s.broadcast(snap)
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Snapshot assembles a consistent-enough copy of the session state with
// history oldest first.
func (s *Session) Snapshot() models.MSubscriptionSnapshot {
	return s.snapshot(s.ledger.Get())
}

// NewestSnapshot is Snapshot with history newest first.
func (s *Session) NewestSnapshot() models.MSubscriptionSnapshot {
	return s.snapshot(s.ledger.Newest())
}

func (s *Session) snapshot(history []models.MHistoryEntry) models.MSubscriptionSnapshot {
	s.mu.RLock()
	conn := s.connectivity
	pred := s.prediction
	status := s.status
	s.mu.RUnlock()

	snap := models.MSubscriptionSnapshot{
		Type:         "UPDATE",
		Key:          s.Sub.Key(),
		Subscription: s.Sub,
		Connectivity: conn,
		Round:        s.store.Get(),
		History:      history,
		Stats:        s.stats.Latest(),
		Timestamp:    time.Now().UnixMilli(),
	}
	if pred != nil {
		p := *pred
		snap.Prediction = &p
	}
	if status != nil {
		st := *status
		snap.ServiceStatus = &st
	}
	return snap
}

func (s *Session) Connectivity() models.Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

// -----------------------------------------------------------------------------
// Outbound requests
// -----------------------------------------------------------------------------

func (s *Session) requestHistory() error {
	if s.Game.HistoryRequest == "" {
		return fmt.Errorf("no history request configured for %s", s.Sub.Game)
	}
	return s.transport.Emit(s.Game.HistoryRequest, s.identity(false))
}

func (s *Session) requestPrediction() error {
	if s.Game.UpdateRequest == "" {
		return fmt.Errorf("no update request configured for %s", s.Sub.Game)
	}
	return s.transport.Emit(s.Game.UpdateRequest, s.identity(true))
}
