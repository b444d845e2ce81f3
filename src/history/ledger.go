// Package history keeps the bounded, de-duplicated record of finalized rounds
// for one subscription.
package history

import (
	"sync"

	"casino-monitor/src/models"
	"casino-monitor/src/utils"
)

// Observer is notified after every mutation with the new version.
type Observer func(version uint64)

// Ledger is a ring buffer plus a round-id set. Every id in the buffer is in
// the set and vice versa.
type Ledger struct {
	mu        sync.RWMutex
	buf       *utils.RingBuffer
	seen      map[string]struct{}
	version   uint64
	observers []Observer
}

// NewLedger creates a ledger holding at most capacity entries.
func NewLedger(capacity int) *Ledger {
	return &Ledger{
		buf:  utils.NewRingBuffer(capacity),
		seen: make(map[string]struct{}, capacity),
	}
}

// -----------------------------------------------------------------------------

// Append adds entry unless its round id is already present. It returns true
// when the ledger changed.
func (l *Ledger) Append(entry models.MHistoryEntry) bool {
	if entry.RoundID == "" {
		return false
	}

	l.mu.Lock()
	if _, dup := l.seen[entry.RoundID]; dup {
		l.mu.Unlock()
		return false
	}
	if old, evicted := l.buf.Append(entry); evicted {
		delete(l.seen, old.RoundID)
	}
	l.seen[entry.RoundID] = struct{}{}
	l.version++
	v, obs := l.version, l.observers
	l.mu.Unlock()

	notify(obs, v)
	return true
}

// -----------------------------------------------------------------------------

// ReplaceAll discards the ledger and loads entries (oldest first). Entries
// without a round id and repeated ids are skipped; only the newest capacity
// survivors are kept.
func (l *Ledger) ReplaceAll(entries []models.MHistoryEntry) {
	unique := make([]models.MHistoryEntry, 0, len(entries))
	batchSeen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.RoundID == "" {
			continue
		}
		if _, dup := batchSeen[e.RoundID]; dup {
			continue
		}
		batchSeen[e.RoundID] = struct{}{}
		unique = append(unique, e)
	}

	l.mu.Lock()
	if over := len(unique) - l.buf.Capacity(); over > 0 {
		unique = unique[over:]
	}
	l.buf.Clear()
	l.seen = make(map[string]struct{}, l.buf.Capacity())
	for _, e := range unique {
		l.buf.Append(e)
		l.seen[e.RoundID] = struct{}{}
	}
	l.version++
	v, obs := l.version, l.observers
	l.mu.Unlock()

	notify(obs, v)
}

// -----------------------------------------------------------------------------

// Get returns a copy of the ledger, oldest first.
func (l *Ledger) Get() []models.MHistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.GetAll()
}

// Newest returns a copy of the ledger, newest first.
func (l *Ledger) Newest() []models.MHistoryEntry {
	all := l.Get()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// Latest returns the n newest entries, oldest first.
func (l *Ledger) Latest(n int) []models.MHistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.GetLatest(n)
}

// Snapshot returns the entries together with the version they belong to.
func (l *Ledger) Snapshot() ([]models.MHistoryEntry, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.GetAll(), l.version
}

func (l *Ledger) Contains(roundID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[roundID]
	return ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.Size()
}

func (l *Ledger) Capacity() int {
	return l.buf.Capacity()
}

// Version increases by one on every mutation.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// -----------------------------------------------------------------------------

// Subscribe registers fn to run after each mutation, on the mutating goroutine.
func (l *Ledger) Subscribe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

func notify(observers []Observer, version uint64) {
	for _, fn := range observers {
		fn(version)
	}
}
