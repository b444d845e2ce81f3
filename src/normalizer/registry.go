package normalizer

import (
	"fmt"
	"sort"
	"sync"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/models"
)

// Registry holds one normalizer per game kind.
type Registry struct {
	mu          sync.RWMutex
	normalizers map[models.GameKind]interfaces.INormalizer
}

func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[models.GameKind]interfaces.INormalizer)}
}

// NewRegistryFromGames registers an Adapter for every known game in games.
func NewRegistryFromGames(games map[string]models.MGameConfig) *Registry {
	r := NewRegistry()
	for name, cfg := range games {
		kind := models.GameKind(name)
		if kind.Valid() {
			r.Register(NewAdapter(kind, cfg))
		}
	}
	return r
}

// Register replaces any normalizer already serving the same game.
func (r *Registry) Register(n interfaces.INormalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalizers[n.Game()] = n
}

func (r *Registry) Get(game models.GameKind) (interfaces.INormalizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.normalizers[game]
	if !ok {
		return nil, fmt.Errorf("%w: %s", helpers.ErrUnknownGame, game)
	}
	return n, nil
}

// Games lists registered kinds in name order.
func (r *Registry) Games() []models.GameKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.GameKind, 0, len(r.normalizers))
	for g := range r.normalizers {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.normalizers)
}
