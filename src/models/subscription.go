package models

import (
	"fmt"
	"strconv"
	"strings"
)

// GameKind identifies which family of feed a subscription follows.
type GameKind string

const (
	GameAviator  GameKind = "aviator"
	GameSpaceman GameKind = "spaceman"
	GameRoulette GameKind = "roulette"
)

// IsCrash reports whether the game settles on a multiplier.
func (g GameKind) IsCrash() bool {
	return g == GameAviator || g == GameSpaceman
}

func (g GameKind) Valid() bool {
	return g.IsCrash() || g == GameRoulette
}

// -----------------------------------------------------------------------------

// MSubscription is the unit of isolation: one game feed of one bookmaker,
// optionally narrowed by a roulette target number.
type MSubscription struct {
	Game        GameKind `json:"game"`
	BookmakerID int      `json:"bookmakerId"`
	SubKey      *int     `json:"subKey,omitempty"`
}

// Key renders the subscription as game:bookmaker[:subKey].
func (s MSubscription) Key() string {
	if s.SubKey != nil {
		return fmt.Sprintf("%s:%d:%d", s.Game, s.BookmakerID, *s.SubKey)
	}
	return fmt.Sprintf("%s:%d", s.Game, s.BookmakerID)
}

func (s MSubscription) Validate() error {
	if !s.Game.Valid() {
		return fmt.Errorf("unknown game kind %q", s.Game)
	}
	if s.BookmakerID <= 0 {
		return fmt.Errorf("bookmaker id must be positive, got %d", s.BookmakerID)
	}
	if s.SubKey != nil {
		if s.Game != GameRoulette {
			return fmt.Errorf("sub key is only valid for roulette subscriptions")
		}
		if *s.SubKey < 0 || *s.SubKey > 36 {
			return fmt.Errorf("roulette target number out of range: %d", *s.SubKey)
		}
	}
	return nil
}

// ParseSubscriptionKey is the inverse of Key.
func ParseSubscriptionKey(key string) (MSubscription, error) {
	parts := strings.Split(key, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return MSubscription{}, fmt.Errorf("malformed subscription key %q", key)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return MSubscription{}, fmt.Errorf("malformed bookmaker id in %q: %w", key, err)
	}
	sub := MSubscription{Game: GameKind(parts[0]), BookmakerID: id}
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return MSubscription{}, fmt.Errorf("malformed sub key in %q: %w", key, err)
		}
		sub.SubKey = &n
	}
	return sub, sub.Validate()
}
