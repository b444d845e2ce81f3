// Package publisher fans finalized rounds out to Redis streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"casino-monitor/src/models"
)

// StreamPublisher appends finalized rounds to one stream per game.
type StreamPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
}

// NewStreamPublisher accepts a redis:// URL or a bare host:port.
func NewStreamPublisher(cfg models.MRedisConfig) (*StreamPublisher, error) {
	var opts *redis.Options
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}
	return &StreamPublisher{
		client: redis.NewClient(opts),
		prefix: cfg.StreamPrefix,
		maxLen: cfg.MaxLen,
	}, nil
}

// Ping checks the connection at startup.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// StreamKey returns the stream a game's rounds go to.
func (p *StreamPublisher) StreamKey(game models.GameKind) string {
	if p.prefix == "" {
		return string(game)
	}
	return fmt.Sprintf("%s.%s", p.prefix, game)
}

// -----------------------------------------------------------------------------

// Publish appends one round, trimming the stream to roughly maxLen entries.
func (p *StreamPublisher) Publish(ctx context.Context, round models.MFinalizedRound) error {
	values, err := streamValues(round)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: p.StreamKey(round.Subscription.Game),
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing round %s: %w", round.Entry.RoundID, err)
	}
	return nil
}

func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

// -----------------------------------------------------------------------------

func streamValues(round models.MFinalizedRound) (map[string]interface{}, error) {
	data, err := json.Marshal(round)
	if err != nil {
		return nil, fmt.Errorf("marshaling round: %w", err)
	}
	return map[string]interface{}{
		"data":         string(data),
		"sub_key":      round.Subscription.Key(),
		"bookmaker_id": round.Subscription.BookmakerID,
		"round_id":     round.Entry.RoundID,
	}, nil
}
