package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bps/internal/game"
)

const (
	EVENTS_CHANNEL    = "bps:events"
	GAME_KEY_PREFIX   = "bps:game:"
	GAME_SNAPSHOT_TTL = 24 * time.Hour
)

// Publisher fans game events out over Redis pub/sub and keeps a snapshot
// of the latest record per game, so other instances and late readers see
// transitions without hitting the database.
type Publisher struct {
	client *redis.Client
}

// NewPublisher returns nil when the cache service is unavailable; callers
// treat a nil Publisher as no-op wiring.
func NewPublisher(svc Service) *Publisher {
	if svc == nil {
		return nil
	}
	return &Publisher{client: svc.GetClient()}
}

// Notify implements game.Notifier. Publishing is best effort: a Redis
// failure is logged and never fails the transition that produced the event.
func (p *Publisher) Notify(ev game.Event) {
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[CACHE] Event marshal error: %v", err)
		return
	}

	if err := p.client.Publish(ctx, EVENTS_CHANNEL, payload).Err(); err != nil {
		log.Printf("[CACHE] Publish error: %v", err)
	}

	key := GAME_KEY_PREFIX + ev.Creator + "/" + ev.GameID
	if ev.Type == game.EventGameCancelled || ev.Type == game.EventGameUnwound {
		// The record is gone; drop the snapshot with it.
		if err := p.client.Del(ctx, key).Err(); err != nil {
			log.Printf("[CACHE] Snapshot delete error for %s: %v", key, err)
		}
		return
	}
	if ev.Game == nil {
		return
	}
	snapshot, err := json.Marshal(ev.Game)
	if err != nil {
		log.Printf("[CACHE] Snapshot marshal error: %v", err)
		return
	}
	if err := p.client.Set(ctx, key, snapshot, GAME_SNAPSHOT_TTL).Err(); err != nil {
		log.Printf("[CACHE] Snapshot write error for %s: %v", key, err)
	}
}

// GetSnapshot reads the cached record for a game, if one exists.
func (p *Publisher) GetSnapshot(ctx context.Context, creator, gameID string) (*game.Game, error) {
	if p == nil {
		return nil, redis.Nil
	}
	data, err := p.client.Get(ctx, GAME_KEY_PREFIX+creator+"/"+gameID).Bytes()
	if err != nil {
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
