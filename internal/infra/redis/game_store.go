package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

// GameStore is a Redis-aware implementation of app.GameStore.
// Notes:
//   - It still keeps a local in-memory map of games to reuse the in-process
//     game state and broadcast logic.
//   - Redis holds the PIN claim (SETNX, so two instances cannot hand out the
//     same join code), a session liveness marker, and a ZSET mirror of each
//     game's leaderboard fed from the game's own event stream.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	lb     *LeaderboardCache

	mu    sync.RWMutex
	games map[string]*app.Game
	byPIN map[string]string
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		lb:     NewLeaderboardCache(client),
		games:  make(map[string]*app.Game),
		byPIN:  make(map[string]string),
	}
}

// Leaderboards exposes the ZSET mirror for read-side consumers.
func (s *GameStore) Leaderboards() *LeaderboardCache {
	return s.lb
}

func (s *GameStore) Add(game *app.Game) error {
	ctx := context.Background()
	claimed, err := s.client.SetNX(ctx, s.pinKey(game.PIN()), game.ID(), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim pin: %w", err)
	}
	if !claimed {
		return fmt.Errorf("pin %s already claimed", game.PIN())
	}

	s.mu.Lock()
	s.games[game.ID()] = game
	s.byPIN[game.PIN()] = game.ID()
	s.mu.Unlock()

	// best-effort liveness marker
	_ = s.client.Set(ctx, s.sessionKey(game.ID()), game.PIN(), s.ttl).Err()

	go s.mirror(game)
	return nil
}

func (s *GameStore) Get(id string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	return game, ok
}

func (s *GameStore) ByPIN(pin string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPIN[pin]
	if !ok {
		return nil, false
	}
	game, ok := s.games[id]
	return game, ok
}

func (s *GameStore) ReleasePIN(pin string) {
	s.mu.Lock()
	id, ok := s.byPIN[pin]
	delete(s.byPIN, pin)
	s.mu.Unlock()

	ctx := context.Background()
	_ = s.client.Del(ctx, s.pinKey(pin)).Err()
	if ok {
		_ = s.client.Del(ctx, s.sessionKey(id)).Err()
	}
}

// mirror pumps the game's event stream into the ZSET leaderboard until the
// session ends.
func (s *GameStore) mirror(game *app.Game) {
	snapshot, events, cancel := game.Subscribe()
	defer cancel()

	ctx := context.Background()
	_ = s.lb.Replace(ctx, snapshot.Leaderboard)

	for event := range events {
		if event.Leaderboard != nil {
			_ = s.lb.Replace(ctx, *event.Leaderboard)
		}
		if event.Type == domain.EventSessionStatusChanged && event.Status == domain.StatusEnded {
			return
		}
	}
}

func (s *GameStore) pinKey(pin string) string {
	return "uizzy:pin:" + pin
}

func (s *GameStore) sessionKey(id string) string {
	return "uizzy:session:" + id
}
