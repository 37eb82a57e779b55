package memory

import (
	"sync"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore. Games stay
// addressable by id after they end (late score lookups), but their PIN is
// released for reuse.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
	byPIN map[string]string
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*app.Game),
		byPIN: make(map[string]string),
	}
}

func (s *GameStore) Add(game *app.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, claimed := s.byPIN[game.PIN()]; claimed {
		return domain.ErrPINExhausted
	}
	s.games[game.ID()] = game
	s.byPIN[game.PIN()] = game.ID()
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
	defer s.mu.Unlock()
	delete(s.byPIN, pin)
}
