package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"uizzy-live-service/internal/domain"
)

// GameStore abstracts how live games are stored and indexed by PIN
// (in-memory, Redis-mirrored, etc). Add must fail when the PIN is already
// claimed by a joinable game.
type GameStore interface {
	Add(game *Game) error
	Get(id string) (*Game, bool)
	ByPIN(pin string) (*Game, bool)
	ReleasePIN(pin string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Config carries the tunables of the session core.
type Config struct {
	// AnswerWindow is how long each question stays open for answers.
	AnswerWindow time.Duration
	// PINAttempts is the retry budget for drawing an unclaimed PIN.
	PINAttempts int
}

const (
	DefaultAnswerWindow = 20 * time.Second
	DefaultPINAttempts  = 10
)

// GameService is the UI-facing boundary of the session core: it creates
// sessions, resolves PINs, and routes host and player operations to the
// right game.
type GameService struct {
	store   GameStore
	quizzes QuizRepository
	cfg     Config
	now     func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGameService(store GameStore, quizzes QuizRepository, cfg Config) *GameService {
	return NewGameServiceWithClock(store, quizzes, cfg, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic timestamps.
func NewGameServiceWithClock(store GameStore, quizzes QuizRepository, cfg Config, now func() time.Time) *GameService {
	if cfg.AnswerWindow == 0 {
		cfg.AnswerWindow = DefaultAnswerWindow
	}
	if cfg.PINAttempts <= 0 {
		cfg.PINAttempts = DefaultPINAttempts
	}
	return &GameService{
		store:   store,
		quizzes: quizzes,
		cfg:     cfg,
		now:     now,
		rnd:     rand.New(rand.NewSource(now().UnixNano())),
	}
}

// CreateSession loads the quiz, draws a PIN that is unique among joinable
// sessions, and registers a new lobby-state game. PINs free up once a
// session ends, so the 6-digit space is only contended by live games.
func (s *GameService) CreateSession(ctx context.Context, quizID, hostOwnerID string) (*Game, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	for attempt := 0; attempt < s.cfg.PINAttempts; attempt++ {
		pin := s.drawPIN()
		if _, taken := s.store.ByPIN(pin); taken {
			continue
		}
		game := NewGameWithClock(domain.Session{
			ID:          uuid.NewString(),
			QuizID:      quiz.ID,
			HostOwnerID: hostOwnerID,
			PIN:         pin,
		}, quiz, uuid.NewString(), s.cfg.AnswerWindow, s.now)

		if err := s.store.Add(game); err != nil {
			// Lost a race for this PIN; redraw.
			continue
		}
		return game, nil
	}
	return nil, domain.ErrPINExhausted
}

// Get returns the game with the given session id.
func (s *GameService) Get(sessionID string) (*Game, bool) {
	return s.store.Get(sessionID)
}

// LookupByPIN resolves a join code to its game.
func (s *GameService) LookupByPIN(pin string) (*Game, error) {
	game, ok := s.store.ByPIN(pin)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return game, nil
}

// JoinSession registers a player in the lobby behind the given PIN.
func (s *GameService) JoinSession(pin, nickname string) (domain.Participant, *Game, error) {
	game, err := s.LookupByPIN(pin)
	if err != nil {
		return domain.Participant{}, nil, err
	}
	participant, err := game.Join(nickname)
	if err != nil {
		return domain.Participant{}, nil, err
	}
	return participant, game, nil
}

// StartGame begins play for the session and opens the first question.
func (s *GameService) StartGame(sessionID string) (domain.ActiveQuestion, error) {
	game, ok := s.store.Get(sessionID)
	if !ok {
		return domain.ActiveQuestion{}, domain.ErrSessionNotFound
	}
	return game.Start()
}

// SubmitAnswer records one player's answer against the open question.
func (s *GameService) SubmitAnswer(sessionID, participantID, questionID, optionID string) (domain.AnswerSubmission, int, error) {
	game, ok := s.store.Get(sessionID)
	if !ok {
		return domain.AnswerSubmission{}, 0, domain.ErrSessionNotFound
	}
	return game.Submit(participantID, questionID, optionID)
}

// AdvanceQuestion closes the named question and moves on, ending the
// session after the last one. The PIN is released once the session ends.
func (s *GameService) AdvanceQuestion(sessionID, fromQuestionID string) (bool, error) {
	game, ok := s.store.Get(sessionID)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	advanced, err := game.AdvanceFrom(fromQuestionID)
	if game.Status() == domain.StatusEnded {
		s.store.ReleasePIN(game.PIN())
	}
	return advanced, err
}

// EndSession finishes the session on explicit host exit.
func (s *GameService) EndSession(sessionID string) error {
	game, ok := s.store.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	err := game.End()
	if game.Status() == domain.StatusEnded {
		s.store.ReleasePIN(game.PIN())
	}
	return err
}

// MarkInactive flags a disconnected player; safe to call repeatedly.
func (s *GameService) MarkInactive(sessionID, participantID string) {
	if game, ok := s.store.Get(sessionID); ok {
		game.MarkInactive(participantID)
	}
}

// Rankings returns the current standings for the session.
func (s *GameService) Rankings(sessionID string) (domain.Leaderboard, error) {
	game, ok := s.store.Get(sessionID)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return game.Rankings(), nil
}

func (s *GameService) drawPIN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%06d", s.rnd.Intn(1000000))
}
