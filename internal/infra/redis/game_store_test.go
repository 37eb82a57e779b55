package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

func newTestGame(id, pin string) *app.Game {
	return app.NewGame(domain.Session{ID: id, QuizID: "quiz-1", PIN: pin}, sampleQuiz(), "key", -1)
}

func TestGameStoreClaimsAndReleasesPINKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := NewGameStore(client, time.Minute)

	if err := store.Add(newTestGame("s1", "123456")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !mr.Exists("uizzy:pin:123456") {
		t.Fatalf("expected redis pin claim to be set")
	}
	if !mr.Exists("uizzy:session:s1") {
		t.Fatalf("expected session liveness key to be set")
	}

	if err := store.Add(newTestGame("s2", "123456")); err == nil {
		t.Fatalf("expected duplicate pin claim to fail")
	}

	store.ReleasePIN("123456")
	if mr.Exists("uizzy:pin:123456") {
		t.Fatalf("expected pin key to be removed")
	}
	if mr.Exists("uizzy:session:s1") {
		t.Fatalf("expected liveness key to be removed")
	}
}

func TestGameStoreMirrorsLeaderboard(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := NewGameStore(client, time.Minute)

	game := newTestGame("s1", "123456")
	if err := store.Add(game); err != nil {
		t.Fatalf("add: %v", err)
	}

	ana, err := game.Join("Ana")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := game.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := game.Submit(ana.ID, "q1", "o2"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The mirror consumes the game's event stream asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		entries, err := store.Leaderboards().GetTop(context.Background(), "s1", 10)
		if err == nil && len(entries) == 1 && entries[0].ParticipantID == ana.ID && entries[0].TotalScore == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("mirrored leaderboard never caught up: entries=%+v err=%v", entries, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rank, err := store.Leaderboards().GetRank(context.Background(), "s1", ana.ID)
	if err != nil || rank != 1 {
		t.Fatalf("expected rank 1, got rank=%d err=%v", rank, err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Warm-up",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3", Correct: false},
					{ID: "o2", Text: "4", Correct: true},
				},
			},
		},
	}
}
