package memory

import (
	"testing"
	"time"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

func testGame(id, pin string) *app.Game {
	return app.NewGame(domain.Session{ID: id, QuizID: "quiz-1", PIN: pin}, domain.Quiz{ID: "quiz-1"}, "key", time.Minute)
}

func TestGameStoreIndexesByIDAndPIN(t *testing.T) {
	store := NewGameStore()

	game := testGame("s1", "123456")
	if err := store.Add(game); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected game addressable by id")
	}
	if found, ok := store.ByPIN("123456"); !ok || found.ID() != "s1" {
		t.Fatalf("expected pin lookup to resolve s1")
	}

	if err := store.Add(testGame("s2", "123456")); err == nil {
		t.Fatalf("expected duplicate pin claim to fail")
	}

	store.ReleasePIN("123456")
	if _, ok := store.ByPIN("123456"); ok {
		t.Fatalf("expected pin to be released")
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected game to stay addressable after pin release")
	}

	// Released PIN can be claimed by a new session.
	if err := store.Add(testGame("s3", "123456")); err != nil {
		t.Fatalf("expected released pin to be reusable: %v", err)
	}
}
