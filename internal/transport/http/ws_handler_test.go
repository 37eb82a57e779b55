package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
	"uizzy-live-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewGameStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewGameService(store, quizRepo, app.Config{AnswerWindow: -1})
	server := httptest.NewServer(NewRouter(service, "http://example.test/join"))
	t.Cleanup(server.Close)
	return server
}

func createSession(t *testing.T, server *httptest.Server) createSessionResponse {
	t.Helper()
	body, _ := json.Marshal(createSessionRequest{QuizID: "quiz-1", HostOwnerID: "teacher-1"})
	resp, err := http.Post(server.URL+"/api/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return created
}

func TestCreateAndLookupSession(t *testing.T) {
	server := newTestServer(t)
	created := createSession(t, server)

	if len(created.Session.PIN) != 6 {
		t.Fatalf("expected 6-digit pin, got %q", created.Session.PIN)
	}
	if !strings.Contains(created.JoinURL, "pin="+created.Session.PIN) {
		t.Fatalf("expected join url to carry the pin, got %q", created.JoinURL)
	}

	resp, err := http.Get(server.URL + "/api/sessions/pin/" + created.Session.PIN)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 lookup, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/sessions/pin/000000")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown pin, got %d", resp.StatusCode)
	}
}

func TestJoinQRServesPNG(t *testing.T) {
	server := newTestServer(t)
	created := createSession(t, server)

	resp, err := http.Get(server.URL + "/api/sessions/pin/" + created.Session.PIN + "/qr")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
}

func TestHostKeyRequired(t *testing.T) {
	server := newTestServer(t)
	created := createSession(t, server)

	u := wsURL(server, "/ws/host?session="+created.Session.ID+"&key=wrong")
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected host dial with wrong key to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestLiveGameFlow(t *testing.T) {
	server := newTestServer(t)
	created := createSession(t, server)

	host, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/host?session="+created.Session.ID+"&key="+created.HostKey), nil)
	if err != nil {
		t.Fatalf("host dial: %v", err)
	}
	defer host.Close()
	if typ, _ := readNext(host, t); typ != "state" {
		t.Fatalf("expected state snapshot first, got %s", typ)
	}

	player, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/play?pin="+created.Session.PIN+"&nickname=Ana"), nil)
	if err != nil {
		t.Fatalf("player dial: %v", err)
	}
	defer player.Close()
	if typ, _ := readNext(player, t); typ != "joined" {
		t.Fatalf("expected joined first, got %s", typ)
	}

	if err := host.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	question := readEvent(player, t, domain.EventQuestionChanged)
	questionID := question["question"].(map[string]any)["id"].(string)

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": questionID, "optionId": "o2"},
	}
	if err := player.WriteJSON(answer); err != nil {
		t.Fatalf("answer: %v", err)
	}

	var result map[string]any
	for {
		typ, payload := readNext(player, t)
		if typ == "answerResult" {
			result = payload
			break
		}
	}
	if result["correct"] != true || result["totalScore"].(float64) != 1 {
		t.Fatalf("unexpected answer result: %+v", result)
	}

	if err := host.WriteJSON(map[string]any{
		"type":    "advance",
		"payload": map[string]any{"questionId": questionID},
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	ended := readEvent(player, t, domain.EventSessionStatusChanged)
	if ended["status"] != string(domain.StatusEnded) {
		t.Fatalf("expected ended status, got %+v", ended)
	}
	lb := ended["leaderboard"].(map[string]any)
	if lb["final"] != true {
		t.Fatalf("expected final leaderboard, got %+v", lb)
	}
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + server.URL[len("http"):] + path
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

// readEvent skips messages until a game event of the wanted type arrives.
func readEvent(conn *websocket.Conn, t *testing.T, want domain.EventType) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t)
		if typ == "event" && payload["type"] == string(want) {
			return payload
		}
	}
	t.Fatalf("never received %s event", want)
	return nil
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
				},
			},
		},
	}
}
