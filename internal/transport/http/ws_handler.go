package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

// WSHandler wires player and host websockets into the game use cases.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type advancePayload struct {
	QuestionID string `json:"questionId"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	TotalScore int    `json:"totalScore"`
}

type joinedPayload struct {
	Participant domain.Participant `json:"participant"`
	Snapshot    domain.Snapshot    `json:"snapshot"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServePlayer upgrades a player connection: joins the session behind the
// PIN, streams game events, and accepts answer submissions. The player is
// marked inactive when the connection drops.
func (h *WSHandler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	nickname := r.URL.Query().Get("nickname")
	if pin == "" || nickname == "" {
		http.Error(w, "missing pin or nickname", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	participant, game, err := h.service.JoinSession(pin, nickname)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.MarkInactive(game.ID(), participant.ID)

	snapshot, updates, cancel := game.Subscribe()
	defer cancel()

	send, done := h.startWriter(conn, updates)
	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Participant: participant, Snapshot: snapshot}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			submission, total, err := h.service.SubmitAnswer(game.ID(), participant.ID, payload.QuestionID, payload.OptionID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID: submission.QuestionID,
				Correct:    submission.Correct,
				TotalScore: total,
			}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	done()
}

// ServeHost upgrades the host connection for a session. The host presents
// the key issued at session creation and drives the game: start, advance,
// end.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	hostKey := r.URL.Query().Get("key")
	game, ok := h.service.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if hostKey == "" || hostKey != game.HostKey() {
		http.Error(w, "invalid host key", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot, updates, cancel := game.Subscribe()
	defer cancel()

	send, done := h.startWriter(conn, updates)
	send <- outboundMessage[any]{Type: "state", Payload: snapshot}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if _, err := h.service.StartGame(game.ID()); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "advance":
			var payload advancePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid advance payload"}}
				continue
			}
			if _, err := h.service.AdvanceQuestion(game.ID(), payload.QuestionID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "end":
			if err := h.service.EndSession(game.ID()); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	done()
}

// startWriter owns all writes to the connection: a single writer goroutine
// drains the send channel, and a pump forwards game events into it. The
// returned done func tears both down in order.
func (h *WSHandler) startWriter(conn *websocket.Conn, updates <-chan domain.Event) (chan<- outboundMessage[any], func()) {
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	done := func() {
		close(closeSignals)
		<-updatesDone
		close(send)
		<-writerDone
	}
	return send, done
}
