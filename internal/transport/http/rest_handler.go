package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"uizzy-live-service/internal/app"
	"uizzy-live-service/internal/domain"
)

// RESTHandler serves the non-websocket surface: session creation, PIN
// lookup for the join flow, rankings, and the QR join code.
type RESTHandler struct {
	service     *app.GameService
	joinBaseURL string
}

func NewRESTHandler(service *app.GameService, joinBaseURL string) *RESTHandler {
	return &RESTHandler{service: service, joinBaseURL: joinBaseURL}
}

type createSessionRequest struct {
	QuizID      string `json:"quizId"`
	HostOwnerID string `json:"hostOwnerId"`
}

type createSessionResponse struct {
	Session domain.Session `json:"session"`
	HostKey string         `json:"hostKey"`
	JoinURL string         `json:"joinUrl"`
}

// CreateSession hosts a quiz: allocates a PIN and returns the host key the
// teacher's screen needs to control the game.
func (h *RESTHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	game, err := h.service.CreateSession(r.Context(), req.QuizID, req.HostOwnerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		Session: game.Session(),
		HostKey: game.HostKey(),
		JoinURL: h.joinURL(game.PIN()),
	})
}

// LookupByPIN is the join-flow preflight: it resolves a PIN to its session.
func (h *RESTHandler) LookupByPIN(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]
	game, err := h.service.LookupByPIN(pin)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if game.Status() != domain.StatusLobby {
		writeDomainError(w, domain.ErrSessionNotJoinable)
		return
	}
	writeJSON(w, http.StatusOK, game.Session())
}

// JoinQR renders the join link for a PIN as a scannable PNG.
func (h *RESTHandler) JoinQR(w http.ResponseWriter, r *http.Request) {
	pin := mux.Vars(r)["pin"]
	if _, err := h.service.LookupByPIN(pin); err != nil {
		writeDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(pin), qrcode.Medium, 256)
	if err != nil {
		log.Printf("qr encode failed: %v", err)
		http.Error(w, "could not render qr code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// Rankings returns the current standings for a session.
func (h *RESTHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	lb, err := h.service.Rankings(sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *RESTHandler) joinURL(pin string) string {
	return h.joinBaseURL + "?pin=" + url.QueryEscape(pin)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPINExhausted),
		errors.Is(err, domain.ErrSessionNotJoinable),
		errors.Is(err, domain.ErrDuplicateNickname),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionEnded),
		errors.Is(err, domain.ErrQuestionClosed),
		errors.Is(err, domain.ErrAlreadySubmitted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidNickname),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrNoActiveParticipants):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{Message: err.Error()})
}
