package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"uizzy-live-service/internal/app"
)

// NewRouter assembles the full HTTP surface: REST endpoints for the
// excluded UI plus the two websocket entry points.
func NewRouter(service *app.GameService, joinBaseURL string) *mux.Router {
	rest := NewRESTHandler(service, joinBaseURL)
	ws := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", rest.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/pin/{pin}", rest.LookupByPIN).Methods(http.MethodGet)
	api.HandleFunc("/sessions/pin/{pin}/qr", rest.JoinQR).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/rankings", rest.Rankings).Methods(http.MethodGet)

	r.HandleFunc("/ws/play", ws.ServePlayer)
	r.HandleFunc("/ws/host", ws.ServeHost)
	return r
}
