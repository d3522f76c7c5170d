package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"whiteboard/internal/api"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/healthz", h.Health)
	r.Get("/api/v1/rooms/{id}/status", h.RoomStatus)

	r.HandleFunc("/ws/whiteboard", h.WhiteboardWS)

	return r
}
