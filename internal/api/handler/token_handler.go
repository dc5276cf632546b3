package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"algotutor/internal/app/service"
	"algotutor/internal/common"

	"github.com/go-chi/chi/v5"
)

type TokenHandler struct {
	voiceService *service.VoiceService
}

func NewTokenHandler(vs *service.VoiceService) *TokenHandler {
	return &TokenHandler{voiceService: vs}
}

func (h *TokenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.getToken) // GET /api/token?name=&room=
}

func (h *TokenHandler) getToken(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	room := r.URL.Query().Get("room")

	token, err := h.voiceService.FetchToken(r.Context(), name, room)
	if err != nil {
		if errors.Is(err, common.ErrBadRequest) {
			common.RespondWithError(w, http.StatusBadRequest, "Missing name or room parameter")
			return
		}
		slog.Error("voice token fetch failed", "room", room, "error", err)
		common.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch token")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(token))
}
