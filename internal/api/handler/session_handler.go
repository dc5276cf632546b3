package handler

import (
	"encoding/json"
	"net/http"

	"algotutor/internal/app/service"
	"algotutor/internal/common"

	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(ss *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: ss}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.createSession) // POST /auth/session
}

func (h *SessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req service.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	session, err := h.sessionService.CreateSession(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, session)
}
