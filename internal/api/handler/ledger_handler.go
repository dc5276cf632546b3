package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"algotutor/internal/api/middleware"
	"algotutor/internal/app/service"
	"algotutor/internal/common"

	"github.com/go-chi/chi/v5"
)

type LedgerHandler struct {
	ledgerService *service.LedgerService
}

func NewLedgerHandler(ls *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ls}
}

func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/submissions", h.listSubmissions)                // GET /ledger/submissions?limit=20
	r.Get("/submissions/{submissionID}", h.getSubmission) // GET /ledger/submissions/abc
}

func (h *LedgerHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	username, _ := middleware.GetUsernameFromContext(r.Context())
	slog.Debug("listing ledger", "user", username, "limit", limit)

	entries, err := h.ledgerService.List(r.Context(), limit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *LedgerHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledgerService.Get(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}
