package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"algotutor/internal/api/middleware"
	"algotutor/internal/app/service"
	"algotutor/internal/common"

	"github.com/go-chi/chi/v5"
)

const maxForwardBody = 1 << 20

type ProxyHandler struct {
	proxyService *service.ProxyService
	prefix       string
}

func NewProxyHandler(ps *service.ProxyService, prefix string) *ProxyHandler {
	return &ProxyHandler{proxyService: ps, prefix: "/" + strings.Trim(prefix, "/")}
}

func (h *ProxyHandler) RegisterRoutes(r chi.Router) {
	for _, pattern := range []string{h.prefix, h.prefix + "/*"} {
		r.Get(pattern, h.forward)
		r.Post(pattern, h.forward)
		r.Options(pattern, h.preflight)
	}
}

func (h *ProxyHandler) preflight(w http.ResponseWriter, r *http.Request) {
	middleware.SetCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request) {
	middleware.SetCORSHeaders(w)

	env := &service.Envelope{
		InboundPath:   r.URL.EscapedPath(),
		Method:        r.Method,
		Authorization: r.Header.Get("Authorization"),
		RawQuery:      r.URL.RawQuery,
	}
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxForwardBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		env.Body = body
	}

	res, err := h.proxyService.Forward(r.Context(), env)
	if err != nil {
		status := common.HTTPStatusFromError(err)
		slog.Warn("proxy forward failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		common.RespondWithError(w, status, err.Error())
		return
	}
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	}
	common.RespondWithRawJSON(w, http.StatusOK, res.Body)
}
