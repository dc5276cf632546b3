package api

import (
	"net/http"
	"time"

	"algotutor/internal/api/handler"
	"algotutor/internal/api/middleware"
	"algotutor/internal/app/service"
	"algotutor/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	proxyPrefix string,
	proxyService *service.ProxyService,
	voiceService *service.VoiceService,
	sessionService *service.SessionService,
	ledgerService *service.LedgerService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS("/"+proxyPrefix, "/api", "/question"))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Static route; chi matches it ahead of the proxy's /api/* catch-all.
	tokenHandler := handler.NewTokenHandler(voiceService)
	r.Route("/api/token", tokenHandler.RegisterRoutes)

	proxyHandler := handler.NewProxyHandler(proxyService, proxyPrefix)
	proxyHandler.RegisterRoutes(r)

	sessionHandler := handler.NewSessionHandler(sessionService)
	r.Route("/auth", sessionHandler.RegisterRoutes)

	r.Route("/ledger", func(lr chi.Router) {
		lr.Use(jwtauth.Verifier(security.TokenAuth))
		handler.NewLedgerHandler(ledgerService).RegisterRoutes(lr)
	})

	return r
}
