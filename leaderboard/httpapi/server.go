// Package httpapi expõe o leaderboard via HTTP:
//
//	GET  /api/leaderboard      top 50
//	POST /api/score            submit (rate limited)
//	GET  /api/stats            totalPlayers / topPlayer
//	GET  /api/live             feed WebSocket
//	GET  /api/healthz
//	GET  /api/ratelimit/stats  contadores do rate limit
//	GET  /                     arquivos estáticos do jogo
package httpapi

import (
	"net/http"
	"path/filepath"

	"leaderboard-service/leaderboard/application"
	rldomain "leaderboard-service/middleware/ratelimit/domain"
)

// MaxBodyBytes limita o corpo de POST /api/score.
const MaxBodyBytes = 1 << 10

type Middleware func(http.Handler) http.Handler

type Server struct {
	Leaderboard *application.Service

	// RateLimit envolve apenas POST /api/score.
	RateLimit Middleware
	// Concurrency envolve todas as rotas exceto o feed ao vivo.
	Concurrency Middleware

	Live       http.Handler
	LimitStats rldomain.StatsReader

	StaticDir       string
	CORSAllowOrigin string
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	submit := http.Handler(http.HandlerFunc(s.handleSubmit))
	if s.RateLimit != nil {
		submit = s.RateLimit(submit)
	}

	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.Handle("POST /api/score", submit)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.LimitStats != nil {
		mux.HandleFunc("GET /api/ratelimit/stats", s.handleLimitStats)
	}

	staticDir := s.StaticDir
	if staticDir == "" {
		staticDir = "public"
	}
	mux.Handle("GET /", http.FileServer(http.Dir(filepath.Clean(staticDir))))

	h := http.Handler(mux)
	if s.Concurrency != nil {
		h = s.Concurrency(h)
	}
	if s.Live != nil {
		// o feed ao vivo fica fora do limite de concorrência: a conexão dura minutos
		root := http.NewServeMux()
		root.Handle("GET /api/live", s.Live)
		root.Handle("/", h)
		h = root
	}
	h = withCORS(s.CORSAllowOrigin, h)
	h = withRequestID(h)
	return h
}

func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
