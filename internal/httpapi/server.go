// Package httpapi exposes the Orchestrator over the small JSON endpoint set
// named in spec §6: GET /health, POST /memory/context, POST /memory/process,
// POST /memory/checkpoint, GET /memory/stats.
//
// Grounded on internal/server/server.go's mux-building/middleware-wrapping
// idiom and web/handlers/middleware.go's RequireAuth/RateLimiter, reduced
// from the teacher's dozens of web-UI routes to this system's five.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/continuity/internal/config"
	"github.com/scrypster/continuity/internal/engine"
	"github.com/scrypster/continuity/internal/store"
)

// EngineName is reported in /health's "engine" field.
const EngineName = "continuity-memory-core"

// contextDeadline / processDeadline are the soft deadlines spec §5 assigns
// inbound /context and /process requests; /checkpoint gets the longer one.
const (
	contextDeadline    = 10 * time.Second
	processDeadline    = 10 * time.Second
	checkpointDeadline = 120 * time.Second
)

// Server wraps an Engine with the HTTP surface. It also holds the Store
// directly for the stats endpoint, which reads session/memory collections
// the Engine doesn't expose a passthrough for.
type Server struct {
	eng *engine.Engine
	st  *store.Store
	cfg *config.Config
}

// New constructs a Server. cfg governs auth mode and the listen address.
func New(eng *engine.Engine, st *store.Store, cfg *config.Config) *Server {
	return &Server{eng: eng, st: st, cfg: cfg}
}

// securityHeadersMiddleware adds the same baseline security headers the
// teacher's web server sends on every response.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Handler builds the complete mux: the five JSON endpoints, wrapped in rate
// limiting, security headers, and (outside of /health) Bearer-token auth
// when MEMORY_SECURITY_MODE=production.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	api := http.NewServeMux()
	api.HandleFunc("POST /memory/context", s.handleContext)
	api.HandleFunc("POST /memory/process", s.handleProcess)
	api.HandleFunc("POST /memory/checkpoint", s.handleCheckpoint)
	api.HandleFunc("GET /memory/stats", s.handleStats)
	mux.Handle("/memory/", RequireAuth(api, s.cfg))

	rl := NewRateLimiter(10.0, 20)
	handler := RateLimitMiddleware(mux, rl)
	handler = securityHeadersMiddleware(handler)
	return handler
}

// Start listens on cfg.Server.Host:cfg.Server.Port and serves until ctx is
// canceled, at which point it shuts down gracefully.
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("httpapi: listen: %w", err)
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 130 * time.Second, // longer than checkpointDeadline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			fmt.Printf("httpapi: server error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return listener.Addr().String(), nil
}
