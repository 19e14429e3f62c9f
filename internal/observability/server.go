package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server exposes metrics and health endpoints
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *http.Server
}

// NewServer mounts /metrics, /healthz and /livez
func NewServer(addr string, metrics *Metrics, health *HealthManager) *Server {
	m := chi.NewRouter()
	m.Method(http.MethodGet, "/metrics", metrics.Handler())
	m.Get("/healthz", health.HealthHandler())
	m.Get("/livez", health.LivenessHandler())

	return &Server{
		addr: addr,
		mux:  m,
		srv: &http.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	log := Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
