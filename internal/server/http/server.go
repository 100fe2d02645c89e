package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labelwire/labelwire/internal/runtime"
	"github.com/labelwire/labelwire/internal/server/http/controllers"
	"github.com/labelwire/labelwire/pkg/log"
)

// Server is the HTTP surface: health, inbound webhook, command endpoint, and
// queue inspection.
type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

// New builds the server and registers all routes.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, srv: &http.Server{Handler: mux}}
	controllers.NewControllerRegistry(rt, logger).RegisterAllRoutes(mux)
	return s
}

// Handler exposes the route tree (used by tests).
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listener address, or empty before ListenAndServe.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// Close force-closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
