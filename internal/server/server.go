// Package server is the pdflinker web front end: upload a textbook,
// download it with links, and leave feedback.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/pyhub-apps/pdflinker/internal/config"
	"github.com/pyhub-apps/pdflinker/internal/feedback"
	"github.com/pyhub-apps/pdflinker/pkg/annotate"
	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
)

// OutputFilename is the name offered for downloaded documents.
const OutputFilename = "linked_textbook.pdf"

// Server serves the upload page and the linking endpoints.
type Server struct {
	cfg        *config.Config
	store      feedback.Store
	linkerOpts []linker.Option
	boundary   extract.Boundary
	pdfConf    *model.Configuration
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	handler    http.Handler
}

// New builds a server from cfg. Feedback is saved to store.
func New(cfg *config.Config, store feedback.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := cfg.LinkerOptions()
	if err != nil {
		return nil, err
	}
	scan, err := cfg.ScanOptions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		store:      store,
		linkerOpts: append(opts, linker.WithLogger(logger)),
		boundary:   scan.Boundary,
		pdfConf:    annotate.NewConfiguration(),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /link", s.handleLink)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("GET /ws/link", s.handleLinkSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.logRequests(mux)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. At most Server.MaxConnections connections are open at once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if n := s.cfg.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
