package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"mediastore/internal/config"
	"mediastore/internal/logging"
	"mediastore/internal/services"
	"mediastore/internal/upload"
)

// multipartOverhead covers boundary markers and part headers on top of the
// payload ceiling when bounding a request body.
const multipartOverhead = 1 << 20

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	validator upload.Validator

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logger,
		daemon:    d,
		validator: upload.New(cfg.Paths.StorageRoot, cfg.Storage.MaxUploadBytes),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.withRequestID(authMiddleware(token, srv.handleStatus)))
	mux.HandleFunc("/api/media", srv.withRequestID(authMiddleware(token, srv.handleMedia)))
	mux.HandleFunc("/api/media/", srv.withRequestID(authMiddleware(token, srv.handleMediaItem)))
	mux.HandleFunc("/api/variants", srv.withRequestID(authMiddleware(token, srv.handleVariants)))
	mux.HandleFunc("/api/storage/stats", srv.withRequestID(authMiddleware(token, srv.handleStorageStats)))

	// Stored files are public by design; only the management API is gated by
	// the bearer token.
	prefix := strings.TrimSuffix(cfg.Storage.PublicPrefix, "/")
	if prefix != "" {
		mux.Handle(prefix+"/", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.Paths.StorageRoot))))
	}

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID assigns a correlation identifier to every API request so log
// lines from the pipeline can be tied back to the call that triggered them.
func (s *apiServer) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if folder := strings.TrimSpace(r.URL.Query().Get("folder")); folder != "" {
		normalized, err := s.validator.NormalizeFolder(folder)
		if err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		size, err := s.daemon.inspector.FolderSize(normalized)
		if err != nil {
			s.writePipelineError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"folder": normalized, "bytes": size})
		return
	}

	report, err := s.daemon.inspector.Stats()
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	catalogCounts, err := s.daemon.store.CountsByFolder(r.Context())
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"disk":    report,
		"catalog": catalogCounts,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writePipelineError maps a pipeline error to its HTTP status. Input
// rejections keep their message; everything else is reported opaquely and
// logged server side.
func (s *apiServer) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		attrs := []logging.Attr{logging.Error(err)}
		if id, ok := services.RequestIDFromContext(r.Context()); ok {
			attrs = append(attrs, logging.String(logging.FieldCorrelationID, id))
		}
		s.log().Error("request failed", logging.Args(attrs...)...)
		s.writeError(w, status, "internal error")
		return
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
