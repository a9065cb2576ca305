// Package server exposes profiling, exploration and cleaning actions over
// HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/smartdoc/internal/actions"
	"github.com/KaramelBytes/smartdoc/internal/analysis"
	"github.com/KaramelBytes/smartdoc/internal/classify"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
	"github.com/KaramelBytes/smartdoc/internal/store"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Addr                 string
	MaxUploadBytes       int64
	Ingest               ingest.Options
	Analysis             analysis.Options
	CorrelationThreshold float64
	// ModelPath is the classifier model file; Watch reloads it on change.
	ModelPath string
	Watch     bool
	Logger    *slog.Logger
}

// upload is what the server remembers about an uploaded file.
type upload struct {
	Name     string
	FileType string
	Excerpt  string
	Blocks   []string
	Tabular  bool
}

// Server is the SmartDoc HTTP server.
type Server struct {
	cfg        Config
	reg        *store.Registry
	exec       *actions.Executor
	classifier *classify.Holder
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	uploads map[string]upload
}

// New creates a server over reg. The classifier is chosen once from
// cfg.ModelPath.
func New(cfg Config, reg *store.Registry) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.Analysis.MaxCells <= 0 {
		cfg.Analysis = analysis.DefaultOptions()
	}
	return &Server{
		cfg:        cfg,
		reg:        reg,
		exec:       actions.New(reg, cfg.Logger),
		classifier: classify.NewHolder(classify.New(cfg.ModelPath, cfg.Logger)),
		logger:     cfg.Logger,
		now:        time.Now,
		uploads:    map[string]upload{},
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.requestLogger,
	)
	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.upload)
		r.Post("/detect", s.detect)
		r.Post("/analyze", s.analyze)
		r.Post("/explore", s.explore)
		r.Post("/correlate", s.correlate)
		r.Route("/actions", func(r chi.Router) {
			r.Post("/deduplicate", s.deduplicate)
			r.Post("/fill_missing", s.fillMissing)
			r.Post("/remove_outliers", s.removeOutliers)
			r.Post("/export_segment", s.exportSegment)
		})
		r.Route("/intelligence", func(r chi.Router) {
			r.Post("/suggest_charts", s.suggestCharts)
			r.Post("/explain", s.explain)
		})
		r.Get("/datasets/{id}", s.dataset)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.cfg.Addr)

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch && s.cfg.ModelPath != "" {
		eg.Go(func() error {
			return s.watchModel(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchModel reloads the classifier when the model file is written. The
// directory is watched so editors that replace the file are seen too.
func (s *Server) watchModel(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.cfg.ModelPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch classifier model", "path", target, "error", err)
		<-ctx.Done()
		return nil
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != target {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, s.reloadModel)

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// reloadModel swaps in the model on disk, keeping the current classifier if
// the file does not load.
func (s *Server) reloadModel() {
	m, err := classify.LoadModel(s.cfg.ModelPath)
	if err != nil {
		s.logger.Warn("classifier model reload failed; keeping previous", "path", s.cfg.ModelPath, "error", err)
		return
	}
	s.classifier.Store(m)
	s.logger.Info("classifier model reloaded", "path", s.cfg.ModelPath, "labels", len(m.Labels))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) remember(id string, u upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[id] = u
}

func (s *Server) lookupUpload(id string) (upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	return u, ok
}
