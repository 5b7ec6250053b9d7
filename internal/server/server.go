/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes composition sessions over HTTP. Each session owns
// one surface guarded by its own mutex, so the core stays single threaded
// while the router serves many sessions at once.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	applog "tplstudio/internal/log"
	"tplstudio/internal/media"
	"tplstudio/internal/surface"
)

// DefaultMaxSessions bounds the live session registry.
const DefaultMaxSessions = 64

// Config holds server configuration.
type Config struct {
	Addr string
	// AllowAll allows every CORS and websocket origin (dev mode).
	AllowAll bool
	Origins  []string
	// Surface is the template for new sessions. Seed and stage size come
	// from the create request.
	Surface      surface.Options
	PixelRatio   float64
	MaxSessions  int
	MediaTimeout time.Duration
}

// IndexLoader produces the media index, usually a *media.Loader.
type IndexLoader interface {
	Load(ctx context.Context) (media.Index, error)
}

// Deps are the optional collaborators of a Server.
type Deps struct {
	Index     IndexLoader
	Overrides media.Overrides
	Resolver  *media.Resolver
	// Thumbnails feeds image cards in PNG and PDF exports.
	Thumbnails export.ThumbnailFunc
	Logger     *slog.Logger
}

// Server serves the pool, the media wall and composition sessions.
type Server struct {
	cfg  Config
	deps Deps
	base *domain.Catalog
	log  *slog.Logger

	router     chi.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session

	idxMu  sync.Mutex
	idx    media.Index
	idxOK  bool
	idxErr error
}

// New creates a server over cat.
func New(cfg Config, cat *domain.Catalog, deps Deps) *Server {
	if cat == nil {
		cat = domain.NewCatalog(nil)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 30 * time.Second
	}
	if cfg.PixelRatio <= 0 {
		cfg.PixelRatio = export.DefaultPixelRatio
	}
	lg := deps.Logger
	if lg == nil {
		lg = applog.WithComponent("server")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		base:     cat,
		log:      lg,
		ctx:      ctx,
		cancel:   cancel,
		sessions: map[string]*session{},
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if len(s.cfg.Origins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.Origins
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/pool", s.handlePool)
		r.Get("/wall", s.handleWall)
		r.Get("/world", s.handleWorld)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/events", s.handleEvent)
			r.Get("/events", s.handleEvents)
			r.Post("/media/reload", s.handleMediaReload)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/export.{format}", s.handleExport)
		})
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on Config.Addr until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info("server listening", slog.String("addr", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener, cancels pending media loads and waits for
// them to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.Origins {
		if o == origin || o == "*" {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
			slog.String("req_id", middleware.GetReqID(r.Context())),
		)
	})
}

// mediaIndex returns the shared index, loading it on first use or when
// force is set. Failures are remembered until the next forced load.
func (s *Server) mediaIndex(ctx context.Context, force bool) (media.Index, error) {
	if s.deps.Index == nil {
		return media.Index{}, media.ErrNoSource
	}
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	if (s.idxOK || s.idxErr != nil) && !force {
		return s.idx, s.idxErr
	}
	idx, err := s.deps.Index.Load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.idxErr = err
		}
		return media.Index{}, err
	}
	s.idx, s.idxOK, s.idxErr = idx, true, nil
	return idx, nil
}

func (s *Server) guesser(idx media.Index) media.Guesser {
	return media.Guesser{Index: idx, Overrides: s.deps.Overrides}
}

// catalog is the base catalog with media filled in when an index is at
// hand.
func (s *Server) catalog(ctx context.Context) *domain.Catalog {
	idx, err := s.mediaIndex(ctx, false)
	if err != nil {
		return s.base
	}
	return s.base.WithMedia(s.guesser(idx).MediaFor)
}

func (s *Server) resolve(src string) string {
	if s.deps.Resolver != nil {
		return s.deps.Resolver.ResolveURL(src)
	}
	if media.IsAbsolute(src) {
		return src
	}
	return ""
}
