// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pollination/queenbee/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Server serves a repository folder over HTTP: its index and the archives
// it references.
type Server struct {
	config      *Config
	index       *registry.Index
	httpServer  *http.Server
	rateLimiter *rate.Limiter

	mu    sync.RWMutex
	ready bool
}

// New builds a Server for cfg. The index is not populated until the first
// call to refreshIndex, made by Run/Start before the listener opens.
func New(cfg *Config) *Server {
	s := &Server{
		config:      cfg,
		index:       registry.NewIndex(),
		rateLimiter: rate.NewLimiter(cfg.RateLimit, cfg.RateLimitBurst),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:           mux,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 16,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// refreshIndex regenerates the index from the repository folder on disk.
func (s *Server) refreshIndex() error {
	idx, err := registry.GenerateFromFolder(s.config.Dir)
	if err != nil {
		return err
	}
	s.index.Replace(idx)
	return nil
}

// setupRoutes configures the mux with every repo serve endpoint, wrapping
// the archive and index routes with the shared middleware chain, and
// leaving the health/ready/metrics probes unwrapped.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("/index.json", s.withMiddleware(s.handleIndex))
	mux.HandleFunc("/plugins/", s.withMiddleware(s.handleArchive))
	mux.HandleFunc("/recipes/", s.withMiddleware(s.handleArchive))
}

// Start runs the HTTP listener until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.refreshIndex(); err != nil {
		return err
	}
	s.setReady(true)

	if s.config.IndexRefresh > 0 {
		go s.refreshLoop(ctx)
	}

	slog.Info("repo serve listening", "addr", s.httpServer.Addr, "dir", s.config.Dir)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.IndexRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refreshIndex(); err != nil {
				slog.Error("index refresh failed", "error", err, "dir", s.config.Dir)
			}
		}
	}
}

// Shutdown gracefully stops the HTTP listener within the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.setReady(false)
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run installs a SIGINT/SIGTERM handler and runs Start under an errgroup,
// returning once the server has shut down.
func (s *Server) Run(ctx context.Context) error {
	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(notifyCtx)
	g.Go(func() error {
		return s.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("repo serve: %w", err)
	}
	return nil
}
