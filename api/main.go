// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package api serves the random number service over HTTP: status and
// generation endpoints, input feeds for browser mouse events and external
// audio capture, output validation and a minimal capture page.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/safing/entropyrng/history"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/modules"
)

// Server is the api module.
type Server struct {
	module  *modules.Module
	backend Backend

	lock    sync.Mutex
	server  *http.Server
	history history.Store
}

// NewServer registers the "api" module serving the given backend.
func NewServer(backend Backend) *Server {
	s := &Server{
		backend: backend,
	}
	s.module = modules.Register("api", registerConfig, s.start, s.stop, "rng", "randtest")
	return s
}

func (s *Server) start() error {
	store, err := history.Open(historyBackend(), historyPath())
	if err != nil {
		return err
	}

	h := &handler{
		ctx:     s.module.Ctx,
		backend: s.backend,
		history: store,
		now:     time.Now,
	}
	router, err := newRouter(h)
	if err != nil {
		_ = store.Close()
		return err
	}

	address := listenAddress()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.lock.Lock()
	s.server = server
	s.history = store
	s.lock.Unlock()

	log.Infof("api: starting to listen on %s", listener.Addr())
	s.module.StartWorker("http server", func(ctx context.Context) error {
		return serve(ctx, server, listener)
	})
	return nil
}

func serve(ctx context.Context, server *http.Server, listener net.Listener) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		case <-done:
		}
	}()

	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var err error
	if s.server != nil {
		_ = s.server.Close()
		s.server = nil
	}
	if s.history != nil {
		err = s.history.Close()
		s.history = nil
	}
	return err
}
