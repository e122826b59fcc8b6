package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"netquiz/errors"
	"sync"
	"sync/atomic"
	"time"
)

// Server accepts TCP connections and runs each one through the router in its own goroutine.
type Server struct {
	log             *slog.Logger
	router          *Router
	lobby           *Lobby
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closing  atomic.Bool
}

func NewServer(log *slog.Logger, router *Router, lobby *Lobby, shutdownTimeout time.Duration) *Server {
	return &Server{
		log:             log,
		router:          router,
		lobby:           lobby,
		shutdownTimeout: shutdownTimeout,
		conns:           make(map[net.Conn]struct{}),
	}
}

// Serve runs the accept loop until Shutdown closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("NetQuiz server listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn("Temporary accept error", "error", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		go func() {
			defer s.untrack(conn)
			s.router.Route(ctx, conn)
		}()
	}
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown closes the listener and every open connection, then waits for the
// connection goroutines up to the shutdown timeout.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.closing.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil
	}
	ln := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	s.lobby.Shutdown()
	for _, c := range conns {
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Server stopped", "closed_connections", len(conns))
		return nil
	case <-time.After(s.shutdownTimeout):
		return fmt.Errorf("shutdown: %w", context.DeadlineExceeded)
	}
}

// track registers conn unless shutdown already started. Adding to the wait
// group under mu keeps it ordered with the Wait in Shutdown.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}
