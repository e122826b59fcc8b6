package runtime

import (
	"net"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/protocol"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated chat connection.
// Writes are serialized by the session's own mutex so a broadcast, a direct
// reply and a confirmation never interleave their frames.
type Session struct {
	ID           uuid.UUID
	username     string
	conn         net.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	writer    *protocol.Writer
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewSession(username string, conn net.Conn, w *protocol.Writer, writeTimeout time.Duration) *Session {
	return &Session{
		ID:           uuid.New(),
		username:     username,
		conn:         conn,
		writer:       w,
		writeTimeout: writeTimeout,
	}
}

func (s *Session) Username() string {
	return s.username
}

// Send encodes one event onto the connection.
func (s *Session) Send(evt domain.ChatEvent) error {
	return s.Do(func(w *protocol.Writer) error {
		return protocol.WriteEvent(w, evt)
	})
}

// Do runs fn with exclusive access to the writer and flushes when fn succeeds.
func (s *Session) Do(fn func(w *protocol.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return errors.ErrSessionClosed
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := fn(s.writer); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Close releases the connection. It does not wait for an in-flight write,
// which fails on the closed connection instead.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) Alive() bool {
	return !s.closed.Load()
}

func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
