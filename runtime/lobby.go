package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"netquiz/auth"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/protocol"
	"sync/atomic"
	"time"
)

// Lobby owns the chat side of the server: login, the per-session read loop
// and the single disconnect path every failure funnels into.
type Lobby struct {
	log          *slog.Logger
	registry     *Registry
	hub          *Hub
	interpreter  *Interpreter
	announcer    contract.Announcer
	auth         contract.Authenticator
	idleTimeout  time.Duration
	writeTimeout time.Duration
	draining     atomic.Bool
}

// NewLobby wires the lobby and installs it as the hub's delivery failure handler.
func NewLobby(
	log *slog.Logger,
	registry *Registry,
	hub *Hub,
	interpreter *Interpreter,
	announcer contract.Announcer,
	authenticator contract.Authenticator,
	idleTimeout, writeTimeout time.Duration,
) *Lobby {
	l := &Lobby{
		log:          log,
		registry:     registry,
		hub:          hub,
		interpreter:  interpreter,
		announcer:    announcer,
		auth:         authenticator,
		idleTimeout:  idleTimeout,
		writeTimeout: writeTimeout,
	}
	hub.OnDeliveryFailure(func(r contract.Recipient, err error) {
		if s, ok := r.(*Session); ok {
			l.Disconnect(s, fmt.Sprintf("write failed: %v", err))
		}
	})
	return l
}

// Handle serves the CHAT and USER tags.
func (l *Lobby) Handle(ctx context.Context, conn net.Conn, r *protocol.Reader, w *protocol.Writer) {
	cmd, err := r.ReadString()
	if err != nil {
		l.log.Debug("No lobby command received", "remote", conn.RemoteAddr().String(), "error", err)
		_ = conn.Close()
		return
	}

	switch cmd {
	case protocol.CmdLogin:
		username, err := r.ReadString()
		if err != nil {
			_ = conn.Close()
			return
		}
		credential, err := r.ReadString()
		if err != nil {
			_ = conn.Close()
			return
		}
		s, err := l.Login(ctx, conn, w, username, credential)
		if err != nil {
			l.log.Info("Login rejected", "username", username, "remote", conn.RemoteAddr().String(), "reason", err)
			if s == nil {
				_ = writeLoginReply(w, false, rejectionReason(err))
			}
			_ = conn.Close()
			return
		}
		l.serve(ctx, s, r)
	case protocol.CmdGetUsers:
		if err := w.WriteStrings(l.registry.Usernames()); err == nil {
			_ = w.Flush()
		}
		_ = conn.Close()
	default:
		l.log.Debug("Unknown lobby command", "command", cmd)
		if err := w.WriteString(protocol.ReplyError); err == nil {
			_ = w.Flush()
		}
		_ = conn.Close()
	}
}

// Login authenticates the user and registers a session for conn.
// A nil session with an error means nothing was written to conn yet.
func (l *Lobby) Login(ctx context.Context, conn net.Conn, w *protocol.Writer, username, credential string) (*Session, error) {
	if l.draining.Load() {
		return nil, errors.ErrServerClosed
	}
	if err := auth.ValidateUsername(username); err != nil {
		return nil, err
	}
	// Cheap rejection before any credential work; Register below stays authoritative.
	if l.registry.Contains(username) {
		return nil, errors.ErrUsernameTaken
	}
	if err := l.auth.Authenticate(ctx, username, credential); err != nil {
		return nil, err
	}

	s := NewSession(username, conn, w, l.writeTimeout)
	registered := false
	// Registering under the session's write lock keeps broadcasts from
	// reaching the client before its login reply. A failed reply closes the
	// session before the lock is released, so a broadcaster that saw the
	// registration gets ErrSessionClosed and leaves the cleanup to us.
	err := s.Do(func(w *protocol.Writer) error {
		if err := l.registry.Register(s); err != nil {
			return err
		}
		registered = true
		err := writeLoginReply(w, true, fmt.Sprintf("Welcome to NetQuiz chat, %s!", username))
		if err != nil {
			_ = s.Close()
		}
		return err
	})
	if err != nil {
		if !registered {
			return nil, err
		}
		l.registry.Unregister(s)
		return s, fmt.Errorf("login reply: %w", err)
	}

	l.log.Info("User joined", "username", username, "session_id", s.ID, "remote", s.RemoteAddr())
	l.hub.Broadcast(domain.NewJoin(username), username)
	l.hub.RefreshUserList()
	l.announcer.Announce(domain.JoinedNotice(username))
	return s, nil
}

// serve reads chat lines until logout or a read failure.
func (l *Lobby) serve(ctx context.Context, s *Session, r *protocol.Reader) {
	reason := "logout"
	defer func() { l.Disconnect(s, reason) }()

	if l.idleTimeout == 0 {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	for ctx.Err() == nil {
		if l.idleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(l.idleTimeout))
		}
		line, err := r.ReadString()
		if err != nil {
			reason = readFailure(err)
			return
		}
		if l.interpreter.Interpret(line, s) {
			return
		}
	}
	reason = "server stopping"
}

// Disconnect removes s and tells everyone else. Only the call that actually
// removes s from the registry broadcasts, so each session leaves once.
func (l *Lobby) Disconnect(s *Session, reason string) {
	removed := l.registry.Unregister(s)
	_ = s.Close()
	if !removed {
		return
	}

	l.log.Info("User left", "username", s.Username(), "session_id", s.ID, "reason", reason)
	if l.draining.Load() {
		return
	}
	l.hub.Broadcast(domain.NewLeave(s.Username()))
	l.hub.RefreshUserList()
	l.announcer.Announce(domain.LeftNotice(s.Username()))
}

// Shutdown stops accepting logins and closes every live session.
func (l *Lobby) Shutdown() {
	l.draining.Store(true)
	for _, s := range l.registry.Sessions() {
		l.Disconnect(s, "server stopping")
	}
}

func readFailure(err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		return "connection closed by peer"
	case errors.As(err, &ne) && ne.Timeout():
		return "idle timeout"
	default:
		return fmt.Sprintf("read failed: %v", err)
	}
}

func rejectionReason(err error) string {
	for _, sentinel := range []error{
		errors.ErrUsernameTaken,
		errors.ErrInvalidUsername,
		errors.ErrInvalidCredentials,
		errors.ErrServerClosed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "login failed"
}

func writeLoginReply(w *protocol.Writer, accepted bool, text string) error {
	if err := writeLoginFields(w, accepted, text); err != nil {
		return err
	}
	return w.Flush()
}

func writeLoginFields(w *protocol.Writer, accepted bool, text string) error {
	if err := w.WriteBool(accepted); err != nil {
		return err
	}
	return w.WriteString(text)
}
