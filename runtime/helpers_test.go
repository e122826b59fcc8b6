package runtime

import (
	"context"
	"log/slog"
	"net"
	"netquiz/auth"
	"netquiz/client"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/protocol"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const frameTimeout = 2 * time.Second

type recordingAnnouncer struct {
	mu    sync.Mutex
	lines []domain.Notification
}

func (a *recordingAnnouncer) Announce(n domain.Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, n)
}

func (a *recordingAnnouncer) Lines() []domain.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.lines)
}

type testServer struct {
	addr      string
	registry  *Registry
	lobby     *Lobby
	server    *Server
	announcer *recordingAnnouncer
	done      chan error
}

// startServer runs a chat-only server on a loopback port until the test ends.
func startServer(t *testing.T, authenticator contract.Authenticator) *testServer {
	t.Helper()
	if authenticator == nil {
		authenticator = auth.AcceptAll{}
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	registry := NewRegistry()
	hub := NewHub(log, registry)
	announcer := &recordingAnnouncer{}
	lobby := NewLobby(log, registry, hub, NewInterpreter(log, hub, registry, nil), announcer, authenticator, 0, time.Second)
	router := NewRouter(log, time.Second).Register(lobby, protocol.TagChat, protocol.TagUser)
	server := NewServer(log, router, lobby, 2*time.Second)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ts := &testServer{
		addr:      ln.Addr().String(),
		registry:  registry,
		lobby:     lobby,
		server:    server,
		announcer: announcer,
		done:      make(chan error, 1),
	}
	go func() { ts.done <- server.Serve(context.Background(), ln) }()
	t.Cleanup(func() { _ = server.Shutdown() })
	return ts
}

func login(t *testing.T, ts *testServer, username string) *client.Chat {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	chat, err := client.Login(ctx, ts.addr, username, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = chat.Close() })
	return chat
}

func expectFrame(req *require.Assertions, chat *client.Chat, tag, text string) {
	f, err := chat.Next(frameTimeout)
	req.NoError(err)
	req.Equal(tag, f.Tag, "unexpected frame %+v for %s", f, chat.Username)
	req.Equal(text, f.Text)
}

func expectUsers(req *require.Assertions, chat *client.Chat, users ...string) {
	f, err := chat.Next(frameTimeout)
	req.NoError(err)
	req.Equal(protocol.FrameUserList, f.Tag, "unexpected frame %+v for %s", f, chat.Username)
	req.Equal(users, f.Items)
}
