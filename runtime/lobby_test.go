package runtime

import (
	"context"
	"io"
	"net"
	"netquiz/client"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/mocks"
	"netquiz/protocol"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLobby_Chat_Scenario(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	// Given alice, bob then carol log in
	alice := login(t, ts, "alice")
	req.Equal("Welcome to NetQuiz chat, alice!", alice.Welcome)
	expectUsers(req, alice, "alice")

	bob := login(t, ts, "bob")
	expectUsers(req, bob, "alice", "bob")
	expectFrame(req, alice, protocol.FrameSystem, "bob has joined the chat")
	expectUsers(req, alice, "alice", "bob")

	carol := login(t, ts, "carol")
	expectUsers(req, carol, "alice", "bob", "carol")
	for _, c := range []*client.Chat{alice, bob} {
		expectFrame(req, c, protocol.FrameSystem, "carol has joined the chat")
		expectUsers(req, c, "alice", "bob", "carol")
	}

	// When alice says hello
	req.NoError(alice.Send("hello"))

	// Then bob and carol see it
	expectFrame(req, bob, protocol.FrameChat, "[alice]: hello")
	expectFrame(req, carol, protocol.FrameChat, "[alice]: hello")

	// When bob whispers to carol
	req.NoError(bob.Send("/msg carol see you"))

	// Then only carol gets it and bob is told it was delivered
	expectFrame(req, carol, protocol.FramePrivate, "[Private from bob]: see you")
	expectFrame(req, bob, protocol.FrameSystem, "Message delivered to carol")

	// When carol logs out
	req.NoError(carol.Logout())

	// Then alice's next frame is the leave notice, never her own hello
	for _, c := range []*client.Chat{alice, bob} {
		expectFrame(req, c, protocol.FrameSystem, "carol has left the chat")
		expectUsers(req, c, "alice", "bob")
	}

	req.Eventually(func() bool { return ts.registry.Len() == 2 }, frameTimeout, 10*time.Millisecond)
	req.Eventually(func() bool { return len(ts.announcer.Lines()) == 4 }, frameTimeout, 10*time.Millisecond)
	req.ElementsMatch([]domain.Notification{
		domain.JoinedNotice("alice"),
		domain.JoinedNotice("bob"),
		domain.JoinedNotice("carol"),
		domain.LeftNotice("carol"),
	}, ts.announcer.Lines())
}

func TestLobby_Duplicate_Login_Rejected_Without_Broadcast(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	alice := login(t, ts, "alice")
	expectUsers(req, alice, "alice")

	// When a second alice tries to log in
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	_, err := client.Login(ctx, ts.addr, "alice", "")

	// Then she is refused with the reason
	req.ErrorIs(err, errors.ErrLoginRejected)
	req.ErrorContains(err, "username taken")

	// And the first alice saw nothing of it
	bob := login(t, ts, "bob")
	expectUsers(req, bob, "alice", "bob")
	expectFrame(req, alice, protocol.FrameSystem, "bob has joined the chat")
	req.Equal(2, ts.registry.Len())
}

func TestLobby_Concurrent_Logins_Same_Name(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	const contenders = 10

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
			defer cancel()
			chat, err := client.Login(ctx, ts.addr, "dave", "")
			if err == nil {
				t.Cleanup(func() { _ = chat.Close() })
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		req.ErrorIs(err, errors.ErrLoginRejected)
	}
	req.Equal(1, accepted)
	req.Equal([]string{"dave"}, ts.registry.Usernames())
}

func TestLobby_Invalid_Username_Rejected(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	for _, name := range []string{"", "two words", "tab\tname"} {
		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		_, err := client.Login(ctx, ts.addr, name, "")
		cancel()
		req.ErrorIs(err, errors.ErrLoginRejected, "name %q", name)
		req.ErrorContains(err, "invalid username")
	}
	req.Zero(ts.registry.Len())
}

func TestLobby_Authenticator_Refusal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	authenticator := mocks.NewMockAuthenticator(ctrl)
	authenticator.EXPECT().
		Authenticate(gomock.Any(), "alice", "wrong").
		Return(errors.ErrInvalidCredentials)
	ts := startServer(t, authenticator)

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	_, err := client.Login(ctx, ts.addr, "alice", "wrong")

	req.ErrorIs(err, errors.ErrLoginRejected)
	req.ErrorContains(err, "invalid credentials")
	req.Empty(ts.announcer.Lines())
}

func TestLobby_Abrupt_Disconnect_Broadcasts_One_Leave(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	alice := login(t, ts, "alice")
	expectUsers(req, alice, "alice")
	bob := login(t, ts, "bob")
	expectUsers(req, bob, "alice", "bob")
	expectFrame(req, alice, protocol.FrameSystem, "bob has joined the chat")
	expectUsers(req, alice, "alice", "bob")

	// When bob's connection drops without LOGOUT
	req.NoError(bob.Close())

	// Then alice is told once
	expectFrame(req, alice, protocol.FrameSystem, "bob has left the chat")
	expectUsers(req, alice, "alice")

	// And her next frame is a fresh event rather than a second leave
	carol := login(t, ts, "carol")
	expectUsers(req, carol, "alice", "carol")
	expectFrame(req, alice, protocol.FrameSystem, "carol has joined the chat")
}

func TestLobby_Get_Users_Without_Login(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	alice := login(t, ts, "alice")
	expectUsers(req, alice, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	users, err := client.Users(ctx, ts.addr)
	req.NoError(err)
	req.Equal([]string{"alice"}, users)
}

func TestLobby_Login_Reply_Failure_Unregisters(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	server, peer := net.Pipe()
	t.Cleanup(func() { _ = server.Close() })

	// Given the peer vanished before the reply
	_ = peer.Close()

	s, err := ts.lobby.Login(context.Background(), server, protocol.NewWriter(server), "ghost", "")

	// Then the session is not left behind
	req.Error(err)
	req.NotNil(s)
	req.False(s.Alive())
	req.False(ts.registry.Contains("ghost"))
	req.Empty(ts.announcer.Lines())
}

// loginPair logs alice then bob in and drains the frames of both logins.
func loginPair(t *testing.T, ts *testServer) (*client.Chat, *client.Chat) {
	req := require.New(t)
	alice := login(t, ts, "alice")
	expectUsers(req, alice, "alice")
	bob := login(t, ts, "bob")
	expectUsers(req, bob, "alice", "bob")
	expectFrame(req, alice, protocol.FrameSystem, "bob has joined the chat")
	expectUsers(req, alice, "alice", "bob")
	return alice, bob
}

// ghostSession registers a session whose client is unreachable. With open
// false the session is already closed, as a failed login reply leaves it.
func ghostSession(t *testing.T, ts *testServer, open bool) *Session {
	server, peer := net.Pipe()
	_ = peer.Close()
	t.Cleanup(func() { _ = server.Close() })

	s := NewSession("ghost", server, protocol.NewWriter(server), time.Second)
	if !open {
		_ = s.Close()
	}
	require.NoError(t, ts.registry.Register(s))
	return s
}

func TestLobby_Oversized_Line_Refused_Without_Disconnects(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	alice, bob := loginPair(t, ts)

	// When alice sends a line that only fits the wire before it is prefixed
	req.NoError(alice.Send(strings.Repeat("a", protocol.MaxStringLen-4)))

	// Then she alone is told and nobody is dropped
	expectFrame(req, alice, protocol.FrameError, tooLong)
	req.NoError(bob.Send("/msg alice " + strings.Repeat("b", protocol.MaxStringLen-11)))
	expectFrame(req, bob, protocol.FrameError, tooLong)

	req.NoError(alice.Send("still there?"))
	expectFrame(req, bob, protocol.FrameChat, "[alice]: still there?")
	req.NoError(bob.Send("yes"))
	expectFrame(req, alice, protocol.FrameChat, "[bob]: yes")
	req.Equal([]string{"alice", "bob"}, ts.registry.Usernames())
	req.Len(ts.announcer.Lines(), 2)
}

func TestLobby_Blank_Line_Not_Broadcast(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	alice, bob := loginPair(t, ts)

	// When alice sends blank lines then a real one
	req.NoError(alice.Send(""))
	req.NoError(alice.Send("   "))
	req.NoError(alice.Send("hello"))

	// Then bob only sees the real one
	expectFrame(req, bob, protocol.FrameChat, "[alice]: hello")
}

func TestLobby_Write_Failure_Runs_Target_Disconnect(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	alice, bob := loginPair(t, ts)

	// Given a registered session whose client has gone away
	ghost := ghostSession(t, ts, true)

	// When alice's message is fanned out to it
	req.NoError(alice.Send("hi"))

	// Then the ghost is removed and the others are told exactly once
	expectFrame(req, alice, protocol.FrameSystem, "ghost has left the chat")
	expectUsers(req, alice, "alice", "bob")

	var bobFrames []protocol.Frame
	for range 3 {
		f, err := bob.Next(frameTimeout)
		req.NoError(err)
		bobFrames = append(bobFrames, f)
	}
	req.ElementsMatch([]protocol.Frame{
		{Tag: protocol.FrameChat, Text: "[alice]: hi"},
		{Tag: protocol.FrameSystem, Text: "ghost has left the chat"},
		{Tag: protocol.FrameUserList, Items: []string{"alice", "bob"}},
	}, bobFrames)

	req.False(ghost.Alive())
	req.False(ts.registry.Contains("ghost"))
	req.Eventually(func() bool { return len(ts.announcer.Lines()) == 3 }, frameTimeout, 10*time.Millisecond)
	req.ElementsMatch([]domain.Notification{
		domain.JoinedNotice("alice"),
		domain.JoinedNotice("bob"),
		domain.LeftNotice("ghost"),
	}, ts.announcer.Lines())

	// And no second leave follows
	req.NoError(alice.Send("again"))
	expectFrame(req, bob, protocol.FrameChat, "[alice]: again")
}

func TestLobby_Closed_Session_Left_To_Its_Owner(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)
	alice, bob := loginPair(t, ts)

	// Given a session whose login reply failed and is still being cleaned up
	ghost := ghostSession(t, ts, false)

	// When a broadcast reaches it in that window
	req.NoError(alice.Send("hi"))

	// Then nobody is told that a user who never joined has left
	expectFrame(req, bob, protocol.FrameChat, "[alice]: hi")
	req.NoError(bob.Send("ok"))
	expectFrame(req, alice, protocol.FrameChat, "[bob]: ok")
	req.True(ts.registry.Contains("ghost"))
	req.Len(ts.announcer.Lines(), 2)

	// And the owner's own unregister stays authoritative
	req.True(ts.registry.Unregister(ghost))
}

func TestLobby_Login_Must_Arrive_Before_Tag_Timeout(t *testing.T) {
	req := require.New(t)
	ts := startServer(t, nil)

	// Given a client that sends the CHAT tag and nothing else
	conn, err := net.Dial("tcp", ts.addr)
	req.NoError(err)
	defer conn.Close()
	w := protocol.NewWriter(conn)
	req.NoError(w.WriteString(protocol.TagChat))
	req.NoError(w.Flush())

	// Then the server hangs up once the routing deadline passes
	req.NoError(conn.SetReadDeadline(time.Now().Add(3 * frameTimeout)))
	_, err = conn.Read(make([]byte, 1))
	req.ErrorIs(err, io.EOF)
}
