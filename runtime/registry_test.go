package runtime

import (
	"net"
	"netquiz/errors"
	"netquiz/protocol"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipeSession(t *testing.T, username string) *Session {
	t.Helper()
	server, peer := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = peer.Close()
	})
	return NewSession(username, server, protocol.NewWriter(server), time.Second)
}

func TestRegistry_Register_Then_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := pipeSession(t, "alice")

	// Given no user is connected
	req.Zero(registry.Len())
	req.Empty(registry.Usernames())

	// When alice registers
	req.NoError(registry.Register(alice))

	// Then she can be found by name
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(alice, found)
	req.True(registry.Contains("alice"))
	req.Equal(1, registry.Len())

	recipient, ok := registry.Find("alice")
	req.True(ok)
	req.Equal("alice", recipient.Username())

	_, ok = registry.Find("bob")
	req.False(ok)
}

func TestRegistry_Register_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := pipeSession(t, "alice")
	second := pipeSession(t, "alice")

	// Given alice is connected
	req.NoError(registry.Register(first))

	// When another session claims the same name
	err := registry.Register(second)

	// Then it is refused and the first session is kept
	req.ErrorIs(err, errors.ErrUsernameTaken)
	found, _ := registry.Lookup("alice")
	req.Same(first, found)
}

func TestRegistry_Usernames_Are_Sorted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	for _, name := range []string{"carol", "alice", "bob"} {
		req.NoError(registry.Register(pipeSession(t, name)))
	}

	req.Equal([]string{"alice", "bob", "carol"}, registry.Usernames())
	req.Len(registry.Sessions(), 3)
	req.Len(registry.Recipients(), 3)
}

func TestRegistry_Unregister_Only_Removes_Same_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	stale := pipeSession(t, "alice")
	current := pipeSession(t, "alice")

	// Given alice reconnected after her first session was removed
	req.NoError(registry.Register(stale))
	req.True(registry.Unregister(stale))
	req.NoError(registry.Register(current))

	// When the stale session is unregistered again
	removed := registry.Unregister(stale)

	// Then the new session stays registered
	req.False(removed)
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(current, found)

	// And removing the live session works exactly once
	req.True(registry.Unregister(current))
	req.False(registry.Unregister(current))
	req.Zero(registry.Len())
}

func TestRegistry_Concurrent_Register_Same_Name(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const contenders = 50

	sessions := make([]*Session, contenders)
	for i := range sessions {
		sessions[i] = pipeSession(t, "alice")
	}

	// When many sessions race for the same name
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if registry.Register(s) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Then exactly one wins
	req.Equal(1, successes)
	req.Equal(1, registry.Len())
}
