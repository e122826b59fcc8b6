package runtime

import (
	"netquiz/contract"
	"netquiz/errors"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Registry is the directory of live chat sessions keyed by username.
// Insertion is a single test-and-insert under the write lock so two logins
// racing on the same name can never both succeed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register inserts the session unless its username is already live.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.Username()]; exists {
		return errors.ErrUsernameTaken
	}
	r.sessions[s.Username()] = s
	return nil
}

// Unregister removes s only if it is still the session registered under its
// username, so a stale disconnect never evicts a newer login.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[s.Username()]
	if !ok || current != s {
		return false
	}
	delete(r.sessions, s.Username())
	return true
}

func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[username]
	return s, ok
}

func (r *Registry) Contains(username string) bool {
	_, ok := r.Lookup(username)
	return ok
}

func (r *Registry) Find(username string) (contract.Recipient, bool) {
	s, ok := r.Lookup(username)
	if !ok {
		return nil, false
	}
	return s, true
}

// Usernames returns the sorted live usernames.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	names := lo.Keys(r.sessions)
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.sessions)
}

func (r *Registry) Recipients() []contract.Recipient {
	return lo.Map(r.Sessions(), func(s *Session, _ int) contract.Recipient {
		return s
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
