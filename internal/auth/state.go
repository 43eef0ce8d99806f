package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// StateTTL is how long an issued OAuth state stays valid. The user has to
// click through the Strava consent screen within this window.
const StateTTL = 10 * time.Minute

// StateStore issues and consumes one-time CSRF states for the OAuth
// redirect flow. States expire after StateTTL and are removed on first use.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]time.Time)}
}

// Issue generates a random state and remembers it until consumed or expired.
func (s *StateStore) Issue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.states[state] = time.Now().Add(StateTTL)
	return state, nil
}

// Consume validates a state returned on the callback. A state is only
// good once.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

func (s *StateStore) sweepLocked() {
	now := time.Now()
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}
