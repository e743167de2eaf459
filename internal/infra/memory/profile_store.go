package memory

import (
	"sync"

	"streekhook/internal/domain"
)

// ProfileStore keeps session-local identities in memory. Identity must not
// outlive the client session, so there is no durable backend on purpose.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.UserProfile),
	}
}

func (s *ProfileStore) SaveProfile(sessionID string, profile domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[sessionID] = profile
}

func (s *ProfileStore) LoadProfile(sessionID string) (domain.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[sessionID]
	return profile, ok
}
