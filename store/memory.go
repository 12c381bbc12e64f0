package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/skillforge/authkit/identity"
)

// MemoryStore is an in-process Store. It round-trips the profile through
// JSON so it behaves like the durable store, including corrupt-blob
// tolerance, which makes it a faithful stand-in for tests.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	refresh string
	profile []byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	if !snap.Session.Valid() || snap.Profile == nil {
		return errPartial
	}
	blob, err := json.Marshal(snap.Profile)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = snap.Session.AccessToken
	s.refresh = snap.Session.RefreshToken
	s.profile = blob
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return Snapshot{}, false, nil
	}
	var profile identity.UserProfile
	if err := json.Unmarshal(s.profile, &profile); err != nil || profile.ID == "" {
		s.token, s.refresh, s.profile = "", "", nil
		return Snapshot{}, false, nil
	}
	return Snapshot{
		Session: identity.Session{AccessToken: s.token, RefreshToken: s.refresh},
		Profile: &profile,
	}, true, nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.refresh, s.profile = "", "", nil
	return nil
}

// Corrupt overwrites the stored profile blob, for tests exercising the
// corrupt-state tolerance path.
func (s *MemoryStore) Corrupt(blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = append([]byte(nil), blob...)
}
