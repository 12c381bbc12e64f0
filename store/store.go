package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skillforge/authkit/identity"
)

// ErrUnavailable wraps transport failures talking to the backing store.
var ErrUnavailable = errors.New("session store unavailable")

var errPartial = errors.New("refusing to persist partial session")

// Snapshot is the unit of persistence: session credentials plus the cached
// profile. A Snapshot is either fully present or fully absent.
type Snapshot struct {
	Session identity.Session
	Profile *identity.UserProfile
}

// Store persists the current session across process restarts.
//
// Contract:
//   - Save writes token, refresh token, and profile together.
//   - Load returns (snapshot, true) when a valid session is stored, and
//     (zero, false) when the store is empty or holds corrupt data; corrupt
//     data is purged, never surfaced as an error.
//   - Clear removes all keys and is idempotent.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
	Clear(ctx context.Context) error
}

const (
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
)

// RedisStore keeps the session under three keys below a common prefix.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix defaults to "authkit".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "authkit"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// Save writes all three keys in one pipeline. A persistence failure is
// returned to the caller, who decides whether to proceed memory-only.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if !snap.Session.Valid() || snap.Profile == nil {
		return errPartial
	}

	blob, err := json.Marshal(snap.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(keyToken), snap.Session.AccessToken, 0)
	if snap.Session.RefreshToken != "" {
		pipe.Set(ctx, s.key(keyRefreshToken), snap.Session.RefreshToken, 0)
	} else {
		pipe.Del(ctx, s.key(keyRefreshToken))
	}
	pipe.Set(ctx, s.key(keyUser), blob, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load reads the stored session. Absence of the access token means empty.
// A profile blob that fails to deserialize is purged and reported as empty.
func (s *RedisStore) Load(ctx context.Context) (Snapshot, bool, error) {
	vals, err := s.rdb.MGet(ctx, s.key(keyToken), s.key(keyRefreshToken), s.key(keyUser)).Result()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	token, _ := vals[0].(string)
	if token == "" {
		return Snapshot{}, false, nil
	}
	refresh, _ := vals[1].(string)
	blob, _ := vals[2].(string)

	var profile identity.UserProfile
	if err := json.Unmarshal([]byte(blob), &profile); err != nil || profile.ID == "" {
		// Corrupt persisted state is absence, not an error.
		if clearErr := s.Clear(ctx); clearErr != nil {
			return Snapshot{}, false, clearErr
		}
		return Snapshot{}, false, nil
	}

	return Snapshot{
		Session: identity.Session{AccessToken: token, RefreshToken: refresh},
		Profile: &profile,
	}, true, nil
}

// Clear deletes all three keys. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.rdb.Del(ctx, s.key(keyToken), s.key(keyRefreshToken), s.key(keyUser)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
