// Package store provides durable persistence for the client session: the
// access token, the optional refresh token, and the serialized user profile.
//
// # Design
//
// The three values are written together on every successful exchange and
// cleared together on logout. No TTL is applied; token expiry is the
// backend's concern. A load that finds no access token reports an empty
// store. A load that finds a profile blob it cannot deserialize also reports
// an empty store and purges the corrupt entries rather than surfacing an
// error — corrupt persisted state is treated as absence.
//
// # Implementations
//
//   - [RedisStore]: production store over redis, surviving process restarts.
//   - [MemoryStore]: in-process store for embedded and test use.
package store
