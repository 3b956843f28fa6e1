// Package artifactcache provides a generic TTL cache for rendered artifacts
// with in-memory and Redis implementations.
//
// Both implementations share the same [Cache] interface, so the engine can
// run on memory in a single process and on Redis across replicas.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the cache's configured default TTL (1 hour by default)
//   - Negative: entry never expires
//
// # In-Memory Cache
//
// [NewMemory] keeps entries in a hash map with a binary heap ordered by
// expiry. Expiry is checked lazily on every lookup, so a hit never returns
// a stale entry. When a maximum entry count is configured, the entry with
// the smallest remaining TTL is evicted first:
//
//	c := artifactcache.NewMemory[[]byte](
//	    artifactcache.WithDefaultTTL(5 * time.Minute),
//	    artifactcache.WithMaxEntries(1024),
//	)
//	defer c.Close()
//
// # Redis Cache
//
// [NewRedis] delegates expiry to Redis. Binary artifacts should use
// [BytesMarshaler] to avoid the base64 overhead of JSON encoding.
// Transport failures are wrapped in [ErrIO] so callers can classify them
// as transient rather than as bad input.
package artifactcache
