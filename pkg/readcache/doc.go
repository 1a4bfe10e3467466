// Package readcache provides the shared read-through cache with per-category
// TTLs, single-flight stampede protection, and scoped invalidation.
//
// The cache sits between the read services and the primary store. It is a
// latency optimization only: every backend failure degrades to a miss and
// the caller falls back to the store.
//
// # Basic Usage
//
//	backend := cachestore.NewRedisBackend(redisClient)
//	c := readcache.New(backend, readcache.DefaultTTLConfig())
//
//	org, err := readcache.GetOrSet(ctx, c,
//		readcache.EntityKey("organization", id, nil),
//		c.TTLFor(readcache.CategoryEntity),
//		func(ctx context.Context) (entity.Organization, error) {
//			return orgStore.FindByID(ctx, id)
//		})
//
// # Invalidation
//
// Writes call the invalidation hooks; anything beyond cache invalidation
// (event emission, notifying other services) is the domain service's
// responsibility:
//
//	c.Invalidate(ctx, "organization", id)      // entity + projected variants
//	c.InvalidateList(ctx, "organization")      // every cached list page
//	c.InvalidateRelated(ctx, "clinic", clinicID, "organization", orgID)
//
// # Key Scheme
//
// Keys follow a fixed scheme shared with the other services (see keys.go).
// Two logically identical requests always map to the same key: filters are
// rendered as canonical JSON and field selections as a sorted CSV.
//
// # Consistency
//
// A write followed by invalidation is not atomic with a concurrent read
// repopulating the cache; staleness is bounded by the category TTL.
// Callers needing read-your-own-write consistency bypass the cache for
// that read.
package readcache
