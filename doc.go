// Package ogimage renders shareable preview images ("OG images") on
// demand and serves repeats from a TTL cache keyed by the exact inputs
// that produced them, so the same title/description/template combination
// never renders twice.
//
// # Quick Start
//
// Create an [Engine], configure it with options, and call
// [Engine.GetOrRender]:
//
//	eng := ogimage.New(
//	    ogimage.WithDefaultTTL(15 * time.Minute),
//	    ogimage.WithMaxEntries(2048),
//	)
//	defer eng.Close()
//
//	png, err := eng.GetOrRender(ctx, ogimage.Request{
//	    Template:    "simple",
//	    Title:       "Hello",
//	    Description: "World",
//	    Width:       1200,
//	    Height:      630,
//	})
//
// # How a request flows
//
// The engine derives a deterministic 64-bit key from the request
// (pkg/cachekey), answers from the artifact cache on a hit
// (pkg/artifactcache), and on a miss coalesces concurrent callers onto a
// single render (pkg/flight). The elected leader binds the template into
// a render tree (pkg/template), rasterizes it to PNG (pkg/encoder) inside
// a bounded worker slot (pkg/renderpool), inserts the bytes into the
// cache, and only then publishes the outcome to every waiter.
//
// Fifty concurrent callers asking for the same unseen request cost
// exactly one render; the other forty-nine receive the identical bytes.
// A failed render releases the key so the next caller starts fresh.
//
// # Backends
//
// The engine owns an in-memory cache by default. Use [WithCache] with an
// artifactcache.Redis to share artifacts between replicas, and
// [WithPublisher] to write rendered bytes through to S3-compatible
// storage for CDN serving.
package ogimage
