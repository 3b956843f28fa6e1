package ogimage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/cloud-shuttle/ogimage/pkg/artifactcache"
	"github.com/cloud-shuttle/ogimage/pkg/encoder"
	"github.com/cloud-shuttle/ogimage/pkg/flight"
	"github.com/cloud-shuttle/ogimage/pkg/renderpool"
	"github.com/cloud-shuttle/ogimage/pkg/template"
)

// Publisher receives rendered artifacts for best-effort write-through to
// external storage. *objstore.Store satisfies it.
type Publisher interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Engine is the render-cache-coalesce engine. It derives a deterministic
// key from each request, answers repeats from a TTL cache, and coalesces
// concurrent misses for the same key into a single render.
//
// An Engine is safe for concurrent use. Create one per process (or one
// per isolated cache in tests) and share it; it holds no global state.
type Engine struct {
	cache     artifactcache.Cache[[]byte]
	ownsCache bool
	renderer  *template.Renderer
	encoder   *encoder.Encoder
	flight    flight.Group[[]byte]
	pool      *renderpool.Pool
	log       *slog.Logger
	publisher Publisher
	pubPrefix string
	timeout   time.Duration
	stats     engineStats
}

// New creates an Engine.
//
// Example:
//
//	eng := ogimage.New(
//	    ogimage.WithDefaultTTL(15 * time.Minute),
//	    ogimage.WithMaxEntries(2048),
//	    ogimage.WithMaxConcurrent(4),
//	)
//	defer eng.Close()
//
//	png, err := eng.GetOrRender(ctx, ogimage.Request{
//	    Template: "simple",
//	    Title:    "Hello",
//	    Width:    1200,
//	    Height:   630,
//	})
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		cache:     o.cache,
		pool:      renderpool.New(o.maxConcurrent),
		log:       o.log,
		publisher: o.publisher,
		pubPrefix: o.publishPrefix,
		timeout:   o.renderTimeout,
	}

	if e.cache == nil {
		e.cache = artifactcache.NewMemory[[]byte](
			artifactcache.WithDefaultTTL(o.defaultTTL),
			artifactcache.WithMaxEntries(o.maxEntries),
		)
		e.ownsCache = true
	}

	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var rendererOpts []template.RendererOption
	switch {
	case o.source != nil:
		rendererOpts = append(rendererOpts, template.WithSource(o.source))
	case o.templates != nil:
		rendererOpts = append(rendererOpts, template.WithSource(template.NewFSSource(o.templates)))
	}
	e.renderer = template.NewRenderer(rendererOpts...)

	var encoderOpts []encoder.Option
	if o.assets != nil {
		encoderOpts = append(encoderOpts, encoder.WithAssets(o.assets))
	}
	e.encoder = encoder.New(encoderOpts...)

	return e
}

// GetOrRender returns the artifact for req, rendering it at most once no
// matter how many callers ask concurrently. This is the engine's sole
// public entry point.
//
// Errors are never retried internally. Use IsBadInput to distinguish
// request problems from transient conditions; ErrCancelled marks renders
// abandoned through context cancellation or timeout.
func (e *Engine) GetOrRender(ctx context.Context, req Request) ([]byte, error) {
	key := req.key().String()

	data, err := e.cache.Get(ctx, key)
	if err == nil {
		e.stats.hits.Add(1)
		return data, nil
	}
	if !errors.Is(err, artifactcache.ErrNotFound) {
		// Degraded backend: treat as a miss and keep serving.
		e.log.WarnContext(ctx, "cache lookup failed", "key", key, "error", err)
	}
	e.stats.misses.Add(1)

	// The leader renders on a detached context so one impatient caller
	// cannot cancel work that other waiters (and the cache) depend on.
	renderCtx := context.WithoutCancel(ctx)

	data, shared, err := e.flight.Do(ctx, key, func() ([]byte, error) {
		return e.render(renderCtx, key, req)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Join(ErrCancelled, err)
		}
		return nil, err
	}

	if shared {
		e.stats.coalesced.Add(1)
	}

	return data, nil
}

// render executes the pipeline as the single-flight leader: bind the
// template, encode, insert into the cache, then publish. The cache insert
// happens before the outcome reaches any waiter.
func (e *Engine) render(ctx context.Context, key string, req Request) ([]byte, error) {
	e.stats.renders.Add(1)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	renderID := uuid.NewString()
	start := time.Now()

	var data []byte
	err := e.pool.Do(ctx, func() error {
		tree, err := e.renderer.Render(ctx, req.Template, req.params())
		if err != nil {
			return err
		}

		if req.Width > 0 {
			tree.Width = req.Width
		}
		if req.Height > 0 {
			tree.Height = req.Height
		}

		// A render that already blew its deadline must not start encoding;
		// waiters are due their ErrCancelled outcome now.
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err = e.encoder.Encode(tree)
		return err
	})
	if err != nil {
		e.log.WarnContext(ctx, "render failed",
			"render_id", renderID,
			"key", key,
			"template", req.Template,
			"error", err,
		)
		return nil, err
	}

	if err := e.cache.Set(ctx, key, data, req.TTL); err != nil {
		// Best-effort: a write failure costs a re-render, not the response.
		e.log.WarnContext(ctx, "cache insert failed", "key", key, "error", err)
	}

	e.publish(ctx, key, data)

	e.log.DebugContext(ctx, "rendered artifact",
		"render_id", renderID,
		"key", key,
		"template", req.Template,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return data, nil
}

// publish writes the artifact through to object storage, if configured.
func (e *Engine) publish(ctx context.Context, key string, data []byte) {
	if e.publisher == nil {
		return
	}

	objKey := path.Join(e.pubPrefix, key+".png")
	if err := e.publisher.Put(ctx, objKey, data, "image/png"); err != nil {
		e.log.WarnContext(ctx, "artifact publish failed", "object_key", objKey, "error", err)
	}
}

// Close releases engine-owned resources. Caches supplied via WithCache
// stay open. Close is idempotent.
func (e *Engine) Close() error {
	if e.ownsCache {
		return e.cache.Close()
	}
	return nil
}
