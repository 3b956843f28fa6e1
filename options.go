package ogimage

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/cloud-shuttle/ogimage/pkg/artifactcache"
	"github.com/cloud-shuttle/ogimage/pkg/template"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	cache         artifactcache.Cache[[]byte]
	source        template.Source
	templates     fs.FS
	assets        fs.FS
	log           *slog.Logger
	publisher     Publisher
	publishPrefix string
	defaultTTL    time.Duration
	maxEntries    int
	maxConcurrent int
	renderTimeout time.Duration
}

func defaultOptions() *options {
	return &options{
		defaultTTL:    time.Hour,
		maxEntries:    1024,
		maxConcurrent: 0, // renderpool falls back to GOMAXPROCS
		renderTimeout: 30 * time.Second,
	}
}

// WithCache supplies a cache backend. Without it the engine owns an
// in-memory cache configured from WithDefaultTTL and WithMaxEntries.
// Supplied caches are managed by the caller; the engine will not close them.
func WithCache(c artifactcache.Cache[[]byte]) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithDefaultTTL sets how long rendered artifacts stay cached when the
// request does not specify a TTL. Only applies to the engine-owned
// in-memory cache.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithMaxEntries bounds the engine-owned in-memory cache. Beyond the
// bound, the entry with the smallest remaining TTL is evicted first.
// Default: 1024.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithMaxConcurrent bounds how many renders execute at once.
// Default: GOMAXPROCS.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithRenderTimeout bounds a single render from slot acquisition through
// encoding. On timeout every caller waiting on the key receives
// ErrCancelled. Zero disables the timeout.
// Default: 30 seconds.
func WithRenderTimeout(d time.Duration) Option {
	return func(o *options) {
		o.renderTimeout = d
	}
}

// WithTemplates adds a template source consulted before the embedded
// builtins. Documents are loaded as "<id>.yaml" from fsys.
func WithTemplates(fsys fs.FS) Option {
	return func(o *options) {
		o.templates = fsys
	}
}

// WithTemplateSource adds an arbitrary template source consulted before
// the embedded builtins. Takes precedence over WithTemplates.
func WithTemplateSource(src template.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithAssets sets the filesystem image layers resolve their refs against.
func WithAssets(fsys fs.FS) Option {
	return func(o *options) {
		o.assets = fsys
	}
}

// WithLogger sets the engine logger. Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithPublisher enables best-effort write-through of rendered artifacts
// to object storage under "<prefix>/<key>.png". Publish failures are
// logged and never surfaced to callers.
func WithPublisher(p Publisher, prefix string) Option {
	return func(o *options) {
		o.publisher = p
		o.publishPrefix = prefix
	}
}
