// Package objstore publishes rendered artifacts to S3-compatible object
// storage. The engine uses it as an optional best-effort write-through:
// artifact keys are content-derived, so published objects are immutable
// and can carry long CDN cache lifetimes.
package objstore
