// Package encoder rasterizes render trees into PNG artifact bytes.
//
// Geometry is validated before any allocation (1 to 4096 pixels per
// axis). Backgrounds can be solid or two-stop linear gradients; layers
// are drawn in document order: filled rects, wrapped and scaled text
// runs, and image assets resolved from an fs.FS supplied via
// [WithAssets].
package encoder
