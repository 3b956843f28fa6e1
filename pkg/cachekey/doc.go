// Package cachekey derives deterministic cache keys from named fields.
//
// A [Builder] collects fields, canonicalizes them (sorted by name, every
// component length-prefixed so untrusted values cannot forge field
// boundaries), and hashes the result with xxhash into a fixed-width 64-bit
// [Key]. Two logically equal requests built through different code paths
// always produce the same key.
//
// Two namespaces share the primitive in practice: image artifact keys built
// directly with [New], and page-metadata keys built with [ForPage].
package cachekey
