// Package flight provides typed single-flight coordination on top of
// golang.org/x/sync/singleflight.
//
// Under N concurrent callers for the same unseen key, exactly one
// execution runs; the other N-1 callers receive the identical result
// without duplicating the work. Failures release the slot, so the next
// call for the key starts fresh.
package flight
