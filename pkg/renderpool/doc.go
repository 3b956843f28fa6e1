// Package renderpool bounds concurrent CPU-heavy render work with a
// weighted semaphore, so a burst of cache misses cannot monopolize the
// process while unrelated requests are being served.
package renderpool
