package cachekey

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Key is a fixed-width 64-bit digest derived solely from field content.
// It is stable across processes and never depends on arrival time,
// caller identity, or memory addresses.
type Key uint64

// String returns the key as a fixed-width lowercase hex string,
// suitable for use as a map or Redis key.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

type field struct {
	name  string
	value string
}

// Builder accumulates named fields and derives a canonical Key from them.
// Fields are sorted by name before hashing, so two builders populated in
// different orders produce identical keys. A Builder is not safe for
// concurrent use; derive is cheap enough to build one per request.
type Builder struct {
	namespace string
	fields    []field
}

// New creates a Builder scoped to a namespace. Distinct namespaces
// (e.g. "image" and "page") never collide on the same field set.
func New(namespace string) *Builder {
	return &Builder{namespace: namespace}
}

// Str adds a string field.
func (b *Builder) Str(name, value string) *Builder {
	b.fields = append(b.fields, field{name: name, value: value})
	return b
}

// Int adds an integer field.
func (b *Builder) Int(name string, value int) *Builder {
	return b.Str(name, strconv.Itoa(value))
}

// Float adds a float field formatted at fixed precision, so logically
// equal values always serialize identically.
func (b *Builder) Float(name string, value float64) *Builder {
	return b.Str(name, strconv.FormatFloat(value, 'f', 6, 64))
}

// Bool adds a boolean field.
func (b *Builder) Bool(name string, value bool) *Builder {
	return b.Str(name, strconv.FormatBool(value))
}

// Dur adds a duration field serialized as integer nanoseconds.
func (b *Builder) Dur(name string, value time.Duration) *Builder {
	return b.Str(name, strconv.FormatInt(int64(value), 10))
}

// Sum derives the Key from the accumulated fields. It is a pure function
// of the namespace and field content: the same fields, in any insertion
// order, yield the same Key.
//
// The canonical form length-prefixes every component, so no value (or
// field name) can be crafted to serialize like a different field set.
// Names and values are raw bytes; nothing is reserved.
func (b *Builder) Sum() Key {
	sort.SliceStable(b.fields, func(i, j int) bool {
		return b.fields[i].name < b.fields[j].name
	})

	d := xxhash.New()
	writeComponent(d, b.namespace)
	for _, f := range b.fields {
		writeComponent(d, f.name)
		writeComponent(d, f.value)
	}

	return Key(d.Sum64())
}

// writeComponent frames one component as uvarint(len) followed by bytes.
func writeComponent(d *xxhash.Digest, s string) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
	_, _ = d.Write(lenBuf[:n])
	_, _ = d.WriteString(s)
}

// ForPage derives a key in the page-metadata namespace. Page entries are
// keyed by request path, raw query, and a user-agent class (e.g. "bot",
// "browser") rather than the raw user-agent string.
func ForPage(path, rawQuery, uaClass string) Key {
	return New("page").
		Str("path", path).
		Str("query", rawQuery).
		Str("ua_class", uaClass).
		Sum()
}
