// Package index holds the in-memory key→location index that lets the
// engine find a key's most recent Set record without scanning the log.
package index

import "sort"

// Pos locates a command record inside the log: the byte offset it
// starts at, and the exact number of bytes the serializer wrote for it.
type Pos struct {
	Offset int64
	Length int64
}

// Index maps a live key to the position of its latest Set record.
// It is not safe for concurrent use; the engine that owns it runs on a
// single goroutine, per the store's concurrency model.
type Index struct {
	entries map[string]Pos
}

// New returns an empty Index.
func New() *Index {
	return &Index{entries: make(map[string]Pos)}
}

// Get returns the position for key and whether it was present.
func (idx *Index) Get(key string) (Pos, bool) {
	pos, ok := idx.entries[key]
	return pos, ok
}

// Put inserts or overwrites key's position, returning the previous
// position and whether one existed (so the caller can account for the
// bytes it just superseded).
func (idx *Index) Put(key string, pos Pos) (Pos, bool) {
	old, ok := idx.entries[key]
	idx.entries[key] = pos
	return old, ok
}

// Delete removes key from the index, returning its position and whether
// it was present.
func (idx *Index) Delete(key string) (Pos, bool) {
	old, ok := idx.entries[key]
	if ok {
		delete(idx.entries, key)
	}
	return old, ok
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// SortedKeys returns every live key in ascending order, so that a
// compaction produces a deterministic new log across runs.
func (idx *Index) SortedKeys() []string {
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the index contents as a plain map, useful
// for tests that need to compare the in-memory state against a
// freshly-replayed one.
func (idx *Index) Snapshot() map[string]Pos {
	out := make(map[string]Pos, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}
