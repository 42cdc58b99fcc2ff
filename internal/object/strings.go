package object

import (
	"hash/fnv"
	"sync"

	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// stringCell is the heap allocation backing a runtime String value
// (spec §3.2): an immutable UTF-16-equivalent text with a precomputed
// hash. The engine stores text as Go strings (UTF-8) internally and
// only reasons about UTF-16 code units at the boundaries the spec
// requires (length, charAt, surrogate pairs) — stored centrally in
// internal/value/strwidth.go.
type stringCell struct {
	text string
	hash uint64
}

func (s *stringCell) Kind() heap.Kind  { return heap.KindString }
func (s *stringCell) Trace(*heap.Visitor) {}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Strings is the per-engine-instance interned-string table (spec §9:
// "live per-engine-instance, not process-wide"). Well-known identifiers
// share a single allocation; runtime strings get their own.
type Strings struct {
	mu      sync.Mutex
	h       *heap.Heap
	interned map[string]value.HeapRef
}

// NewStrings creates an empty interner bound to h.
func NewStrings(h *heap.Heap) *Strings {
	return &Strings{h: h, interned: make(map[string]value.HeapRef)}
}

// Intern returns the heap reference for s, allocating and caching a new
// stringCell on first use. Matches value.StringHeap.
func (s *Strings) Intern(str string) value.HeapRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.interned[str]; ok {
		return ref
	}
	ref := value.HeapRef(s.h.Alloc(&stringCell{text: str, hash: hashString(str)}))
	s.interned[str] = ref
	return ref
}

// Lookup resolves a string handle back to its Go string. Matches
// value.StringHeap.
func (s *Strings) Lookup(ref value.HeapRef) string {
	c, ok := s.h.Get(heap.Handle(ref)).(*stringCell)
	if !ok || c == nil {
		return ""
	}
	return c.text
}

// Hash returns the precomputed hash for ref (spec §3.2: "the string's
// hash is precomputed and stored").
func (s *Strings) Hash(ref value.HeapRef) uint64 {
	c, ok := s.h.Get(heap.Handle(ref)).(*stringCell)
	if !ok || c == nil {
		return 0
	}
	return c.hash
}

// symbolCell is the heap allocation backing a Symbol (spec §3.1): an
// identity-compared value with an optional description.
type symbolCell struct {
	description string
	hasDesc     bool
}

func (s *symbolCell) Kind() heap.Kind     { return heap.KindSymbol }
func (s *symbolCell) Trace(*heap.Visitor) {}

// Symbols mints fresh, globally-unique-within-this-instance Symbol
// values (spec §3.1 "Symbol (heap, globally uniquely identified)"). Two
// calls with the same description still yield distinct identities.
type Symbols struct {
	h *heap.Heap
}

// NewSymbols creates a Symbol allocator bound to h.
func NewSymbols(h *heap.Heap) *Symbols { return &Symbols{h: h} }

// New allocates a fresh symbol with the given description.
func (s *Symbols) New(description string) value.HeapRef {
	return value.HeapRef(s.h.Alloc(&symbolCell{description: description, hasDesc: true}))
}

// Description returns the symbol's description, or ("", false) for a
// symbol created without one.
func (s *Symbols) Description(ref value.HeapRef) (string, bool) {
	c, ok := s.h.Get(heap.Handle(ref)).(*symbolCell)
	if !ok || c == nil {
		return "", false
	}
	return c.description, c.hasDesc
}
