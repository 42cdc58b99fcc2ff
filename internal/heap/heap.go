// Package heap implements the engine's tracing garbage collector
// (spec §4.1): a stop-the-world, non-moving, non-generational
// mark-and-sweep collector over every managed allocation (objects,
// strings, symbols, bigints, environments, modules, code blocks).
//
// The design mirrors the teacher's internal/db.DB: a single struct that
// exclusively owns a pool of managed records behind a mutex and exposes
// a narrow lifecycle API (open/close, here alloc/collect), the same
// "sole owner of shared state" shape internal/db/db.go plays for SQL
// rows and core/transaction.go plays for a staged commit/rollback.
package heap

import (
	"fmt"
	"sync"

	"github.com/oxhq/esengine/internal/xlog"
)

// Kind classifies what a Cell actually stores, purely for diagnostics
// and finalization ordering; it plays no role in tracing.
type Kind uint8

const (
	KindObject Kind = iota
	KindString
	KindSymbol
	KindBigInt
	KindEnvironment
	KindModule
	KindCodeBlock
	KindGeneratorContext
	KindArrayBuffer
)

func (k Kind) String() string {
	names := [...]string{"Object", "String", "Symbol", "BigInt", "Environment", "Module", "CodeBlock", "GeneratorContext", "ArrayBuffer"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Visitor is passed to every Cell's Trace method; a Cell reports each
// Handle it directly references by calling Mark.
type Visitor struct {
	h *Heap
}

// Mark records ref as reachable and, the first time it is seen this
// cycle, recurses into its own Trace.
func (v *Visitor) Mark(ref Handle) {
	v.h.mark(ref)
}

// Cell is implemented by every heap-allocated type. Trace must call
// visitor.Mark for every Handle the cell holds a strong (non-weak)
// reference to — prototype pointers, closed-over environments,
// property values, nested CodeBlocks, module dependency edges, and so
// on (spec §4.1 "every heap type exposes a trace(visitor)").
type Cell interface {
	Kind() Kind
	Trace(v *Visitor)
}

// Finalizable is implemented by cells that own host resources (backing
// buffers, typed-array views, open file handles via host hooks) that
// must be released before generic ordinary objects are swept (spec
// §4.1 "Finalization order").
type Finalizable interface {
	Finalize()
}

// Handle is an opaque reference to a heap-allocated Cell (spec §4.1:
// "Allocation returns an opaque handle... a handle dereference is an
// O(1) pointer indirection"). The zero Handle is never allocated and
// always dereferences to nil, so a zeroed struct field reads safely as
// "no cell".
type Handle uint32

const nullHandle Handle = 0

type slot struct {
	cell  Cell
	marked bool
	alive bool
}

// Stats summarizes the outcome of one collection cycle, logged by
// internal/xlog at Debug level.
type Stats struct {
	Scanned   int
	Swept     int
	Live      int
	Finalized int
}

// Heap owns every managed allocation for one engine instance. Per spec
// §5 ("no value may cross instance boundaries"), heaps are never
// shared between Context instances.
type Heap struct {
	mu    sync.Mutex
	slots []slot // index 0 is the permanently-dead null slot
	free  []Handle

	rootCounts map[Handle]int // Rooted[T] reference counts

	weak        []*weakRef
	finalizerCB func(Handle) // host FinalizationRegistry callback enqueue hook

	allocsSinceGC int
	gcThreshold   int

	// Log, when non-nil, receives a Debug event at the start/end of every
	// Collect cycle (§4.1a's GC cycle start/stop diagnostic; the stop
	// event carries live, swept and finalized cell counts, not bytes).
	// Nil by default — SetLogger opts in.
	Log *xlog.Logger
}

// SetLogger installs the diagnostic logger Collect reports cycle
// start/stop events through.
func (h *Heap) SetLogger(l *xlog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Log = l
}

// New creates an empty heap. gcThreshold is the number of allocations
// between automatic MaybeCollect sweeps; 0 selects a sane default.
func New(gcThreshold int) *Heap {
	if gcThreshold <= 0 {
		gcThreshold = 4096
	}
	h := &Heap{
		rootCounts:  make(map[Handle]int),
		gcThreshold: gcThreshold,
	}
	h.slots = append(h.slots, slot{}) // reserve handle 0 as null
	return h
}

// SetFinalizationCallback installs the host hook invoked once per
// FinalizationRegistry-registered target that the collector discovers
// unreachable (spec §4.1 "cleanup callbacks are enqueued on the host
// job queue").
func (h *Heap) SetFinalizationCallback(cb func(Handle)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finalizerCB = cb
}

// Alloc admits a new cell into the heap and returns its handle. Per
// spec §4.1, any handle held across a safepoint must be rooted by the
// caller (Root) before the next MaybeCollect/Collect call.
func (h *Heap) Alloc(c Cell) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	var ref Handle
	if n := len(h.free); n > 0 {
		ref = h.free[n-1]
		h.free = h.free[:n-1]
		h.slots[ref] = slot{cell: c, alive: true}
	} else {
		ref = Handle(len(h.slots))
		h.slots = append(h.slots, slot{cell: c, alive: true})
	}
	h.allocsSinceGC++
	return ref
}

// Get dereferences a handle. Returns nil for the null handle or a
// handle that has been collected — callers that hold a live Rooted
// value never observe nil for a reachable object.
func (h *Heap) Get(ref Handle) Cell {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.get(ref)
}

func (h *Heap) get(ref Handle) Cell {
	if ref == nullHandle || int(ref) >= len(h.slots) {
		return nil
	}
	s := h.slots[ref]
	if !s.alive {
		return nil
	}
	return s.cell
}

// Root increments ref's root count, keeping it (and everything it
// transitively reaches) alive across the next collection regardless of
// graph reachability from other roots. Pair with Unroot.
func (h *Heap) Root(ref Handle) {
	if ref == nullHandle {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rootCounts[ref]++
}

// Unroot decrements ref's root count. Once it reaches zero, ref is only
// kept alive by ordinary graph reachability.
func (h *Heap) Unroot(ref Handle) {
	if ref == nullHandle {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := h.rootCounts[ref]; n <= 1 {
		delete(h.rootCounts, ref)
	} else {
		h.rootCounts[ref] = n - 1
	}
}

// MaybeCollect runs a collection only if the allocation count since the
// last cycle has crossed the configured threshold. Callers invoke this
// at safepoints (spec §4.1: "the bytecode interpreter loop's edge, the
// allocator slow paths, and explicit host calls") — never from within a
// native method body, which spec §5 forbids suspending or collecting
// mid-call except at an interpreter loop edge.
func (h *Heap) MaybeCollect() Stats {
	h.mu.Lock()
	run := h.allocsSinceGC >= h.gcThreshold
	h.mu.Unlock()
	if !run {
		return Stats{}
	}
	return h.Collect()
}

// Collect runs one full stop-the-world mark-and-sweep cycle
// unconditionally.
func (h *Heap) Collect() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Log != nil {
		h.Log.Debug("gc cycle start", "slots", len(h.slots)-1, "roots", len(h.rootCounts))
	}

	for i := range h.slots {
		h.slots[i].marked = false
	}

	v := &Visitor{h: h}
	for ref := range h.rootCounts {
		h.mark(ref)
	}
	_ = v // visitor passed into Cell.Trace from within mark

	stats := Stats{Scanned: len(h.slots) - 1}
	for ref := 1; ref < len(h.slots); ref++ {
		s := &h.slots[ref]
		if !s.alive {
			continue
		}
		if s.marked {
			stats.Live++
			continue
		}
		stats.Swept++
	}

	// Clear weak references to now-unreachable targets before sweeping
	// them, and enqueue FinalizationRegistry callbacks (spec §4.1
	// "Weak references" / "Finalization order").
	h.clearDeadWeakRefs(&stats)

	// Finalize resource-owning cells before generic ones.
	for ref := 1; ref < len(h.slots); ref++ {
		s := &h.slots[ref]
		if !s.alive || s.marked {
			continue
		}
		if f, ok := s.cell.(Finalizable); ok {
			f.Finalize()
			stats.Finalized++
		}
	}
	for ref := 1; ref < len(h.slots); ref++ {
		s := &h.slots[ref]
		if !s.alive || s.marked {
			continue
		}
		s.alive = false
		s.cell = nil
		h.free = append(h.free, Handle(ref))
	}

	h.allocsSinceGC = 0
	if h.Log != nil {
		h.Log.Debug("gc cycle stop", "live", stats.Live, "swept", stats.Swept, "finalized", stats.Finalized)
	}
	return stats
}

func (h *Heap) mark(ref Handle) {
	if ref == nullHandle || int(ref) >= len(h.slots) {
		return
	}
	s := &h.slots[ref]
	if !s.alive || s.marked {
		return
	}
	s.marked = true
	if s.cell != nil {
		s.cell.Trace(&Visitor{h: h})
	}
}

// DebugString renders a one-line summary for logging/tests.
func (h *Heap) DebugString() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fmt.Sprintf("heap{slots=%d free=%d roots=%d}", len(h.slots), len(h.free), len(h.rootCounts))
}
