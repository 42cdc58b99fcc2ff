package object

import "github.com/oxhq/esengine/internal/heap"

// Attrs packs the writable/enumerable/configurable bits plus the
// data-vs-accessor discriminant that live in a shape node (spec §3.3
// "Property kind... and attribute bits... live in the shape node").
type Attrs uint8

const (
	AttrWritable Attrs = 1 << iota
	AttrEnumerable
	AttrConfigurable
	AttrAccessor // set => the slot holds {getterSlot, setterSlot} instead of a value
)

// DefaultDataAttrs is the attribute set a plain object-literal or
// Define-time data property gets: writable, enumerable, configurable.
const DefaultDataAttrs = AttrWritable | AttrEnumerable | AttrConfigurable

// transitionKey identifies one edge out of a Shape in its children
// transition table (spec §4.3 "the engine looks up (S, key, A) in S's
// transition table").
type transitionKey struct {
	key   Key
	attrs Attrs
}

// Shape is one node in the transition tree shared across every
// ordinary object created by the same sequence of property insertions
// with the same attributes (spec §3.3, §4.3, testable property "Shape
// sharing"). Shapes are owned by the Realm (spec §3.9) and retained
// only while some object or child shape still references them; Go's
// own GC (not the engine's tracing heap) reclaims orphaned shape nodes,
// since shapes are compiler/runtime bookkeeping, never JavaScript-
// observable heap objects in their own right.
type Shape struct {
	parent   *Shape
	key      Key   // the property this node added (zero Shape has none)
	attrs    Attrs // attributes of that property
	slot     int   // slot index of that property in the flat value vector
	depth    int   // number of properties on this shape, i.e. len(slot vector)
	children map[transitionKey]*Shape
}

// RootShape returns a fresh empty shape (slot count 0) — the starting
// point for every newly constructed ordinary object.
func RootShape() *Shape {
	return &Shape{}
}

// Depth returns the number of properties this shape describes (and
// hence the length of the flat value vector an object at this shape
// must carry).
func (s *Shape) Depth() int { return s.depth }

// Lookup walks from s up to the root looking for key, returning the
// (slot, attrs, found) triple. Ordinary objects call this via their
// Shape field; dictionary-mode objects never call it.
func (s *Shape) Lookup(key Key) (slot int, attrs Attrs, found bool) {
	for n := s; n != nil && n.parent != nil; n = n.parent {
		if n.key == key {
			return n.slot, n.attrs, true
		}
	}
	return 0, 0, false
}

// Keys returns every key reachable from the root to s, in insertion
// order (oldest first) — the order shape-mode enumeration relies on
// before the index/string/symbol regrouping pass (spec §4.3
// "Enumeration order").
func (s *Shape) Keys() []Key {
	keys := make([]Key, s.depth)
	for n := s; n != nil && n.parent != nil; n = n.parent {
		keys[n.slot] = n.key
	}
	return keys
}

// Transition returns the child shape reached by adding key with attrs,
// allocating a new child node on first use (spec §4.3 "On hit... On
// miss, a new child shape is allocated").
func (s *Shape) Transition(key Key, attrs Attrs) *Shape {
	if s.children == nil {
		s.children = make(map[transitionKey]*Shape)
	}
	tk := transitionKey{key: key, attrs: attrs}
	if child, ok := s.children[tk]; ok {
		return child
	}
	child := &Shape{
		parent: s,
		key:    key,
		attrs:  attrs,
		slot:   s.depth,
		depth:  s.depth + 1,
	}
	s.children[tk] = child
	return child
}

// shapeCell lets a Shape be referenced from heap-traced structures
// (CodeBlock constant pools can reference shapes for inline caches) —
// shapes themselves hold no heap.Handle references, so Trace is a
// no-op; included for interface completeness and future inline-cache
// use, not currently populated by the compiler.
type shapeCell struct{ s *Shape }

func (c *shapeCell) Kind() heap.Kind     { return heap.KindObject }
func (c *shapeCell) Trace(*heap.Visitor) {}
