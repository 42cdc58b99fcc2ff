package object

import "github.com/oxhq/esengine/internal/value"

// storageMode is the PropertyMap's current representation (spec §3.3
// "hybrid structure with two modes").
type storageMode uint8

const (
	modeShape storageMode = iota
	modeDict
)

// slotValue is what a shape-mode slot (or a dictionary entry) actually
// stores: either a data value, or a get/set accessor pair. Splitting
// this from Descriptor keeps the hot data-property path a single
// value.Value read.
type slotValue struct {
	data value.Value
	get  value.Value
	set  value.Value
}

// dictEntry is one dictionary-mode property: its descriptor bits plus
// insertion order, used to keep enumeration order-preserving even
// though the backing structure is a hash map (spec §3.3 "ordered hash
// map").
type dictEntry struct {
	attrs slotValue
	attr  Attrs
	order int
}

// PropertyMap implements spec §3.3's hybrid property storage: shape
// mode while the object's insertion history is still worth sharing
// with siblings, dictionary mode once that stops being profitable
// (delete of a non-last property, a reconfiguration, or a threshold
// property count — spec §4.3 "Shape transitions").
//
// Grounded on internal/core/manipulator.go's own mode-keyed dispatch
// (it picks behavior by an Operation enum the way PropertyMap picks
// storage behavior by mode) and internal/matcher/tree.go's typed node
// walk (the enumeration order walk below mirrors its grouped traversal).
type PropertyMap struct {
	mode  storageMode
	shape *Shape   // valid in modeShape
	slots []slotValue // parallel to shape.Keys(), valid in modeShape

	dict      map[Key]*dictEntry // valid in modeDict
	dictOrder int                // next insertion-order counter

	extensible bool
}

// DictionaryThreshold is the property count at which a shape-mode
// object proactively switches to dictionary mode even without a
// deletion or reconfiguration (spec §3.3 "reaching a threshold count").
const DictionaryThreshold = 64

// NewPropertyMap creates an empty, extensible, shape-mode property map
// rooted at the shared empty shape.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{mode: modeShape, shape: RootShape(), extensible: true}
}

func (m *PropertyMap) IsExtensible() bool   { return m.extensible }
func (m *PropertyMap) PreventExtensions()   { m.extensible = false }

// Shape exposes the current shape for objects still in shape mode (used
// by the testable "shape sharing" property); returns nil in dictionary
// mode.
func (m *PropertyMap) Shape() *Shape {
	if m.mode == modeShape {
		return m.shape
	}
	return nil
}

// Get returns the current descriptor for key, if any.
func (m *PropertyMap) Get(key Key) (Descriptor, bool) {
	if m.mode == modeDict {
		e, ok := m.dict[key]
		if !ok {
			return Descriptor{}, false
		}
		return m.descriptorOf(e.attr, e.attrs), true
	}
	slot, attrs, found := m.shape.Lookup(key)
	if !found {
		return Descriptor{}, false
	}
	return m.descriptorOf(attrs, m.slots[slot]), true
}

func (m *PropertyMap) descriptorOf(attrs Attrs, sv slotValue) Descriptor {
	d := descriptorFromAttrs(attrs)
	if d.IsAccessor() {
		d.Get, d.Set = sv.get, sv.set
	} else {
		d.Value = sv.data
	}
	return d
}

// Define implements DefineOwnProperty's storage half: apply the 9-case
// transition matrix (descriptor.go) and commit the result, migrating to
// dictionary mode whenever shape mode can no longer represent the
// change. Returns false if the matrix rejects the definition.
func (m *PropertyMap) Define(key Key, desc Descriptor) bool {
	cur, hasCurrent := m.Get(key)
	merged, ok := ValidateAndApplyPropertyDescriptor(m.extensible, &cur, hasCurrent, desc)
	if !ok {
		return false
	}

	sv := slotValue{data: merged.Value, get: merged.Get, set: merged.Set}
	attrs := attrsOf(merged)

	if hasCurrent {
		// Any redefinition of an existing key can't extend a shared
		// shape node's attributes without corrupting siblings —
		// dictionary mode is required except for a like-for-like
		// value-only update of an existing data slot in shape mode.
		if m.mode == modeShape {
			slot, curAttrs, _ := m.shape.Lookup(key)
			if curAttrs == attrs {
				m.slots[slot] = sv
				return true
			}
			m.migrateToDict()
		}
		e := m.dict[key]
		e.attr = attrs
		e.attrs = sv
		return true
	}

	if m.mode == modeShape && m.shape.depth < DictionaryThreshold {
		m.shape = m.shape.Transition(key, attrs)
		m.slots = append(m.slots, sv)
		return true
	}
	if m.mode == modeShape {
		m.migrateToDict()
	}
	m.dict[key] = &dictEntry{attrs: sv, attr: attrs, order: m.dictOrder}
	m.dictOrder++
	return true
}

// Delete removes key. Deleting the most-recently-added property of a
// shape-mode object is cheap (the shape pointer simply walks back to
// its parent); deleting any other property forces dictionary mode
// (spec §4.3 "Deletions... push the object into dictionary mode
// irrevocably").
func (m *PropertyMap) Delete(key Key) bool {
	cur, hasCurrent := m.Get(key)
	if !hasCurrent {
		return true // deleting an absent property is a no-op success
	}
	if !cur.Configurable {
		return false
	}
	if m.mode == modeShape {
		if m.shape.key == key && m.shape.parent != nil {
			m.slots = m.slots[:len(m.slots)-1]
			m.shape = m.shape.parent
			return true
		}
		m.migrateToDict()
	}
	delete(m.dict, key)
	return true
}

func (m *PropertyMap) migrateToDict() {
	dict := make(map[Key]*dictEntry, m.shape.depth)
	keys := m.shape.Keys()
	order := 0
	for slot, key := range keys {
		_, attrs, _ := m.shape.Lookup(key)
		dict[key] = &dictEntry{attrs: m.slots[slot], attr: attrs, order: order}
		order++
	}
	m.mode = modeDict
	m.shape = nil
	m.slots = nil
	m.dict = dict
	m.dictOrder = order
}

// OwnPropertyKeys returns every own key in spec enumeration order:
// ascending array indices, then strings in insertion order, then
// symbols in insertion order (spec §4.3 "Enumeration order"), for
// either storage mode.
func (m *PropertyMap) OwnPropertyKeys() []Key {
	var indices []uint32
	var strs, syms []ordered

	visit := func(key Key, order int) {
		switch key.kind {
		case KeyIndex:
			indices = append(indices, key.idx)
		case KeyString:
			strs = append(strs, ordered{key, order})
		case KeySymbol:
			syms = append(syms, ordered{key, order})
		}
	}

	if m.mode == modeShape {
		for slot, key := range m.shape.Keys() {
			visit(key, slot)
		}
	} else {
		for key, e := range m.dict {
			visit(key, e.order)
		}
	}

	sortUint32(indices)
	sortOrdered(strs)
	sortOrdered(syms)

	out := make([]Key, 0, len(indices)+len(strs)+len(syms))
	for _, i := range indices {
		out = append(out, IndexKey(i))
	}
	for _, o := range strs {
		out = append(out, o.key)
	}
	for _, o := range syms {
		out = append(out, o.key)
	}
	return out
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

type ordered struct {
	key   Key
	order int
}

func sortOrdered(s []ordered) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].order > s[j].order; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
