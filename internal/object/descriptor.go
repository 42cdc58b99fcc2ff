package object

import "github.com/oxhq/esengine/internal/value"

// Descriptor is either a data descriptor (Value/Writable) or an
// accessor descriptor (Getter/Setter); both share Enumerable and
// Configurable (spec §3.4). The Has* flags distinguish "absent" from
// "present but false/undefined" for the purposes of the 9-case
// transition matrix (ValidateAndApplyPropertyDescriptor) and of
// Object.getOwnPropertyDescriptor's partial-descriptor semantics.
type Descriptor struct {
	Value        value.Value
	Get          value.Value // callable or Undefined
	Set          value.Value // callable or Undefined
	Writable     bool
	Enumerable   bool
	Configurable bool

	HasValue        bool
	HasWritable     bool
	HasGet          bool
	HasSet          bool
	HasEnumerable   bool
	HasConfigurable bool
}

// IsAccessor reports whether this descriptor has a get/set half
// present (spec: "or an accessor descriptor").
func (d Descriptor) IsAccessor() bool { return d.HasGet || d.HasSet }

// IsData reports whether this descriptor has a value/writable half
// present.
func (d Descriptor) IsData() bool { return d.HasValue || d.HasWritable }

// IsGeneric reports a descriptor with neither data nor accessor fields,
// only enumerable/configurable.
func (d Descriptor) IsGeneric() bool { return !d.IsAccessor() && !d.IsData() }

// attrsOf packs a fully-resolved descriptor's boolean triad into Attrs
// bits, for shape-mode storage.
func attrsOf(d Descriptor) Attrs {
	var a Attrs
	if d.Writable {
		a |= AttrWritable
	}
	if d.Enumerable {
		a |= AttrEnumerable
	}
	if d.Configurable {
		a |= AttrConfigurable
	}
	if d.IsAccessor() {
		a |= AttrAccessor
	}
	return a
}

func descriptorFromAttrs(a Attrs) Descriptor {
	return Descriptor{
		Writable:     a&AttrWritable != 0,
		Enumerable:   a&AttrEnumerable != 0,
		Configurable: a&AttrConfigurable != 0,
		HasWritable:  true, HasEnumerable: true, HasConfigurable: true,
		HasValue: a&AttrAccessor == 0,
		HasGet:   a&AttrAccessor != 0,
		HasSet:   a&AttrAccessor != 0,
	}
}

// ValidateAndApplyPropertyDescriptor implements the spec's 9-case
// transition matrix (spec §3.4): given the object's extensibility, the
// current descriptor (if any), and the incoming partial descriptor,
// decide whether the change is allowed and compute the resulting
// descriptor. Returns (merged, ok) — ok=false means the definition must
// be rejected (TypeError in strict contexts, silently dropped
// otherwise, per the caller's own strictness handling).
func ValidateAndApplyPropertyDescriptor(extensible bool, current *Descriptor, hasCurrent bool, desc Descriptor) (Descriptor, bool) {
	if !hasCurrent {
		if !extensible {
			return Descriptor{}, false
		}
		return fillDefaults(desc), true
	}

	cur := *current
	if !desc.HasValue && !desc.HasWritable && !desc.HasGet && !desc.HasSet &&
		!desc.HasEnumerable && !desc.HasConfigurable {
		return cur, true // no-op redefinition always allowed
	}

	if !cur.Configurable {
		if desc.HasConfigurable && desc.Configurable {
			return Descriptor{}, false // cannot go non-configurable -> configurable
		}
		if desc.HasEnumerable && desc.Enumerable != cur.Enumerable {
			return Descriptor{}, false
		}
		if desc.IsAccessor() != cur.IsAccessor() && (desc.IsAccessor() || desc.IsData()) {
			return Descriptor{}, false // cannot change data<->accessor kind
		}
		if cur.IsData() && !cur.Writable {
			if desc.HasWritable && desc.Writable {
				return Descriptor{}, false // writable:false -> true forbidden
			}
			if desc.HasValue && !value.SameValue(desc.Value, cur.Value) {
				return Descriptor{}, false
			}
		}
		if cur.IsAccessor() {
			if desc.HasGet && !value.SameValue(desc.Get, cur.Get) {
				return Descriptor{}, false
			}
			if desc.HasSet && !value.SameValue(desc.Set, cur.Set) {
				return Descriptor{}, false
			}
		}
	}

	merged := cur
	if desc.IsAccessor() && cur.IsData() {
		merged = Descriptor{Configurable: cur.Configurable, Enumerable: cur.Enumerable,
			HasConfigurable: true, HasEnumerable: true}
	} else if desc.IsData() && cur.IsAccessor() {
		merged = Descriptor{Configurable: cur.Configurable, Enumerable: cur.Enumerable,
			HasConfigurable: true, HasEnumerable: true}
	}
	if desc.HasValue {
		merged.Value, merged.HasValue = desc.Value, true
	}
	if desc.HasWritable {
		merged.Writable, merged.HasWritable = desc.Writable, true
	}
	if desc.HasGet {
		merged.Get, merged.HasGet = desc.Get, true
	}
	if desc.HasSet {
		merged.Set, merged.HasSet = desc.Set, true
	}
	if desc.HasEnumerable {
		merged.Enumerable, merged.HasEnumerable = desc.Enumerable, true
	}
	if desc.HasConfigurable {
		merged.Configurable, merged.HasConfigurable = desc.Configurable, true
	}
	return fillDefaults(merged), true
}

func fillDefaults(d Descriptor) Descriptor {
	if !d.HasValue && !d.HasGet && !d.HasSet {
		d.HasValue = true
		d.Value = value.Undefined
	}
	if d.IsAccessor() {
		if !d.HasGet {
			d.Get = value.Undefined
		}
		if !d.HasSet {
			d.Set = value.Undefined
		}
	} else if !d.HasWritable {
		d.Writable = false
	}
	if !d.HasEnumerable {
		d.Enumerable = false
	}
	if !d.HasConfigurable {
		d.Configurable = false
	}
	return d
}
