package object

import (
	"strconv"

	"github.com/oxhq/esengine/internal/value"
)

// KeyKind discriminates the three property-key shapes spec §3.3
// allows: a string, a symbol, or a 32-bit array index.
type KeyKind uint8

const (
	KeyString KeyKind = iota
	KeySymbol
	KeyIndex
)

// Key is a normalized property key. Array indices are split out from
// strings at construction time because they participate in enumeration
// before string keys (spec §3.3, §4.3 "Enumeration order").
type Key struct {
	kind KeyKind
	str  value.HeapRef // valid when kind == KeyString
	sym  value.HeapRef // valid when kind == KeySymbol
	idx  uint32        // valid when kind == KeyIndex
}

func (k Key) Kind() KeyKind { return k.kind }
func (k Key) Index() uint32 { return k.idx }

// StringKey builds a string-shaped key from an already-interned string
// handle, canonicalizing array-index-looking strings into KeyIndex per
// spec §3.3 ("32-bit array index").
func StringKey(ref value.HeapRef, s string) Key {
	if idx, ok := CanonicalNumericIndex(s); ok {
		return Key{kind: KeyIndex, idx: idx}
	}
	return Key{kind: KeyString, str: ref}
}

// SymbolKey builds a symbol-shaped key.
func SymbolKey(ref value.HeapRef) Key { return Key{kind: KeySymbol, sym: ref} }

// IndexKey builds an array-index key directly.
func IndexKey(i uint32) Key { return Key{kind: KeyIndex, idx: i} }

// CanonicalNumericIndex reports whether s is the canonical decimal
// string form of a uint32 in [0, 2^32-2] (array indices exclude
// 2^32-1, reserved as a non-index per the array-length invariant).
func CanonicalNumericIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] == '0' {
		return 0, false // leading zero disqualifies (not canonical)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return uint32(n), true
}

// KeyToValue converts a Key back into the Value a property-enumeration
// API (Object.keys/getOwnPropertyNames, Reflect.ownKeys, a for-in/of
// loop) should expose it as: the interned string for a KeyString/
// KeyIndex key, or the Symbol itself for a KeySymbol key.
func (rt *Runtime) KeyToValue(k Key) value.Value {
	return keyToValue(rt, k)
}

// ToKey converts a resolved value.ToPropertyKey result into a
// Key, using the object package's own string interner so StringKey's
// numeric-index canonicalization applies uniformly.
func (rt *Runtime) ToKey(v value.Value) (Key, error) {
	pk, err := value.ToPropertyKey(v)
	if err != nil {
		return Key{}, err
	}
	if pk.Tag() == value.TagSymbol {
		return SymbolKey(pk.Ref()), nil
	}
	return StringKey(pk.Ref(), rt.Strings.Lookup(pk.Ref())), nil
}
