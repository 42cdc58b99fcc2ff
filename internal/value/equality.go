package value

import "math"

// StrictEquals implements spec StrictEquals (===): NaN != NaN, +0 ===
// -0, no type coercion across tags.
func StrictEquals(a, b Value) bool {
	if a.tag != b.tag {
		// Int32 and Float64 both represent "number" at the language
		// level even though the union keeps them distinct tags.
		if a.IsNumber() && b.IsNumber() {
			return a.AsFloat64() == b.AsFloat64()
		}
		return false
	}
	switch a.tag {
	case TagUndefined, TagNull:
		return true
	case TagBoolean:
		return a.b == b.b
	case TagInt32:
		return a.i32 == b.i32
	case TagFloat64:
		return a.f64 == b.f64 // NaN != NaN falls out of IEEE-754 ==
	case TagString:
		return a.heap == b.heap || stringsEqual(a.heap, b.heap)
	case TagSymbol:
		return a.heap == b.heap // identity
	case TagObject:
		return a.heap == b.heap // identity
	case TagBigInt:
		return bigIntEqual(a, b)
	default:
		return false
	}
}

// SameValue implements spec SameValue: like StrictEquals but NaN ===
// NaN and +0 !== -0.
func SameValue(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		if af == 0 && bf == 0 {
			return math.Signbit(af) == math.Signbit(bf)
		}
		return af == bf
	}
	if a.tag != b.tag {
		return false
	}
	return StrictEquals(a, b)
}

// SameValueZero implements spec SameValueZero: like SameValue but +0
// ≡ -0 (used by Array.prototype.includes, Map/Set key comparison).
func SameValueZero(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	if a.tag != b.tag {
		return false
	}
	return StrictEquals(a, b)
}

// AbstractEquals implements spec AbstractEquals (==): applies the
// coercion table when tags differ.
func AbstractEquals(a, b Value) (bool, error) {
	if a.tag == b.tag || (a.IsNumber() && b.IsNumber()) {
		return StrictEquals(a, b), nil
	}
	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}
	if a.IsNumber() && b.tag == TagString {
		bn, err := ToNumber(b)
		if err != nil {
			return false, err
		}
		return AbstractEquals(a, bn)
	}
	if a.tag == TagString && b.IsNumber() {
		an, err := ToNumber(a)
		if err != nil {
			return false, err
		}
		return AbstractEquals(an, b)
	}
	if a.tag == TagBigInt && b.tag == TagString {
		return bigIntEqualsString(a, b), nil
	}
	if a.tag == TagString && b.tag == TagBigInt {
		return bigIntEqualsString(b, a), nil
	}
	if a.tag == TagBoolean {
		an, err := ToNumber(a)
		if err != nil {
			return false, err
		}
		return AbstractEquals(an, b)
	}
	if b.tag == TagBoolean {
		bn, err := ToNumber(b)
		if err != nil {
			return false, err
		}
		return AbstractEquals(a, bn)
	}
	if (a.IsNumber() || a.tag == TagString || a.tag == TagBigInt || a.tag == TagSymbol) && b.tag == TagObject {
		bp, err := ToPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return AbstractEquals(a, bp)
	}
	if a.tag == TagObject && (b.IsNumber() || b.tag == TagString || b.tag == TagBigInt || b.tag == TagSymbol) {
		ap, err := ToPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return AbstractEquals(ap, b)
	}
	if a.tag == TagBigInt && b.IsNumber() || a.IsNumber() && b.tag == TagBigInt {
		return bigIntNumberEqual(a, b), nil
	}
	return false, nil
}

func stringsEqual(a, b HeapRef) bool {
	if strings_ == nil {
		return a == b
	}
	return strings_.Lookup(a) == strings_.Lookup(b)
}
