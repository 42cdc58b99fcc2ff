package value

import "math/big"

// BigIntHeap resolves a BigInt heap reference to its arbitrary
// precision value; wired by internal/object alongside StringHeap.
type BigIntHeap interface {
	LookupBigInt(ref HeapRef) *big.Int
}

var bigints_ BigIntHeap

// RegisterBigIntHost wires the BigInt heap; called from
// internal/object.NewRuntime alongside RegisterObjectHost.
func RegisterBigIntHost(bh BigIntHeap) { bigints_ = bh }

func bigIntEqual(a, b Value) bool {
	if bigints_ == nil {
		return a.heap == b.heap
	}
	av, bv := bigints_.LookupBigInt(a.heap), bigints_.LookupBigInt(b.heap)
	if av == nil || bv == nil {
		return a.heap == b.heap
	}
	return av.Cmp(bv) == 0
}

func bigIntEqualsString(bi, s Value) bool {
	if bigints_ == nil {
		return false
	}
	av := bigints_.LookupBigInt(bi.heap)
	if av == nil {
		return false
	}
	str := strings_.Lookup(s.heap)
	n := new(big.Int)
	if _, ok := n.SetString(str, 10); !ok {
		return false
	}
	return av.Cmp(n) == 0
}

func bigIntNumberEqual(a, b Value) bool {
	var bi *big.Int
	var num float64
	if a.tag == TagBigInt {
		bi, num = bigints_.LookupBigInt(a.heap), b.AsFloat64()
	} else {
		bi, num = bigints_.LookupBigInt(b.heap), a.AsFloat64()
	}
	if bi == nil {
		return false
	}
	f := new(big.Float).SetInt(bi)
	return f.Cmp(big.NewFloat(num)) == 0
}
