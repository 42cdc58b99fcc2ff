package object

import (
	"math/big"

	"github.com/oxhq/esengine/internal/heap"
	"github.com/oxhq/esengine/internal/value"
)

// bigIntCell is the heap allocation backing a BigInt value (spec
// §3.1: "BigInt (heap)").
type bigIntCell struct {
	v *big.Int
}

func (c *bigIntCell) Kind() heap.Kind     { return heap.KindBigInt }
func (c *bigIntCell) Trace(*heap.Visitor) {}

// BigInts allocates and resolves BigInt heap cells, and implements
// value.BigIntHeap.
type BigInts struct {
	h *heap.Heap
}

func NewBigInts(h *heap.Heap) *BigInts { return &BigInts{h: h} }

// New allocates a BigInt from n (copied, so later mutation of the
// caller's big.Int does not alias the immutable heap value).
func (b *BigInts) New(n *big.Int) value.HeapRef {
	return value.HeapRef(b.h.Alloc(&bigIntCell{v: new(big.Int).Set(n)}))
}

// LookupBigInt implements value.BigIntHeap.
func (b *BigInts) LookupBigInt(ref value.HeapRef) *big.Int {
	c, ok := b.h.Get(heap.Handle(ref)).(*bigIntCell)
	if !ok || c == nil {
		return nil
	}
	return c.v
}
