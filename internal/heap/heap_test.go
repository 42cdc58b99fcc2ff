package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCell is a minimal Cell used to exercise tracing without pulling
// in internal/object.
type fakeCell struct {
	refs      []Handle
	finalized *bool
}

func (c *fakeCell) Kind() Kind { return KindObject }
func (c *fakeCell) Trace(v *Visitor) {
	for _, r := range c.refs {
		v.Mark(r)
	}
}
func (c *fakeCell) Finalize() {
	if c.finalized != nil {
		*c.finalized = true
	}
}

func TestAllocAndGet(t *testing.T) {
	h := New(1000)
	ref := h.Alloc(&fakeCell{})
	require.NotEqual(t, Handle(0), ref)
	cell := h.Get(ref)
	require.NotNil(t, cell)
}

func TestUnreachableIsCollected(t *testing.T) {
	h := New(1000)
	ref := h.Alloc(&fakeCell{})
	stats := h.Collect()
	assert.Equal(t, 1, stats.Swept)
	assert.Nil(t, h.Get(ref))
}

func TestRootedSurvivesCollection(t *testing.T) {
	h := New(1000)
	ref := h.Alloc(&fakeCell{})
	rooted := h.RootValue(ref)
	defer rooted.Release()

	stats := h.Collect()
	assert.Equal(t, 1, stats.Live)
	assert.NotNil(t, h.Get(ref))
}

func TestCyclicGraphIsReclaimed(t *testing.T) {
	h := New(1000)
	a := h.Alloc(&fakeCell{})
	b := h.Alloc(&fakeCell{})
	h.Get(a).(*fakeCell).refs = []Handle{b}
	h.Get(b).(*fakeCell).refs = []Handle{a}

	stats := h.Collect()
	assert.Equal(t, 2, stats.Swept, "a reference-counting scheme would leak this cycle; tracing must not")
	assert.Nil(t, h.Get(a))
	assert.Nil(t, h.Get(b))
}

func TestReachableFromRootSurvives(t *testing.T) {
	h := New(1000)
	child := h.Alloc(&fakeCell{})
	parent := h.Alloc(&fakeCell{refs: []Handle{child}})
	rooted := h.RootValue(parent)
	defer rooted.Release()

	stats := h.Collect()
	assert.Equal(t, 2, stats.Live)
	assert.NotNil(t, h.Get(child))
}

func TestWeakRefClearedOnCollection(t *testing.T) {
	h := New(1000)
	target := h.Alloc(&fakeCell{})
	tok := h.NewWeak(target)
	require.Equal(t, target, h.Deref(tok))

	h.Collect()
	assert.Equal(t, Handle(0), h.Deref(tok), "weak target must clear once unreachable")
}

func TestFinalizationRunsBeforeGenericSweep(t *testing.T) {
	h := New(1000)
	finalized := false
	target := h.Alloc(&fakeCell{finalized: &finalized})

	var notified Handle
	h.SetFinalizationCallback(func(ref Handle) { notified = ref })
	h.NewFinalizationTarget(target, "token")

	h.Collect()
	assert.True(t, finalized)
	assert.Equal(t, target, notified)
}

func TestFreeSlotIsReused(t *testing.T) {
	h := New(1000)
	a := h.Alloc(&fakeCell{})
	h.Collect() // a is unreachable, goes to free list
	b := h.Alloc(&fakeCell{})
	assert.Equal(t, a, b, "allocator should reuse freed slots")
}
