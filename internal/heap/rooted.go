package heap

// Rooted keeps a handle alive across safepoints (spec §4.1: "any handle
// held across a safepoint must be rooted"). The native-function
// dispatch layer (internal/builtins) roots its arguments and return
// value automatically; compiler-emitted bytecode never needs to root
// explicitly because operand-stack slots are themselves scanned as
// roots by the VM (internal/vm), not by this type — Rooted exists for
// Go-level call stacks that outlive a single VM instruction, such as a
// native method holding a reference while it calls back into the VM.
type Rooted struct {
	heap     *Heap
	handle   Handle
	released bool
}

// RootValue wraps ref in a Rooted guard, incrementing its root count. The
// caller must call Release (commonly via defer) once the handle no
// longer needs to survive a collection.
func (h *Heap) RootValue(ref Handle) *Rooted {
	h.Root(ref)
	return &Rooted{heap: h, handle: ref}
}

// Handle returns the guarded handle.
func (r *Rooted) Handle() Handle { return r.handle }

// Release unroots the handle. Safe to call more than once.
func (r *Rooted) Release() {
	if r.released {
		return
	}
	r.released = true
	r.heap.Unroot(r.handle)
}
