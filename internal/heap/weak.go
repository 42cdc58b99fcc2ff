package heap

// weakRef is the heap's bookkeeping record for one WeakRef / WeakMap
// key / WeakSet member / FinalizationRegistry target (spec §3.9, §4.1
// "Weak references"). The target does not contribute to reachability;
// once the mark phase determines it unreachable, Deref observes the
// null handle from that point on.
type weakRef struct {
	target    Handle
	cleared   bool
	hasFinal  bool // FinalizationRegistry registration
	finalizer any  // host-supplied finalization token, opaque to the heap
}

// WeakToken identifies one registered weak slot so callers (the
// builtin WeakRef/WeakMap/WeakSet/FinalizationRegistry implementations
// in internal/object) can Deref or Unregister it later.
type WeakToken uint32

// NewWeak registers target for weak tracking and returns a token. The
// target handle itself must not be rooted by the caller — otherwise it
// would never clear (spec invariant: "a WeakRef target holds a
// non-owning reference").
func (h *Heap) NewWeak(target Handle) WeakToken {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.weak = append(h.weak, &weakRef{target: target})
	return WeakToken(len(h.weak) - 1)
}

// NewFinalizationTarget registers target with a finalizer token that is
// handed back (via the heap's finalization callback) once target is
// collected.
func (h *Heap) NewFinalizationTarget(target Handle, finalizer any) WeakToken {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.weak = append(h.weak, &weakRef{target: target, hasFinal: true, finalizer: finalizer})
	return WeakToken(len(h.weak) - 1)
}

// Deref returns the live target handle, or the null handle if the
// target has been collected or the token is unknown. Per spec §3.9,
// this is only observed as "undefined" at the next microtask-queue
// turn by the caller (internal/builtins), not synchronously mid-mark —
// the heap itself has no notion of turns, it only reports liveness.
func (h *Heap) Deref(tok WeakToken) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(tok) >= len(h.weak) {
		return nullHandle
	}
	w := h.weak[tok]
	if w.cleared {
		return nullHandle
	}
	return w.target
}

// UnregisterWeak drops a weak registration, used by
// FinalizationRegistry.unregister().
func (h *Heap) UnregisterWeak(tok WeakToken) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(tok) >= len(h.weak) {
		return
	}
	h.weak[tok] = &weakRef{cleared: true}
}

// clearDeadWeakRefs runs during Collect, holding h.mu already locked by
// the caller. It clears every weak slot whose target did not get
// marked this cycle and enqueues a finalization callback for each one
// that requested it.
func (h *Heap) clearDeadWeakRefs(stats *Stats) {
	for _, w := range h.weak {
		if w.cleared || w.target == nullHandle {
			continue
		}
		if int(w.target) >= len(h.slots) || !h.slots[w.target].marked {
			w.cleared = true
			if w.hasFinal && h.finalizerCB != nil {
				h.finalizerCB(w.target)
			}
		}
	}
}
