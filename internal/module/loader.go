package module

import "github.com/google/uuid"

// Loader is the host-provided module loader (spec §6.2's load
// contract): it resolves specifier relative to referrer and invokes
// done exactly once. referrer is nil for the entry module's own
// request. The host is responsible for the "duplicate loads for the
// same specifier from the same referrer resolve to the same module
// object" guarantee spec places on it — this package only calls Load,
// it does not itself cache across separate top-level Load() calls
// (within one Load() call, GraphLoadingState.visited dedupes).
type Loader interface {
	Load(referrer *Record, specifier string, done func(*Record, error))
}

// GraphLoadingState tracks one Phase-1 Load traversal's outstanding
// host callbacks (spec §4.7 Phase 1): pending counts down to zero as
// every requested specifier across the whole reachable graph resolves,
// at which point whoever is waiting (Load's caller) is notified via
// done. Grounded on mcp/async_staging.go's AsyncStagingManager, whose
// stageChan/resultCollector pending-count-to-zero shape this mirrors,
// adapted from a worker-pool of goroutines to a purely synchronous
// callback chain (no goroutines anywhere in this engine, spec's
// suspension-via-explicit-continuation design — see internal/vm/
// generator.go).
type GraphLoadingState struct {
	ID      string
	visited map[*Record]bool
	pending int
	err     error
	done    func(error)
}

// Load runs Phase 1 (spec §4.7): a depth-first walk over m's
// RequestedModules, recursively loading any module not yet visited in
// this traversal, and calls done once every reachable specifier has
// resolved (or the first error is observed).
func Load(m *Record, loader Loader, done func(error)) {
	state := &GraphLoadingState{ID: uuid.NewString(), visited: make(map[*Record]bool), done: done}
	state.pending = 1
	innerLoad(m, loader, state)
	state.finish()
}

func (s *GraphLoadingState) finish() {
	s.pending--
	if s.pending == 0 && s.done != nil {
		done := s.done
		s.done = nil
		done(s.err)
	}
}

func innerLoad(m *Record, loader Loader, state *GraphLoadingState) {
	if state.visited[m] || state.err != nil {
		return
	}
	state.visited[m] = true
	if m.State != Unlinked {
		return
	}
	for _, specifier := range m.RequestedModules {
		if _, ok := m.LoadedModules[specifier]; ok {
			continue
		}
		state.pending++
		spec := specifier
		loader.Load(m, spec, func(child *Record, err error) {
			if err != nil {
				if state.err == nil {
					state.err = err
				}
				state.finish()
				return
			}
			m.LoadedModules[spec] = child
			innerLoad(child, loader, state)
			state.finish()
		})
	}
}
