package module

import (
	"sort"

	"github.com/oxhq/esengine/internal/value"
	"github.com/oxhq/esengine/internal/vm"
)

// nextAsyncEvalOrder is the monotonic counter spec §4.7's
// AsyncEvalOrder uses to break ties among modules racing to finish their
// pending async dependencies (GatherAvailableAncestors below sorts by
// it). The engine never runs two evaluations concurrently (no goroutines
// anywhere in this engine — see internal/vm/generator.go), so a single
// package-level counter needs no synchronization.
var nextAsyncEvalOrder int

// Evaluate runs spec §4.7 Phase 3 over m (already Linked): a second
// Tarjan-style DFS, synchronous where possible and suspending into
// ExecuteAsyncModule wherever top-level await (or a transitive pending
// async dependency) requires it, settling m.TopLevelCapability exactly
// once. Returns immediately; an async module graph's completion is
// observed later by inspecting m.State/m.HasEvalError, after the job
// queue (eng.DrainJobs) has drained every pending microtask.
func Evaluate(eng *vm.Engine, m *Record) value.Value {
	root := m
	if root.State == EvaluatingAsync || root.State == Evaluated {
		root = root.CycleRoot
	}
	if root.State == Evaluated {
		if root.HasEvalError {
			capVal := eng.NewCapability()
			eng.SettleCapability(capVal, root.EvalErrorVal, false)
			return capVal
		}
		capVal := eng.NewCapability()
		eng.SettleCapability(capVal, value.Undefined, true)
		return capVal
	}
	if root.State == EvaluatingAsync {
		// Already in flight from a prior Evaluate call sharing this
		// module; its own TopLevelCapability (created the first time)
		// is still the right thing to hand back.
		return root.TopLevelCapability
	}

	capVal := eng.NewCapability()
	root.TopLevelCapability = capVal

	var stack []*Record
	_, err := innerModuleEvaluation(eng, root, &stack, 0)
	if err != nil {
		errVal := evalErrorValue(eng, err)
		for _, r := range stack {
			r.setState(Evaluated)
			r.HasEvalError = true
			r.EvalErrorVal = errVal
			r.EvalError = err
		}
		if root.State != EvaluatingAsync {
			eng.SettleCapability(capVal, errVal, false)
		}
		return capVal
	}
	if root.State == Evaluated {
		eng.SettleCapability(capVal, value.Undefined, true)
	}
	return capVal
}

func evalErrorValue(eng *vm.Engine, err error) value.Value {
	if v, ok := eng.ExceptionValue(err); ok {
		return v
	}
	return eng.ToException(err)
}

func innerModuleEvaluation(eng *vm.Engine, m *Record, stack *[]*Record, index int) (int, error) {
	if m.State == EvaluatingAsync || m.State == Evaluated {
		if m.HasEvalError {
			return index, m.EvalError
		}
		return index, nil
	}
	if m.State == Evaluating {
		return index, nil
	}

	m.setState(Evaluating)
	m.dfsIndex = index
	m.dfsAncestorIndex = index
	index++
	*stack = append(*stack, m)
	m.onStack = true

	for _, specifier := range m.RequestedModules {
		required := m.LoadedModules[specifier]
		var err error
		index, err = innerModuleEvaluation(eng, required, stack, index)
		if err != nil {
			return index, err
		}
		dep := required
		if required.State != Evaluating {
			dep = required.CycleRoot
			if dep.HasEvalError {
				return index, dep.EvalError
			}
		} else if required.dfsAncestorIndex < m.dfsAncestorIndex {
			m.dfsAncestorIndex = required.dfsAncestorIndex
		}
		if dep.asyncEvaluation {
			m.PendingAsyncDependencies++
			dep.AsyncParentModules = append(dep.AsyncParentModules, m)
		}
	}

	if m.PendingAsyncDependencies > 0 || m.HasTopLevelAwait {
		m.asyncEvaluation = true
		nextAsyncEvalOrder++
		m.AsyncEvalOrder = nextAsyncEvalOrder
		if m.PendingAsyncDependencies == 0 {
			executeAsyncModule(eng, m)
		}
	} else if err := executeModuleSync(eng, m); err != nil {
		return index, err
	}

	if m.dfsAncestorIndex == m.dfsIndex {
		for {
			n := len(*stack)
			member := (*stack)[n-1]
			*stack = (*stack)[:n-1]
			member.onStack = false
			if member.asyncEvaluation {
				member.setState(EvaluatingAsync)
			} else {
				member.setState(Evaluated)
			}
			member.CycleRoot = m
			if member == m {
				break
			}
		}
	}
	return index, nil
}

// executeModuleSync drives m's frame to completion without any
// suspension possible (m has no top-level await and no pending async
// dependency), matching spec's synchronous ExecuteModule call. Since
// DriveModuleFrame's callback fires inline whenever the frame never
// actually suspends, err is always fully populated by the time this
// returns.
func executeModuleSync(eng *vm.Engine, m *Record) error {
	var evalErr error
	eng.DriveModuleFrame(m.frame, func(_ value.Value, err error) {
		evalErr = err
	})
	return evalErr
}

// executeAsyncModule implements spec §4.7's ExecuteAsyncModule: starts
// m's body running exactly like an async function (DriveModuleFrame's
// Await-driven resumption loop), then — once it finally settles, however
// many microtask turns later — routes completion through
// asyncModuleExecutionFulfilled/Rejected instead of settling a Promise
// directly.
func executeAsyncModule(eng *vm.Engine, m *Record) {
	eng.DriveModuleFrame(m.frame, func(_ value.Value, err error) {
		if err != nil {
			asyncModuleExecutionRejected(eng, m, evalErrorValue(eng, err))
			return
		}
		asyncModuleExecutionFulfilled(eng, m)
	})
}

// asyncModuleExecutionFulfilled implements spec §4.7's
// AsyncModuleExecutionFulfilled: marks m evaluated, resolves its
// top-level capability if m is itself a cycle root, then unblocks every
// parent module waiting on m — in AsyncEvalOrder, the order their own
// pending-dependency counts actually reached zero — running any parent
// whose count just hit zero.
func asyncModuleExecutionFulfilled(eng *vm.Engine, m *Record) {
	if m.State == Evaluated {
		return // already settled (a sibling in the same SCC settled first)
	}
	m.asyncEvaluation = false
	m.setState(Evaluated)
	if !m.TopLevelCapability.IsUndefined() {
		eng.SettleCapability(m.TopLevelCapability, value.Undefined, true)
	}

	parents := gatherAvailableAncestors(m)
	for _, parent := range parents {
		if parent.PendingAsyncDependencies == 0 {
			executeAsyncModule(eng, parent)
		}
	}
}

// asyncModuleExecutionRejected implements spec §4.7's
// AsyncModuleExecutionRejected: propagates errVal to every transitive
// async parent (each one settles as rejected too, without ever running
// its own body), then rejects m's own top-level capability if it has
// one.
func asyncModuleExecutionRejected(eng *vm.Engine, m *Record, errVal value.Value) {
	if m.State == Evaluated {
		return
	}
	m.asyncEvaluation = false
	m.setState(Evaluated)
	m.HasEvalError = true
	m.EvalErrorVal = errVal

	for _, parent := range m.AsyncParentModules {
		asyncModuleExecutionRejected(eng, parent, errVal)
	}
	if !m.TopLevelCapability.IsUndefined() {
		eng.SettleCapability(m.TopLevelCapability, errVal, false)
	}
}

// gatherAvailableAncestors decrements every async parent waiting on m by
// one pending dependency (m having just fulfilled) and returns those
// parents sorted by AsyncEvalOrder, the order spec requires
// AsyncModuleExecutionFulfilled resume them in.
func gatherAvailableAncestors(m *Record) []*Record {
	parents := append([]*Record(nil), m.AsyncParentModules...)
	for _, p := range parents {
		if p.PendingAsyncDependencies > 0 {
			p.PendingAsyncDependencies--
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].AsyncEvalOrder < parents[j].AsyncEvalOrder })
	return parents
}
