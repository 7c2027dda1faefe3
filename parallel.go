/*
   Copyright 2021 Joseph Cumines

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package carebt

// NewParallelNode constructs a composite that ticks every (non-terminal)
// child each round; it finishes Success once at least threshold children
// have finished Success/Fixed, or Failure once too many have finished
// Failure/Aborted for the threshold to still be reachable.
func NewParallelNode(hooks ControlHooks, paramDecl string, threshold int) *ControlNode {
	cn := newControlNode(hooks, paramDecl, parallelPolicy{})
	cn.successThreshold = threshold
	return cn
}

type parallelPolicy struct{}

// step ticks every non-completed child (in list order), then dispatches
// contingency handlers for every ticked child (again in list order) --
// never interleaved -- then retires children that reached a terminal
// status, and only then re-evaluates the threshold against whatever the
// handlers left the child list looking like. Iterating over a snapshot of
// the child list taken before any handler runs is what keeps a handler's
// mid-round mutation (remove_child/add_child) from being observed as
// half-applied by a handler running later in the same round.
func (parallelPolicy) step(cn *ControlNode) {
	if len(cn.children) == 0 {
		if cn.successThreshold <= 0 {
			cn.SetStatus(Success)
		} else {
			cn.SetStatus(Failure)
		}
		return
	}

	snapshot := make([]*ExecutionContext, len(cn.children))
	copy(snapshot, cn.children)

	ticked := make(map[*ExecutionContext]bool, len(snapshot))
	for _, ec := range snapshot {
		if ec.completed {
			continue
		}
		cn.ensureChildInstance(ec)
		status := ec.Instance.Status()
		if status == Idle || status == Running {
			ec.Instance.tick()
		}
		ticked[ec] = true
	}

	for _, ec := range snapshot {
		// a handler run for an earlier child may have removed (and released)
		// this one mid-round; nothing left to dispatch against.
		if !ticked[ec] || ec.Instance == nil {
			continue
		}
		cn.applyContingencies(ec)
	}

	if cn.Status() != Running {
		// a handler aborted the composite mid-dispatch
		return
	}

	// Retire children that reached a terminal status this round: bind
	// outputs at the child's Success transition (never on Fixed), record the
	// final status on the descriptor, release the instance. The descriptor
	// stays in the list so evaluate can count it against the threshold.
	for _, ec := range cn.children {
		if ec.Instance == nil || !ec.Instance.Status().IsTerminal() {
			continue
		}
		if ec.Instance.Status() == Success {
			bindOut(cn.SetOut, ec, cn.log())
		}
		ec.finish()
	}

	parallelPolicy{}.evaluate(cn)
}

func (parallelPolicy) evaluate(cn *ControlNode) {
	var success, failure int
	for _, ec := range cn.children {
		var status NodeStatus
		switch {
		case ec.completed:
			status = ec.result
		case ec.Instance != nil:
			status = ec.Instance.Status()
		default:
			continue
		}
		switch status {
		case Success, Fixed:
			success++
		case Failure, Aborted:
			failure++
		}
	}
	total := len(cn.children)
	k := cn.successThreshold

	switch {
	case success >= k:
		releaseAllChildren(cn)
		cn.SetStatus(Success)
	case total-failure < k:
		releaseAllChildren(cn)
		cn.SetStatus(Failure)
	default:
		// threshold still reachable; stay Running.
	}
}

func (parallelPolicy) abortChildren(cn *ControlNode) {
	releaseAllChildren(cn)
}

// releaseAllChildren aborts every still-live, non-terminal child and then
// releases (on_delete + drop instance) every child with a live instance.
func releaseAllChildren(cn *ControlNode) {
	for _, ec := range cn.children {
		if ec.Instance == nil {
			continue
		}
		status := ec.Instance.Status()
		if status == Running || status == Suspended {
			ec.Instance.Abort()
		}
		ec.release()
	}
}
