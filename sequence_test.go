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

import "testing"

func TestSequence_emptyIsVacuousSuccess(t *testing.T) {
	root := newCountingSequence(nil)()
	tickUntilTerminal(root, 5)
	if root.Status() != Success {
		t.Errorf("expected SUCCESS, got %s", root.Status())
	}
}

func TestSequence_allSucceed(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFixedResultAction(0, Success, "ok-1"), "", "")
		cn.AddChild(newFixedResultAction(0, Success, "ok-2"), "", "")
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS, got %s (%s)", root.Status(), root.Message())
	}
	if root.Message() != "ok-2" {
		t.Errorf("expected last child's message, got %q", root.Message())
	}
}

func TestSequence_firstFailureTerminates(t *testing.T) {
	var secondBuilt bool
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFixedResultAction(0, Failure, "BOB_IS_NOT_ALLOWED"), "", "")
		cn.AddChild(func() Instance {
			secondBuilt = true
			return newFixedResultAction(0, Success, "")()
		}, "", "")
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Failure {
		t.Fatalf("expected FAILURE, got %s", root.Status())
	}
	if root.Message() != "BOB_IS_NOT_ALLOWED" {
		t.Errorf("expected propagated message, got %q", root.Message())
	}
	if secondBuilt {
		t.Error("second child must never be instantiated once the first fails")
	}
}

func TestSequence_contingencyFixesFailure(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFixedResultAction(0, Failure, "TRANSIENT"), "", "")
		cn.AddChild(newFixedResultAction(0, Success, "done"), "", "")
		cn.Attach("*", []NodeStatus{Failure}, "TRANSIENT", func(triggering *ExecutionContext) {
			FixCurrentChild(triggering)
		})
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS (fixed first child), got %s", root.Status())
	}
}

func TestSequence_asyncFailureAborted(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFixedResultAction(2, Failure, "BOB_IS_NOT_ALLOWED"), "", "")
		cn.Attach("*", []NodeStatus{Failure}, "*", func(triggering *ExecutionContext) {
			cn.Abort()
		})
	})()
	for i := 0; i < 10 && !root.Status().IsTerminal(); i++ {
		if i == 0 {
			root.setLogger(noopLogger{})
			root.initialize()
		}
		root.tick()
	}
	if root.Status() != Aborted {
		t.Fatalf("expected ABORTED, got %s", root.Status())
	}
	if root.Message() != "BOB_IS_NOT_ALLOWED" {
		t.Errorf("expected propagated message, got %q", root.Message())
	}
}

// A handler that fixes a failed child must leave the parent's slots alone,
// even when the child wrote its declared outputs before failing: output
// binding happens on SUCCESS transitions only, never on FIXED.
func TestSequence_fixedDoesNotBindOutputs(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFailingProducerAction, "", "?z")
		cn.Attach("*", []NodeStatus{Failure}, "PRODUCED_BUT_FAILED", func(triggering *ExecutionContext) {
			FixCurrentChild(triggering)
		})
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS (fixed child), got %s", root.Status())
	}
	if v, ok := root.GetOut("z"); ok {
		t.Errorf("parent slot must remain unmodified on FIXED, got %v", v)
	}
}

// A contingency handler may rebuild the execution plan from scratch:
// remove_all_children mid-tick, then append a replacement plan.
func TestSequence_removeAllChildrenMidTick(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(newFixedResultAction(0, Failure, "PLAN_BROKEN"), "", "")
		cn.AddChild(newFixedResultAction(0, Success, "unreached"), "", "")
		cn.Attach("*", []NodeStatus{Failure}, "PLAN_BROKEN", func(triggering *ExecutionContext) {
			cn.RemoveAllChildren()
			cn.AddChild(newFixedResultAction(0, Success, "replanned"), "", "")
		})
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS from the replacement plan, got %s (%s)", root.Status(), root.Message())
	}
	if root.Message() != "replanned" {
		t.Errorf("expected the replacement child's message, got %q", root.Message())
	}
}

func TestSequence_insertChildAfterCurrent(t *testing.T) {
	var order []string
	record := func(name string, result NodeStatus, msg string) func() Instance {
		inner := newFixedResultAction(0, result, msg)
		return func() Instance {
			order = append(order, name)
			return inner()
		}
	}
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(record("first", Failure, "NEEDS_RETRY"), "", "")
		cn.AddChild(record("last", Success, ""), "", "")
		cn.Attach("*", []NodeStatus{Failure}, "NEEDS_RETRY", func(triggering *ExecutionContext) {
			FixCurrentChild(triggering)
			cn.InsertChildAfterCurrent(record("inserted", Success, ""), "", "")
		})
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS, got %s", root.Status())
	}
	want := []string{"first", "inserted", "last"}
	if len(order) != len(want) {
		t.Fatalf("expected construction order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected construction order %v, got %v", want, order)
		}
	}
}

func TestSequence_suspendedChildSkipsTicks(t *testing.T) {
	var action *suspendingAction
	root := newCountingSequence(func(cn *ControlNode) {
		cn.AddChild(func() Instance {
			inst := newSuspendingAction()
			action = inst.(*suspendingAction)
			return inst
		}, "", "")
	})()
	root.setLogger(noopLogger{})
	root.initialize()

	root.tick()
	root.tick()
	root.tick()
	if action.ticks != 1 {
		t.Fatalf("suspended child must not be ticked, got %d ticks", action.ticks)
	}
	if root.Status() != Running {
		t.Fatalf("expected the sequence to stay RUNNING, got %s", root.Status())
	}

	// external completion signal: resume the action
	action.SetStatus(Running)
	root.tick()
	if root.Status() != Success {
		t.Errorf("expected SUCCESS after resume, got %s", root.Status())
	}
	if action.ticks != 2 {
		t.Errorf("expected exactly one more tick after resume, got %d", action.ticks)
	}
}

func TestSequence_paramBinding(t *testing.T) {
	root := newCountingSequence(func(cn *ControlNode) {
		cn.SetIn("x", Int(7))
		cn.AddChild(newPassThroughAction, "?x", "?relayed")
	})()
	tickUntilTerminal(root, 10)
	if root.Status() != Success {
		t.Fatalf("expected SUCCESS, got %s", root.Status())
	}
	v, ok := root.GetOut("relayed")
	if !ok || v.AsInt() != 7 {
		t.Errorf("expected relayed=7, got %v (ok=%v)", v, ok)
	}
}
