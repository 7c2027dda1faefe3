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

// fixedResultAction stays Running for its first `after` ticks and reaches a
// caller-chosen terminal status on tick after+1 (after=0: the first tick).
type fixedResultAction struct {
	*ActionNode
	after  int
	result NodeStatus
	msg    string
	ticks  int
	aborts int
}

func newFixedResultAction(after int, result NodeStatus, msg string) func() Instance {
	return func() Instance {
		a := &fixedResultAction{after: after, result: result, msg: msg}
		a.ActionNode = NewActionNode(a, "")
		return a
	}
}

func (a *fixedResultAction) OnTick() {
	a.ticks++
	if a.ticks > a.after {
		a.SetStatus(a.result)
		a.SetMessage(a.msg)
		return
	}
	a.SetStatus(Running)
}

func (a *fixedResultAction) OnAbort() { a.aborts++ }

// passThroughAction copies its single input slot "x" to its single output
// slot "y" and succeeds on the first tick.
type passThroughAction struct {
	*ActionNode
}

func newPassThroughAction() Instance {
	a := &passThroughAction{}
	a.ActionNode = NewActionNode(a, "?x => ?y")
	return a
}

func (a *passThroughAction) OnTick() {
	a.SetOut("y", a.GetIn("x"))
	a.SetStatus(Success)
}

// failingProducerAction writes its output slot "y" and then fails anyway,
// used to verify that a handler fixing the failure does not bind "y" into
// the parent.
type failingProducerAction struct {
	*ActionNode
}

func newFailingProducerAction() Instance {
	a := &failingProducerAction{}
	a.ActionNode = NewActionNode(a, "=> ?y")
	return a
}

func (a *failingProducerAction) OnTick() {
	a.SetOut("y", Int(99))
	a.SetStatus(Failure)
	a.SetMessage("PRODUCED_BUT_FAILED")
}

// suspendingAction suspends itself on the first tick and stays suspended
// until external code resumes it via SetStatus.
type suspendingAction struct {
	*ActionNode
	ticks int
}

func newSuspendingAction() Instance {
	a := &suspendingAction{}
	a.ActionNode = NewActionNode(a, "")
	return a
}

func (a *suspendingAction) OnTick() {
	a.ticks++
	if a.ticks == 1 {
		a.SetStatus(Suspended)
		return
	}
	a.SetStatus(Success)
}

// countingControl is a minimal ControlHooks implementation that defers
// child construction to a closure, so tests can build varied child lists
// without a new named type per scenario.
type countingControl struct {
	*ControlNode
	build func(cn *ControlNode)
}

func newCountingSequence(build func(cn *ControlNode)) func() Instance {
	return newCountingSequenceWithDecl("", build)
}

func newCountingSequenceWithDecl(decl string, build func(cn *ControlNode)) func() Instance {
	return func() Instance {
		c := &countingControl{build: build}
		c.ControlNode = NewSequenceNode(c, decl)
		return c
	}
}

func newCountingFallback(build func(cn *ControlNode)) func() Instance {
	return func() Instance {
		c := &countingControl{build: build}
		c.ControlNode = NewFallbackNode(c, "")
		return c
	}
}

func newCountingParallel(threshold int, build func(cn *ControlNode)) func() Instance {
	return func() Instance {
		c := &countingControl{build: build}
		c.ControlNode = NewParallelNode(c, "", threshold)
		return c
	}
}

func (c *countingControl) OnInit() {
	if c.build != nil {
		c.build(c.ControlNode)
	}
}

// tickUntilTerminal ticks inst directly (bypassing the rate-limited
// runner) until it reaches a terminal status or maxTicks is exceeded.
func tickUntilTerminal(inst Instance, maxTicks int) {
	inst.setLogger(noopLogger{})
	inst.initialize()
	for i := 0; i < maxTicks && !inst.Status().IsTerminal(); i++ {
		inst.tick()
	}
}
