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

// ControlHooks is the contract a composite node implementer must satisfy.
// OnInit is where children are built, via ControlNode.AddChild, and
// contingency handlers are registered, via ControlNode.Attach.
type ControlHooks interface {
	OnInit()
}

type (
	controlAborter interface{ OnAbort() }
	controlDeleter interface{ OnDelete() }
)

// policy implements one of the three composite tick strategies (sequence,
// fallback, parallel) over a shared ControlNode. Splitting the algorithm out
// as a strategy, rather than three separately-embedding node types, avoids
// duplicating the child-list/contingency/binding machinery three times.
type policy interface {
	// step runs one internal tick of the composite.
	step(cn *ControlNode)
	// abortChildren aborts whichever children are currently live, as part of
	// the composite's own Abort().
	abortChildren(cn *ControlNode)
}

// ControlNode is the composite node base: an ordered child list, contingency
// handler registrations, and (for sequence/fallback) a cursor identifying
// the currently-executing child.
type ControlNode struct {
	TreeNode

	hooks    ControlHooks
	children []*ExecutionContext
	cursor   int
	handlers []contingencyHandler
	policy   policy

	successThreshold int // parallel only
}

func newControlNode(hooks ControlHooks, paramDecl string, p policy) *ControlNode {
	cn := &ControlNode{hooks: hooks, policy: p}
	cn.TreeNode.init(hooks, paramDecl)
	if v, ok := hooks.(controlAborter); ok {
		cn.onAbortFn = cn.wrapAbort(v.OnAbort)
	} else {
		cn.onAbortFn = cn.wrapAbort(nil)
	}
	if v, ok := hooks.(controlDeleter); ok {
		cn.onDeleteFn = v.OnDelete
	}
	return cn
}

func (cn *ControlNode) wrapAbort(userOnAbort func()) func() {
	return func() {
		cn.log().Info("aborting %s", cn.ClassName())
		cn.policy.abortChildren(cn)
		if userOnAbort != nil {
			userOnAbort()
		}
	}
}

// initialize calls OnInit, where the implementer is expected to build the
// child list with AddChild and register contingency handlers with Attach.
func (cn *ControlNode) initialize() {
	cn.hooks.OnInit()
}

// tick runs one internal tick of whichever composite policy this node was
// constructed with.
func (cn *ControlNode) tick() {
	if cn.Status() != Running {
		cn.SetStatus(Running)
	}
	cn.policy.step(cn)
}

// AddChild appends a new child descriptor built from factory, bound on its
// first tick from callIn (a call-parameter string against this node's own
// slots) and publishing its outputs (on Success) into callOut.
func (cn *ControlNode) AddChild(factory Factory, callIn string, callOut string) {
	cn.children = append(cn.children, newExecutionContext(factory, callIn, callOut))
}

// Children returns the live child descriptor list; callers must not retain
// the slice across a tick in which handlers may mutate it.
func (cn *ControlNode) Children() []*ExecutionContext { return cn.children }

// RemoveChildAt removes the child currently at index i, as the list exists
// at call time; indices are not stable across removals.
func (cn *ControlNode) RemoveChildAt(i int) {
	if i < 0 || i >= len(cn.children) {
		return
	}
	cn.children[i].release()
	cn.children = append(cn.children[:i], cn.children[i+1:]...)
	if cn.cursor > i {
		cn.cursor--
	} else if cn.cursor >= len(cn.children) && cn.cursor > 0 {
		cn.cursor = len(cn.children) - 1
	}
}

// RemoveAllChildren releases and clears every child, resetting the cursor.
// Typically called from a contingency handler to rebuild the execution plan
// from scratch (new children added afterwards with AddChild).
func (cn *ControlNode) RemoveAllChildren() {
	for _, ec := range cn.children {
		ec.release()
	}
	cn.children = nil
	cn.cursor = 0
}

// InsertChildAfterCurrent inserts a new child directly after the cursor;
// when inserting more than one this way, insert in reverse order, since
// each insertion lands immediately after the cursor.
func (cn *ControlNode) InsertChildAfterCurrent(factory Factory, callIn string, callOut string) {
	ec := newExecutionContext(factory, callIn, callOut)
	if len(cn.children) == 0 {
		cn.children = []*ExecutionContext{ec}
		return
	}
	at := cn.cursor + 1
	if cn.cursor == 0 && cn.children[0].Instance == nil {
		// every prior child was removed mid-tick and the plan rebuilt; the
		// inserted child should run before whatever was appended since.
		at = 0
	}
	if at > len(cn.children) {
		at = len(cn.children)
	}
	cn.children = append(cn.children, nil)
	copy(cn.children[at+1:], cn.children[at:])
	cn.children[at] = ec
}

// SetSuccessThreshold sets the parallel success threshold K (parallel only;
// a no-op on sequence/fallback nodes).
func (cn *ControlNode) SetSuccessThreshold(k int) { cn.successThreshold = k }

// SuccessThreshold returns the current parallel success threshold.
func (cn *ControlNode) SuccessThreshold() int { return cn.successThreshold }

// Attach registers a contingency handler. classPattern may be a literal
// class name or a wildcard over it ("?" one char, "*" any characters);
// likewise messagePattern over the contingency message. Both patterns are
// anchored at the start only, so a pattern matching a prefix of the class
// name or message matches. Registration order is dispatch order; the first
// handler whose pattern and status set all match a given child tick wins.
func (cn *ControlNode) Attach(classPattern string, statuses []NodeStatus, messagePattern string, handler func(triggering *ExecutionContext)) {
	set := make(map[NodeStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	cn.handlers = append(cn.handlers, contingencyHandler{
		classPattern:   classPattern,
		statuses:       set,
		messagePattern: messagePattern,
		handler:        handler,
	})
}

// FixCurrentChild transitions the triggering child (the one whose outcome
// is currently being dispatched to a contingency handler) to Fixed with an
// empty message, telling the parent to advance without binding outputs.
// It must be called from inside a handler passed to Attach; the handler
// receives the triggering child explicitly rather than relying on a cursor,
// since a parallel has no single "current child".
func FixCurrentChild(triggering *ExecutionContext) {
	if triggering == nil || triggering.Instance == nil {
		return
	}
	triggering.Instance.SetStatus(Fixed)
	triggering.Instance.SetMessage("")
}

// ensureChildInstance lazily constructs, binds inputs for, and initialises
// the child at ec, iff it has no live instance yet.
func (cn *ControlNode) ensureChildInstance(ec *ExecutionContext) {
	if ec.Instance != nil {
		return
	}
	ec.Instance = ec.Factory()
	ec.Instance.setLogger(cn.log())
	bindIn(cn.GetIn, ec, cn.log())
	ec.Instance.initialize()
}

// tickChild ticks ec's instance (only if it's Idle or Running) then runs
// contingency dispatch against its resulting status/message.
func (cn *ControlNode) tickChild(ec *ExecutionContext) {
	status := ec.Instance.Status()
	if status == Idle || status == Running {
		ec.Instance.tick()
	}
	cn.applyContingencies(ec)
}

// applyContingencies iterates registered handlers in insertion order,
// invoking (and stopping at) the first whose class/status/message pattern
// matches ec's instance.
func (cn *ControlNode) applyContingencies(ec *ExecutionContext) {
	cn.log().Debug("searching contingency-handler for: %s - %s - %s",
		ec.Instance.ClassName(), ec.Instance.Status(), ec.Instance.Message())
	for _, h := range cn.handlers {
		if h.matches(ec) {
			cn.log().Info("%s -> run contingency handler", ec.Instance.ClassName())
			h.handler(ec)
			return
		}
	}
}
