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

// Instance is the contract the engine relies on for any constructed node,
// whether an ActionNode, a ControlNode, or a user type embedding either.
// The unexported methods can only be satisfied by embedding one of this
// package's node types, sealing the interface.
type Instance interface {
	Status() NodeStatus
	SetStatus(NodeStatus)
	Message() string
	SetMessage(string)
	ClassName() string
	Abort()
	InSlotNames() []string
	OutSlotNames() []string
	SetIn(name string, v Value)
	GetOut(name string) (Value, bool)

	setLogger(Logger)
	initialize()
	tick()
	onDelete()
}

// Factory constructs a fresh, un-initialised node instance. Composite nodes
// build their child list by calling AddChild with a Factory inside OnInit.
type Factory func() Instance

// ExecutionContext is a child descriptor: the factory used to build the
// child, the call-parameter expressions to bind on init and on success, and
// (while the child is alive) its live Instance.
//
// Instance is non-nil iff the child has been ticked at least once and has
// not yet reached a terminal status or been explicitly removed.
type ExecutionContext struct {
	Factory  Factory
	CallIn   []CallArg
	CallOut  []CallArg
	Instance Instance

	// recorded when the child completes and its instance is released, so a
	// parallel can still evaluate its threshold against finished children.
	result    NodeStatus
	resultMsg string
	completed bool
}

// newExecutionContext constructs a child descriptor from a factory and a
// parsed call-parameter string (see ParseCallArgs); output call-arguments
// are always references to parent slots, by convention of the call syntax,
// so they're parsed identically and validated at bind time instead.
func newExecutionContext(factory Factory, callIn, callOut string) *ExecutionContext {
	return &ExecutionContext{
		Factory: factory,
		CallIn:  ParseCallArgs(callIn),
		CallOut: ParseCallArgs(callOut),
	}
}

// bindIn resolves each call-in argument against the parent (reading parent
// slots for references, using literals directly) and assigns it to the
// child's correspondingly-positioned input slot. A length mismatch between
// the call arguments and the child's declared inputs is logged as a warning
// and binding proceeds positionally over the shorter list.
func bindIn(parentGet func(name string) Value, ec *ExecutionContext, logger Logger) {
	names := ec.Instance.InSlotNames()
	if len(ec.CallIn) != len(names) {
		logger.Warn("%s takes %d argument(s), but %d was/were provided",
			ec.Instance.ClassName(), len(names), len(ec.CallIn))
	}
	n := len(ec.CallIn)
	if len(names) < n {
		n = len(names)
	}
	for i := 0; i < n; i++ {
		arg := ec.CallIn[i]
		var v Value
		if arg.IsRef() {
			v = parentGet(arg.Ref)
		} else {
			v = arg.Literal
		}
		ec.Instance.SetIn(names[i], v)
	}
}

// bindOut copies the child's declared outputs into the parent's slots,
// following the call-out argument list positionally. Called only when the
// child finishes with Success, never on Fixed.
func bindOut(parentSet func(name string, v Value), ec *ExecutionContext, logger Logger) {
	outNames := ec.Instance.OutSlotNames()
	for i, name := range outNames {
		v, ok := ec.Instance.GetOut(name)
		if !ok {
			logger.Warn("%s output ?%s is not set", ec.Instance.ClassName(), name)
			continue
		}
		if i >= len(ec.CallOut) {
			logger.Warn("%s output %d not provided", ec.Instance.ClassName(), i)
			continue
		}
		if !ec.CallOut[i].IsRef() {
			logger.Warn("%s output %d is not bound to a parent slot", ec.Instance.ClassName(), i)
			continue
		}
		parentSet(ec.CallOut[i].Ref, v)
	}
}

// release calls the child's on_delete hook and drops the live instance, as
// required whenever a child reaches a terminal status or is explicitly
// removed by a contingency handler.
func (ec *ExecutionContext) release() {
	if ec.Instance != nil {
		ec.Instance.onDelete()
		ec.Instance = nil
	}
}

// finish records the instance's final status and message on the descriptor,
// then releases it. Used by the parallel policy, where a finished child stays
// in the list (with no live instance) until the composite itself terminates.
func (ec *ExecutionContext) finish() {
	if ec.Instance == nil {
		return
	}
	ec.result = ec.Instance.Status()
	ec.resultMsg = ec.Instance.Message()
	ec.completed = true
	ec.release()
}

// Result returns the recorded final status and message of a child that has
// completed and been released, and whether such a record exists.
func (ec *ExecutionContext) Result() (NodeStatus, string, bool) {
	return ec.result, ec.resultMsg, ec.completed
}

// contingencyHandler is one registration from ControlNode.Attach: a
// class-or-wildcard pattern, a set of statuses, a message wildcard, and the
// handler itself. Dispatch order is insertion order; first match wins.
type contingencyHandler struct {
	classPattern   string
	statuses       map[NodeStatus]bool
	messagePattern string
	handler        func(triggering *ExecutionContext)
}

func (h contingencyHandler) matches(ec *ExecutionContext) bool {
	if !h.statuses[ec.Instance.Status()] {
		return false
	}
	if !wildcardMatch(h.classPattern, ec.Instance.ClassName()) {
		return false
	}
	return wildcardMatch(h.messagePattern, ec.Instance.Message())
}

// wildcardMatch implements a two-metacharacter glob, "?" matching one
// character and "*" matching any run of characters, deliberately not routed
// through the standard regexp package, since only these two metacharacters
// are needed. Matching is anchored at the start of s only: a pattern that
// consumes a prefix of s matches, so "TIMEOUT" matches both "TIMEOUT" and
// "TIMEOUT_X", and the empty pattern matches everything.
func wildcardMatch(pattern, s string) bool {
	return matchWildcard([]rune(pattern), []rune(s))
}

func matchWildcard(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return true
	}
	switch pattern[0] {
	case '*':
		// try consuming 0..len(s) characters for this '*'
		for i := 0; i <= len(s); i++ {
			if matchWildcard(pattern[1:], s[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return matchWildcard(pattern[1:], s[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return matchWildcard(pattern[1:], s[1:])
	}
}
