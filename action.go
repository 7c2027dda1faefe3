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

import "time"

// ActionHooks is the contract a leaf node implementer must satisfy. OnTick
// performs the node's externally observable work and reports completion by
// calling SetStatus with a terminal status; leaving status at Running (or
// moving it to Suspended) keeps the action alive across subsequent ticks,
// for asynchronous work.
type ActionHooks interface {
	OnTick()
}

// Optional hooks an ActionHooks implementation may additionally provide;
// checked with a type assertion, analogous to io's optional interfaces
// (io.ReaderFrom, http.Flusher) rather than forcing every action to embed a
// base no-op type.
type (
	actionIniter    interface{ OnInit() }
	actionAborter   interface{ OnAbort() }
	actionDeleter   interface{ OnDelete() }
	actionTimeouter interface{ OnTimeout() }
)

// ActionNode is the leaf node kind. Embed it in a concrete action type and
// implement ActionHooks (plus any optional hooks) to describe externally
// observable work.
type ActionNode struct {
	TreeNode

	hooks      ActionHooks
	throttleMs int
	lastTick   time.Time
	onInitFn   func()
}

// NewActionNode constructs an ActionNode wrapping hooks, configured with the
// parameter declaration string (e.g. "?x ?y => ?z"). hooks is typically the
// outer struct that embeds this *ActionNode (the "self" pattern), so its Go
// type name becomes the node's ClassName.
func NewActionNode(hooks ActionHooks, paramDecl string) *ActionNode {
	a := &ActionNode{hooks: hooks}
	a.TreeNode.init(hooks, paramDecl)
	if v, ok := hooks.(actionIniter); ok {
		a.onInitFn = v.OnInit
	}
	if v, ok := hooks.(actionAborter); ok {
		a.onAbortFn = func() {
			v.OnAbort()
		}
	}
	a.onAbortFn = a.wrapAbort(a.onAbortFn)
	if v, ok := hooks.(actionDeleter); ok {
		a.onDeleteFn = v.OnDelete
	}
	if v, ok := hooks.(actionTimeouter); ok {
		a.onTimeoutFn = v.OnTimeout
	}
	return a
}

func (a *ActionNode) wrapAbort(userOnAbort func()) func() {
	return func() {
		a.log().Info("aborting %s", a.ClassName())
		if userOnAbort != nil {
			userOnAbort()
		}
	}
}

// SetThrottleMs sets the minimum wall-time in milliseconds between
// successive OnTick invocations; a tick arriving sooner is silently skipped.
func (a *ActionNode) SetThrottleMs(throttleMs int) { a.throttleMs = throttleMs }

// initialize runs OnInit (if provided) once, after inputs have been bound,
// satisfying the lifecycle: constructed -> on_init -> repeated tick.
func (a *ActionNode) initialize() {
	if a.onInitFn != nil {
		a.onInitFn()
	}
}

// tick runs a single internal tick step: honour the throttle, then invoke
// OnTick if the node is still Idle or Running.
func (a *ActionNode) tick() {
	now := time.Now()
	if a.throttleMs > 0 && !a.lastTick.IsZero() && now.Sub(a.lastTick) < time.Duration(a.throttleMs)*time.Millisecond {
		return
	}
	status := a.Status()
	if status != Idle && status != Running {
		return
	}
	a.log().Info("ticking %s - %s", a.ClassName(), status)
	a.hooks.OnTick()
	a.lastTick = now
}
