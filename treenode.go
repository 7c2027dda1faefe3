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

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// TreeNode provides the common implementation shared by every node kind:
// identity (ClassName), status + contingency message (guarded so a timer
// goroutine and the tick goroutine never race, per the concurrency model),
// parameter slots, and the timeout timer. ActionNode and ControlNode embed
// TreeNode; user node types embed one of those.
type TreeNode struct {
	mu      sync.Mutex
	status  NodeStatus
	message string
	timer   *time.Timer

	logger Logger

	className string
	spec      ParamSpec
	in        slots
	out       slots

	onAbortFn   func()
	onDeleteFn  func()
	onTimeoutFn func()
}

func classNameOf(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	name := t.Name()
	if name == "" {
		return t.String()
	}
	return name
}

// init wires up the common fields; called by NewActionNode/NewSequenceNode/
// etc, never directly by node implementers.
func (t *TreeNode) init(self interface{}, decl string) {
	t.status = Idle
	t.className = classNameOf(self)
	t.spec = ParseParamSpec(decl)
	t.in = newSlots(t.spec.In)
	t.out = newSlots(t.spec.Out)
	t.onTimeoutFn = t.defaultOnTimeout
}

func (t *TreeNode) defaultOnTimeout() {
	t.log().Warn("%s.OnTimeout is not overridden, thus the default is called (abort)", t.className)
	t.Abort()
	t.SetMessage("TIMEOUT")
}

func (t *TreeNode) log() Logger {
	if t.logger == nil {
		return noopLogger{}
	}
	return t.logger
}

// setLogger propagates the runner's logger down into a freshly constructed
// child instance; part of the unexported Instance contract.
func (t *TreeNode) setLogger(l Logger) { t.logger = l }

// onDelete runs the type's on_delete hook exactly once, satisfying part of
// the unexported Instance contract common to both ActionNode and ControlNode.
func (t *TreeNode) onDelete() {
	if t.onDeleteFn != nil {
		t.onDeleteFn()
	}
}

// ClassName returns the Go type name of the concrete node implementation,
// used for logging and contingency-handler class matching.
func (t *TreeNode) ClassName() string { return t.className }

// Status returns the node's current status.
func (t *TreeNode) Status() NodeStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetStatus sets the node's status. Transitioning into any terminal status
// (Success, Failure, Fixed, Aborted) cancels any pending timeout timer.
func (t *TreeNode) SetStatus(status NodeStatus) {
	t.mu.Lock()
	t.setStatusLocked(status)
	t.mu.Unlock()
}

func (t *TreeNode) setStatusLocked(status NodeStatus) {
	t.status = status
	if status.IsTerminal() {
		t.cancelTimerLocked()
	}
}

// Message returns the current contingency message (empty string if unset).
func (t *TreeNode) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// SetMessage sets the contingency message.
func (t *TreeNode) SetMessage(message string) {
	t.mu.Lock()
	t.message = message
	t.mu.Unlock()
}

// SetTimeout schedules on_timeout to fire after timeoutMs milliseconds,
// unless the node reaches a terminal status first. Firing is only effective
// if, at fire time, the node's status is still Running or Suspended.
func (t *TreeNode) SetTimeout(timeoutMs int) {
	t.mu.Lock()
	t.cancelTimerLocked()
	t.timer = time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, t.fireTimeout)
	t.mu.Unlock()
}

func (t *TreeNode) fireTimeout() {
	t.mu.Lock()
	eligible := t.status == Running || t.status == Suspended
	t.mu.Unlock()
	if eligible {
		t.onTimeoutFn()
	}
	t.CancelTimeoutTimer()
}

// CancelTimeoutTimer cancels any pending timeout timer for this node.
func (t *TreeNode) CancelTimeoutTimer() {
	t.mu.Lock()
	t.cancelTimerLocked()
	t.mu.Unlock()
}

func (t *TreeNode) cancelTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Abort is the public entry point to cancel a node: it cancels the timeout
// timer, runs the type-specific abort hook (which, for composites, aborts
// the live child/children first), then sets status to Aborted.
func (t *TreeNode) Abort() {
	t.CancelTimeoutTimer()
	if t.onAbortFn != nil {
		t.onAbortFn()
	}
	t.SetStatus(Aborted)
}

// InSlotNames returns the declared input parameter names, in order.
func (t *TreeNode) InSlotNames() []string { return t.spec.In }

// OutSlotNames returns the declared output parameter names, in order.
func (t *TreeNode) OutSlotNames() []string { return t.spec.Out }

// SetIn assigns an input parameter slot by name.
func (t *TreeNode) SetIn(name string, v Value) {
	t.mu.Lock()
	t.in[name] = v
	t.mu.Unlock()
}

// GetIn reads an input parameter slot by name.
func (t *TreeNode) GetIn(name string) Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in[name]
}

// SetOut assigns an output parameter slot by name; node implementations call
// this from OnTick/internal logic to publish a result.
func (t *TreeNode) SetOut(name string, v Value) {
	t.mu.Lock()
	t.out[name] = v
	t.mu.Unlock()
}

// GetOut reads an output parameter slot by name. The second return value is
// false if the slot was never written (still nil).
func (t *TreeNode) GetOut(name string) (Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.out[name]
	return v, ok && !v.IsNil()
}

// stripSigil removes the leading "?" from a parameter name.
func stripSigil(name string) string { return strings.TrimPrefix(name, "?") }
