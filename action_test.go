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
	"testing"
	"time"
)

type throttledCounter struct {
	*ActionNode
	ticks int
}

func newThrottledCounter(throttleMs int) *throttledCounter {
	a := &throttledCounter{}
	a.ActionNode = NewActionNode(a, "")
	a.SetThrottleMs(throttleMs)
	return a
}

func (a *throttledCounter) OnTick() { a.ticks++ }

func TestActionNode_throttleSkipsRapidTicks(t *testing.T) {
	a := newThrottledCounter(50)
	a.setLogger(noopLogger{})
	a.initialize()

	a.tick()
	a.tick()
	a.tick()
	if a.ticks != 1 {
		t.Errorf("expected throttle to collapse rapid ticks to 1, got %d", a.ticks)
	}

	time.Sleep(60 * time.Millisecond)
	a.tick()
	if a.ticks != 2 {
		t.Errorf("expected a tick past the throttle window to land, got %d", a.ticks)
	}
}

func TestActionNode_abortCancelsTimer(t *testing.T) {
	a := &fixedResultAction{after: 100, result: Success}
	a.ActionNode = NewActionNode(a, "")
	a.setLogger(noopLogger{})
	a.initialize()
	a.SetStatus(Running)
	a.SetTimeout(20)

	a.Abort()
	if a.Status() != Aborted {
		t.Fatalf("expected ABORTED, got %s", a.Status())
	}
	if a.aborts != 1 {
		t.Errorf("expected OnAbort hook to run exactly once, got %d", a.aborts)
	}

	time.Sleep(40 * time.Millisecond)
	if a.Status() != Aborted {
		t.Errorf("timer should have been cancelled by Abort, got %s", a.Status())
	}
}

func TestActionNode_timeoutDefaultAbortsWithMessage(t *testing.T) {
	a := &fixedResultAction{after: 100, result: Success}
	a.ActionNode = NewActionNode(a, "")
	a.setLogger(noopLogger{})
	a.initialize()
	a.SetStatus(Running)
	a.SetTimeout(10)

	time.Sleep(40 * time.Millisecond)
	if a.Status() != Aborted {
		t.Fatalf("expected default on_timeout to abort, got %s", a.Status())
	}
	if a.Message() != "TIMEOUT" {
		t.Errorf("expected TIMEOUT message, got %q", a.Message())
	}
}
