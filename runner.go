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
	"fmt"
	"sync"
	"time"
)

// BehaviorTreeRunner constructs and owns the root node, driving it at a
// fixed tick rate until it reaches a terminal status.
type BehaviorTreeRunner struct {
	logger   Logger
	tickRate time.Duration

	root      Instance
	tickCount int
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewBehaviorTreeRunner constructs a runner with the given logger (a
// noopLogger is substituted if nil) and tick rate; tickRate <= 0 panics, as
// a zero-duration tick loop would spin the CPU without ever yielding.
func NewBehaviorTreeRunner(logger Logger, tickRate time.Duration) *BehaviorTreeRunner {
	if tickRate <= 0 {
		panic(fmt.Errorf("carebt.NewBehaviorTreeRunner tickRate <= 0"))
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &BehaviorTreeRunner{logger: logger, tickRate: tickRate, stop: make(chan struct{})}
}

// RequestStop aborts the root (if it's still live and non-terminal) and
// unblocks Run without waiting for the next tick. Safe to call from any
// goroutine, any number of times; used by Ticker.Stop to interrupt a
// runner driven in the background.
func (r *BehaviorTreeRunner) RequestStop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// Logger returns the logger accessor shared by every node the runner builds.
func (r *BehaviorTreeRunner) Logger() Logger { return r.logger }

// TickCount returns the number of ticks performed against the current root.
func (r *BehaviorTreeRunner) TickCount() int { return r.tickCount }

// Root returns the current root instance, or nil before the first Run.
func (r *BehaviorTreeRunner) Root() Instance { return r.root }

// Run constructs the root via rootFactory, binds its inputs from params
// (a call-parameter string evaluated against literal-only arguments -- the
// root has no parent to resolve references against), runs its on_init, then
// enters the tick loop: one tick every tick-rate, until the root reaches a
// terminal status. It returns the root's terminal status and message.
//
// A panic escaping a single tick (user on_tick/on_init/contingency-handler
// code) is recovered at the tick entry point and converted into an ABORTED
// root with message "PANIC", rather than taking down the process.
func (r *BehaviorTreeRunner) Run(rootFactory Factory, params string) (status NodeStatus, message string) {
	r.root = rootFactory()
	r.root.setLogger(r.logger)
	bindIn(func(string) Value { return Value{} }, &ExecutionContext{
		Instance: r.root,
		CallIn:   ParseCallArgs(params),
	}, r.logger)
	r.root.initialize()
	r.tickCount = 0

	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			r.root.Abort()
			return r.root.Status(), r.root.Message()
		case <-ticker.C:
			r.tickOnce()
			if r.root.Status().IsTerminal() {
				return r.root.Status(), r.root.Message()
			}
		}
	}
}

func (r *BehaviorTreeRunner) tickOnce() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic during tick: %v", rec)
			r.root.SetStatus(Aborted)
			r.root.SetMessage("PANIC")
		}
	}()
	r.tickCount++
	r.root.tick()
}
