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
	"context"
	"errors"
	"sync"

	"github.com/joeycumines/go-bigbuff"
)

type (
	// Ticker models a BehaviorTreeRunner being driven in the background.
	Ticker interface {
		// Done closes when the ticker is fully stopped.
		Done() <-chan struct{}

		// Err returns any error the run terminated with.
		Err() error

		// Stop shuts down the ticker asynchronously.
		Stop()
	}

	// tickerCore is the base Ticker implementation, built on bigbuff.Worker
	// for the run/stop bookkeeping of its background goroutine.
	tickerCore struct {
		ctx    context.Context
		cancel context.CancelFunc
		worker bigbuff.Worker
		runner *BehaviorTreeRunner
		done   chan struct{}
		once   sync.Once
		mutex  sync.Mutex
		err    error
	}

	// tickerStopOnFailure is an implementation of a ticker that will run until the first error
	tickerStopOnFailure struct {
		Ticker
	}
)

var (
	// errExitOnFailure is a specific error used internally to exit tickers constructed with NewTickerStopOnFailure,
	// and won't be returned by the tickerStopOnFailure implementation
	errExitOnFailure = errors.New("errExitOnFailure")
)

// NewTicker constructs a Ticker that runs runner.Run(rootFactory, params)
// in a background goroutine, stopping it when ctx is canceled or Stop is
// called. Panics if ctx, runner, or rootFactory is nil.
//
// The runner will run until its root reaches a terminal status, or Stop is
// called, or ctx is canceled (in either of the latter two cases the root is
// aborted), after which any error is made available via Err, before the done
// channel closes, indicating all resources have been freed.
func NewTicker(ctx context.Context, runner *BehaviorTreeRunner, rootFactory Factory, params string) Ticker {
	if ctx == nil {
		panic(errors.New("carebt.NewTicker nil context"))
	}
	if runner == nil {
		panic(errors.New("carebt.NewTicker nil runner"))
	}
	if rootFactory == nil {
		panic(errors.New("carebt.NewTicker nil rootFactory"))
	}

	result := &tickerCore{
		runner: runner,
		done:   make(chan struct{}),
	}
	result.ctx, result.cancel = context.WithCancel(ctx)

	go result.run(rootFactory, params)

	return result
}

// NewTickerStopOnFailure returns a new Ticker that will exit on the first root FAILURE, but won't return a
// non-nil Err UNLESS there was an actual error, it's built on top of the same core implementation provided by
// NewTicker, and uses that function directly. Panic cases match NewTicker.
func NewTickerStopOnFailure(ctx context.Context, runner *BehaviorTreeRunner, rootFactory Factory, params string) Ticker {
	return tickerStopOnFailure{Ticker: NewTicker(ctx, runner, rootFactory, params)}
}

func (t *tickerCore) run(rootFactory Factory, params string) {
	done := t.worker.Do(func(stop <-chan struct{}) {
		select {
		case <-stop:
			t.runner.RequestStop()
		case <-t.ctx.Done():
			t.runner.RequestStop()
		}
	})

	status, _ := t.runner.Run(rootFactory, params)

	var err error
	if status == Failure {
		err = errExitOnFailure
	}
	t.mutex.Lock()
	t.err = err
	t.mutex.Unlock()

	done()
	t.Stop()
	t.cancel()
	close(t.done)
}

func (t *tickerCore) Done() <-chan struct{} {
	return t.done
}

func (t *tickerCore) Err() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.err
}

func (t *tickerCore) Stop() {
	t.once.Do(func() {
		t.runner.RequestStop()
	})
}

func (t tickerStopOnFailure) Err() error {
	err := t.Ticker.Err()
	if err == errExitOnFailure {
		return nil
	}
	return err
}
