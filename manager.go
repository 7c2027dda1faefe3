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
	"fmt"
	"sync"
)

type (
	// Manager supervises a set of behavior trees driven in the background,
	// stopping all of them once any supervised root finishes with FAILURE
	// or ABORTED. It implements Ticker itself, so managers can in turn be
	// supervised.
	Manager interface {
		Ticker

		// Add starts runner.Run(rootFactory, params) in the background,
		// under this manager's supervision.
		Add(runner *BehaviorTreeRunner, rootFactory Factory, params string) error
	}

	// manager is this package's implementation of the Manager interface
	manager struct {
		ctx     context.Context
		cancel  context.CancelFunc
		mu      sync.Mutex
		active  int
		stopped bool
		done    chan struct{}
		errs    []error
	}

	// TreeError records a supervised tree whose root finished with FAILURE
	// or ABORTED, causing the manager to stop. Retrieve it from Manager.Err
	// with errors.As.
	TreeError struct {
		ClassName string
		Status    NodeStatus
		Message   string
	}

	managerErrors []error
)

// ErrManagerStopped is returned by Manager.Add once the manager has started
// to stop, whether via Stop or a supervised root's failure.
var ErrManagerStopped = errors.New("carebt.Manager.Add already stopped")

// NewManager constructs a Manager with no trees under supervision. The Done
// channel closes once Stop has been called (or a supervised root has failed)
// and every supervised runner has finished; Err then reports a TreeError per
// failed root.
func NewManager() Manager {
	m := &manager{done: make(chan struct{})}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

func (m *manager) Add(runner *BehaviorTreeRunner, rootFactory Factory, params string) error {
	if runner == nil {
		return errors.New("carebt.Manager.Add nil runner")
	}
	if rootFactory == nil {
		return errors.New("carebt.Manager.Add nil rootFactory")
	}
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrManagerStopped
	}
	ticker := NewTicker(m.ctx, runner, rootFactory, params)
	m.active++
	m.mu.Unlock()
	go m.watch(runner, ticker)
	return nil
}

// watch waits for one supervised tree to finish, records a TreeError if its
// root failed (an ABORTED root only counts while the manager is not already
// stopping, so trees cancelled by the stop itself don't read as failures),
// and triggers the stop of every other tree on failure.
func (m *manager) watch(runner *BehaviorTreeRunner, ticker Ticker) {
	<-ticker.Done()

	var failed *TreeError
	if root := runner.Root(); root != nil {
		switch status := root.Status(); status {
		case Failure, Aborted:
			failed = &TreeError{
				ClassName: root.ClassName(),
				Status:    status,
				Message:   root.Message(),
			}
		}
	}

	m.mu.Lock()
	if failed != nil && (failed.Status != Aborted || !m.stopped) {
		m.errs = append(m.errs, failed)
	} else {
		failed = nil
	}
	m.active--
	m.mu.Unlock()

	if failed != nil {
		m.Stop()
	} else {
		m.finishIfIdle()
	}
}

func (m *manager) Done() <-chan struct{} {
	return m.done
}

func (m *manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errs) != 0 {
		return managerErrors(m.errs)
	}
	return nil
}

func (m *manager) Stop() {
	m.mu.Lock()
	if !m.stopped {
		m.stopped = true
		m.cancel()
	}
	m.mu.Unlock()
	m.finishIfIdle()
}

func (m *manager) finishIfIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped && m.active == 0 {
		select {
		case <-m.done:
		default:
			close(m.done)
		}
	}
}

func (e *TreeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("carebt.Manager tree %s finished %s: %s", e.ClassName, e.Status, e.Message)
	}
	return fmt.Sprintf("carebt.Manager tree %s finished %s", e.ClassName, e.Status)
}

func (e managerErrors) Error() string {
	var b []byte
	for i, err := range e {
		if i != 0 {
			b = append(b, ' ', '|', ' ')
		}
		b = append(b, err.Error()...)
	}
	return string(b)
}

func (e managerErrors) Is(target error) bool {
	for _, err := range e {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (e managerErrors) As(target interface{}) bool {
	for _, err := range e {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}
