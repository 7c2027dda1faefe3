/*
   Copyright 2018 Joseph Cumines

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

// NewSequenceNode constructs a composite whose children run in order, the
// first failure terminating the sequence. If all children complete with
// Success or Fixed, the sequence itself finishes Success.
func NewSequenceNode(hooks ControlHooks, paramDecl string) *ControlNode {
	return newControlNode(hooks, paramDecl, sequencePolicy{})
}

type sequencePolicy struct{}

func (sequencePolicy) step(cn *ControlNode) {
	if len(cn.children) == 0 {
		// vacuous success: an empty sequence has nothing left to fail on.
		cn.SetStatus(Success)
		return
	}

	ec := cn.children[cn.cursor]
	cn.ensureChildInstance(ec)
	cn.tickChild(ec)

	if cn.Status() != Running {
		return
	}
	if ec.Instance == nil {
		// a contingency handler removed this child mid-tick; re-enter on the
		// next tick against the mutated list.
		return
	}

	switch ec.Instance.Status() {
	case Failure, Aborted:
		cn.SetStatus(ec.Instance.Status())
		cn.SetMessage(ec.Instance.Message())
		ec.release()
	case Success, Fixed:
		msg := ec.Instance.Message()
		if ec.Instance.Status() == Success {
			bindOut(cn.SetOut, ec, cn.log())
		}
		ec.release()
		cn.cursor++
		if cn.cursor >= len(cn.children) {
			cn.SetStatus(Success)
			cn.SetMessage(msg)
		}
	default:
		// Running or Suspended: keep the child live for the next tick.
	}
}

func (sequencePolicy) abortChildren(cn *ControlNode) {
	abortCursorChild(cn)
}

// abortCursorChild is shared by sequence and fallback: both track a single
// "current" child via cursor, and only that child can ever be live.
func abortCursorChild(cn *ControlNode) {
	if cn.cursor < 0 || cn.cursor >= len(cn.children) {
		return
	}
	ec := cn.children[cn.cursor]
	if ec.Instance == nil {
		return
	}
	status := ec.Instance.Status()
	if status == Running || status == Suspended {
		ec.Instance.Abort()
	}
	cn.SetMessage(ec.Instance.Message())
	ec.release()
}
