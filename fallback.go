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

// NewFallbackNode constructs a composite whose children run in order, the
// first success terminating the fallback with Success. If all children
// fail, the fallback itself finishes Failure with the last child's
// contingency message.
func NewFallbackNode(hooks ControlHooks, paramDecl string) *ControlNode {
	return newControlNode(hooks, paramDecl, fallbackPolicy{})
}

type fallbackPolicy struct{}

func (fallbackPolicy) step(cn *ControlNode) {
	if len(cn.children) == 0 {
		// vacuous failure: dual of the empty sequence -- nothing to succeed on.
		cn.SetStatus(Failure)
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
	case Aborted:
		cn.SetStatus(Aborted)
		cn.SetMessage(ec.Instance.Message())
		ec.release()
	case Success, Fixed:
		msg := ec.Instance.Message()
		if ec.Instance.Status() == Success {
			bindOut(cn.SetOut, ec, cn.log())
		}
		ec.release()
		cn.SetStatus(Success)
		cn.SetMessage(msg)
	case Failure:
		msg := ec.Instance.Message()
		ec.release()
		cn.cursor++
		if cn.cursor >= len(cn.children) {
			cn.SetStatus(Failure)
			cn.SetMessage(msg)
		}
	default:
		// Running or Suspended: keep the child live for the next tick.
	}
}

func (fallbackPolicy) abortChildren(cn *ControlNode) {
	abortCursorChild(cn)
}
