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
	"bytes"
	"fmt"
	"io"

	"github.com/xlab/treeprint"
)

// Printer models something providing behavior tree printing capabilities.
type Printer interface {
	// Fprint writes a representation of root, and every live descendant
	// reachable through it, to output.
	Fprint(output io.Writer, root Instance) error
}

// TreePrinter renders a live tree using github.com/xlab/treeprint, walking
// composite children via their *ExecutionContext list. DefaultPrinter is a
// ready-to-use instance.
type TreePrinter struct {
	// Inspector formats a single node's label; defaults to
	// DefaultPrinterInspector when the zero value is used directly.
	Inspector func(inst Instance) string
}

// DefaultPrinter is used by Sprint.
var DefaultPrinter Printer = TreePrinter{Inspector: DefaultPrinterInspector}

// Sprint renders root (typically BehaviorTreeRunner.Root) using
// DefaultPrinter, returning the error text in place of a tree on failure.
func Sprint(root Instance) string {
	var b bytes.Buffer
	if err := DefaultPrinter.Fprint(&b, root); err != nil {
		return fmt.Sprintf("carebt.DefaultPrinter error: %s", err)
	}
	return b.String()
}

// DefaultPrinterInspector labels a node with its class name, status, and
// (if set) contingency message.
func DefaultPrinterInspector(inst Instance) string {
	if inst == nil {
		return "<nil>"
	}
	if msg := inst.Message(); msg != "" {
		return fmt.Sprintf("%s [%s: %s]", inst.ClassName(), inst.Status(), msg)
	}
	return fmt.Sprintf("%s [%s]", inst.ClassName(), inst.Status())
}

// Fprint implements Printer.
func (p TreePrinter) Fprint(output io.Writer, root Instance) error {
	inspector := p.Inspector
	if inspector == nil {
		inspector = DefaultPrinterInspector
	}
	tree := treeprint.New()
	buildPrintTree(tree, root, inspector)
	b := tree.Bytes()
	if l := len(b); l != 0 && b[l-1] == '\n' {
		b = b[:l-1]
	}
	_, err := output.Write(b)
	return err
}

// childLister is satisfied by *ControlNode (and any user type embedding
// it); leaves have no children to walk.
type childLister interface {
	Children() []*ExecutionContext
}

func buildPrintTree(tree treeprint.Tree, inst Instance, inspector func(Instance) string) {
	tree.SetValue(inspector(inst))
	if inst == nil {
		return
	}
	lister, ok := inst.(childLister)
	if !ok {
		return
	}
	for _, ec := range lister.Children() {
		branch := tree.AddBranch("")
		if ec.Instance == nil {
			if status, msg, ok := ec.Result(); ok {
				if msg != "" {
					branch.SetValue(fmt.Sprintf("<done: %s: %s>", status, msg))
				} else {
					branch.SetValue(fmt.Sprintf("<done: %s>", status))
				}
			} else {
				branch.SetValue("<idle>")
			}
			continue
		}
		buildPrintTree(branch, ec.Instance, inspector)
	}
}
