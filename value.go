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
	"strconv"
)

// Kind tags the concrete type held by a Value.
type Kind int

const (
	// KindNil marks an unset parameter slot.
	KindNil Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// Value is the tagged-union container backing every parameter slot on a
// node instance. The slot is always present; an unwritten slot holds the
// nil kind.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Kind returns the tag identifying the concrete type held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the slot has never been written.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Int returns a Value wrapping an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a Value wrapping a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a Value wrapping a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a Value wrapping a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// AsInt returns the wrapped int64, coercing from float if necessary.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		return 0
	}
}

// AsFloat returns the wrapped float64, coercing from int if necessary.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	default:
		return 0
	}
}

// AsBool returns the wrapped bool.
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsString renders the value as a string regardless of its underlying kind,
// used for logging and for literal string slots.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// String implements fmt.Stringer for logging/printing.
func (v Value) String() string {
	if v.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.AsString())
}

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}
