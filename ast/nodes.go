// VyPR
// Copyright (C) 2018-2026+ Joshua Dawes and the VyPR contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ast

// Name is a bare identifier reference, eg `x`.
type Name struct {
	Id string
}

func (obj *Name) isNode() {}
func (obj *Name) Apply(fn func(Node) error) error { return fn(obj) }

// Load is the load-context marker node. It carries no data of its own; its
// presence is what get_attr_name_string (nameutil.AttrNameString) checks for
// to know that an object reference isn't a usable dotted path.
type Load struct{}

func (obj *Load) isNode() {}
func (obj *Load) Apply(fn func(Node) error) error { return fn(obj) }

// Index wraps the value used to subscript something, eg the `0` in `x[0]`.
type Index struct {
	Value Node
}

func (obj *Index) isNode() {}
func (obj *Index) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Num is a numeric literal.
type Num struct {
	N int64
}

func (obj *Num) isNode() {}
func (obj *Num) Apply(fn func(Node) error) error { return fn(obj) }

// Str is a string literal.
type Str struct {
	S string
}

func (obj *Str) isNode() {}
func (obj *Str) Apply(fn func(Node) error) error { return fn(obj) }

// Attribute is a dotted attribute access, eg `a.b`.
type Attribute struct {
	Value Node
	Attr  string
}

func (obj *Attribute) isNode() {}
func (obj *Attribute) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Subscript is a subscript access, eg `a[b]`.
type Subscript struct {
	Value Node
	Slice Node // an *Index, or nil
}

func (obj *Subscript) isNode() {}
func (obj *Subscript) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	if err := Walk(obj.Slice, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Tuple groups several nodes together, eg assignment targets `a, b = ...`.
type Tuple struct {
	Elts []Node
}

func (obj *Tuple) isNode() {}
func (obj *Tuple) Apply(fn func(Node) error) error {
	for _, elt := range obj.Elts {
		if err := Walk(elt, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Call is a function or method call expression.
type Call struct {
	Func Node
	Args []Node
}

func (obj *Call) isNode() {}
func (obj *Call) Apply(fn func(Node) error) error {
	if err := Walk(obj.Func, fn); err != nil {
		return err
	}
	for _, arg := range obj.Args {
		if err := Walk(arg, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Assign is a (possibly tuple-unpacking) assignment statement.
type Assign struct {
	Targets []Node
	Value   Node
}

func (obj *Assign) isNode() {}
func (obj *Assign) isStmt() {}
func (obj *Assign) Apply(fn func(Node) error) error {
	for _, target := range obj.Targets {
		if err := Walk(target, fn); err != nil {
			return err
		}
	}
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Expr is a bare expression statement, most commonly a call made only for
// its side effects, eg `f(x)` on a line by itself.
type Expr struct {
	Value Node
}

func (obj *Expr) isNode() {}
func (obj *Expr) isStmt() {}
func (obj *Expr) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Return is a return statement. Value is nil for a bare `return`.
type Return struct {
	Value Node
}

func (obj *Return) isNode() {}
func (obj *Return) isStmt() {}
func (obj *Return) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Raise is a raise/throw statement. Type is expected to be a *Call whose
// Func is a *Name, ie the exception class being constructed.
type Raise struct {
	Type Node
}

func (obj *Raise) isNode() {}
func (obj *Raise) isStmt() {}
func (obj *Raise) Apply(fn func(Node) error) error {
	if err := Walk(obj.Type, fn); err != nil {
		return err
	}
	return fn(obj)
}

// Pass is a no-op statement.
type Pass struct{}

func (obj *Pass) isNode() {}
func (obj *Pass) isStmt() {}
func (obj *Pass) Apply(fn func(Node) error) error { return fn(obj) }

// If is a conditional statement. A chained elif is represented by Orelse
// holding a single-element slice whose only entry is another *If.
type If struct {
	Test   Node
	Body   []Node
	Orelse []Node
}

func (obj *If) isNode() {}
func (obj *If) isStmt() {}
func (obj *If) Apply(fn func(Node) error) error {
	if err := Walk(obj.Test, fn); err != nil {
		return err
	}
	for _, n := range obj.Body {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	for _, n := range obj.Orelse {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// ExceptHandler is a single `except` clause of a Try statement.
type ExceptHandler struct {
	Body []Node
}

func (obj *ExceptHandler) isNode() {}
func (obj *ExceptHandler) Apply(fn func(Node) error) error {
	for _, n := range obj.Body {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Try is a try/except statement.
type Try struct {
	Body     []Node
	Handlers []*ExceptHandler
}

func (obj *Try) isNode() {}
func (obj *Try) isStmt() {}
func (obj *Try) Apply(fn func(Node) error) error {
	for _, n := range obj.Body {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	for _, h := range obj.Handlers {
		if err := Walk(h, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// For is a for-loop over an iterable.
type For struct {
	Target Node // *Name or *Tuple
	Iter   Node
	Body   []Node
}

func (obj *For) isNode() {}
func (obj *For) isStmt() {}
func (obj *For) Apply(fn func(Node) error) error {
	if err := Walk(obj.Target, fn); err != nil {
		return err
	}
	if err := Walk(obj.Iter, fn); err != nil {
		return err
	}
	for _, n := range obj.Body {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// While is a conditional loop.
type While struct {
	Test Node
	Body []Node
}

func (obj *While) isNode() {}
func (obj *While) isStmt() {}
func (obj *While) Apply(fn func(Node) error) error {
	if err := Walk(obj.Test, fn); err != nil {
		return err
	}
	for _, n := range obj.Body {
		if err := Walk(n, fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Not is a logical negation of a guard expression, eg the implicit `else`
// branch of an `if` with no explicit test, or the empty-iterable guard on a
// for-loop's skip edge.
type Not struct {
	Value Node
}

func (obj *Not) isNode() {}
func (obj *Not) Apply(fn func(Node) error) error {
	if err := Walk(obj.Value, fn); err != nil {
		return err
	}
	return fn(obj)
}
