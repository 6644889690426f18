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

// Package nameutil turns AST expression nodes into the stable dotted and
// bracketed attribute-path strings the rest of vypr uses to identify names
// and callees. It is a pure function of the subtree it's given; it never
// touches the scfg being built around it.
package nameutil

import (
	"fmt"
	"strings"

	"github.com/joshdawes/vypr/ast"
)

// ErrUnsupportedNode is returned when a name-extraction routine hits an AST
// node shape it has no rule for.
type ErrUnsupportedNode struct {
	Node ast.Node
}

func (e *ErrUnsupportedNode) Error() string {
	return fmt.Sprintf("nameutil: unsupported node kind %T", e.Node)
}

// FunctionNamesIn returns the fully qualified dotted callee name of every
// call expression found anywhere in node's subtree (including node itself).
func FunctionNamesIn(node ast.Node) ([]string, error) {
	var calls []*ast.Call
	if err := ast.Walk(node, func(n ast.Node) error {
		if call, ok := n.(*ast.Call); ok {
			calls = append(calls, call)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(calls))
	for _, call := range calls {
		parts, err := calleeChain(call)
		if err != nil {
			return nil, err
		}
		reverseStrings(parts)
		names = append(names, strings.Join(parts, "."))
	}
	return names, nil
}

// calleeChain walks a call's callee expression from innermost to outermost:
// Attribute yields a prefix token, Name yields the root token and
// terminates the walk, Subscripts are traversed but contribute no token of
// their own.
func calleeChain(call *ast.Call) ([]string, error) {
	var parts []string
	var cur ast.Node = call
	for cur != nil {
		switch v := cur.(type) {
		case *ast.Call:
			cur = v.Func
		case *ast.Attribute:
			parts = append(parts, v.Attr)
			cur = v.Value
		case *ast.Name:
			parts = append(parts, v.Id)
			cur = nil
		case *ast.Str:
			cur = nil
		case *ast.Subscript:
			cur = v.Value
		default:
			return nil, &ErrUnsupportedNode{Node: cur}
		}
	}
	return parts, nil
}

// ReversedStringList returns the string tokens making up node, from
// innermost to outermost. Subscripts are formatted as `["literal"]`, `[n]`,
// or `[name]` unless omitSubscripts is set, in which case they're elided
// entirely. A nil, nil return means node's shape isn't one that yields a
// name (eg a bare literal), which is a distinct outcome from
// ErrUnsupportedNode (a node kind the callee-chain walk above has never
// heard of at all).
func ReversedStringList(node ast.Node, omitSubscripts bool) ([]string, error) {
	switch v := node.(type) {
	case *ast.Name:
		return []string{v.Id}, nil
	case *ast.Attribute:
		rest, err := ReversedStringList(v.Value, omitSubscripts)
		if err != nil {
			return nil, err
		}
		return append([]string{v.Attr}, rest...), nil
	case *ast.Subscript:
		if omitSubscripts {
			return ReversedStringList(v.Value, omitSubscripts)
		}
		token, err := subscriptToken(v.Slice)
		if err != nil {
			return nil, err
		}
		rest, err := ReversedStringList(v.Value, omitSubscripts)
		if err != nil {
			return nil, err
		}
		return append([]string{token}, rest...), nil
	case *ast.Call:
		return FunctionNamesIn(v)
	case *ast.Str:
		return []string{v.S}, nil
	default:
		// Not a name-yielding shape.
		return nil, nil
	}
}

func subscriptToken(slice ast.Node) (string, error) {
	idx, ok := slice.(*ast.Index)
	if !ok {
		return "", &ErrUnsupportedNode{Node: slice}
	}
	switch v := idx.Value.(type) {
	case *ast.Str:
		return fmt.Sprintf("[\"%s\"]", v.S), nil
	case *ast.Num:
		return fmt.Sprintf("[%d]", v.N), nil
	case *ast.Name:
		return fmt.Sprintf("[%s]", v.Id), nil
	default:
		return "", &ErrUnsupportedNode{Node: v}
	}
}

// AttrNameString joins the tokens of node into a single dotted/bracketed
// attribute path string, eg `a.b["c"]`. It returns "", nil for load/index
// context nodes and for composite names that are expected to be covered by
// their own individual sub-traversal instead.
func AttrNameString(node ast.Node, omitSubscripts bool) (string, error) {
	switch node.(type) {
	case *ast.Load, *ast.Index:
		return "", nil
	}

	reversed, err := ReversedStringList(node, omitSubscripts)
	if err != nil {
		return "", err
	}
	if reversed == nil {
		return "", nil
	}

	result := make([]string, len(reversed))
	for i := range reversed {
		result[i] = reversed[len(reversed)-1-i]
	}

	var sb strings.Builder
	for n, part := range result {
		if part == "" {
			continue
		}
		if strings.Contains(part, ".") && len(result) > 1 {
			// Covered individually by the sub-traversals of a
			// composite name; reporting it here would double up.
			return "", nil
		}
		if part[0] != '[' {
			if n != 0 {
				sb.WriteString(".")
			}
			sb.WriteString(part)
		} else {
			sb.WriteString(part)
		}
	}
	return sb.String(), nil
}

// InstructionString renders a straight-line instruction as a short
// diagnostic string, eg `x = f(y)` or `f(y)`. It is a diagnostic formatter
// only: the scfg builder does not call it, and no control-flow decision
// depends on it.
func InstructionString(instr ast.Node) string {
	switch v := instr.(type) {
	case *ast.Assign:
		target, _ := AttrNameString(v.Targets[0], false)
		return fmt.Sprintf("%s = %s", target, expressionString(v.Value))
	case *ast.Expr:
		names, _ := FunctionNamesIn(v.Value)
		return fmt.Sprintf("%s()", strings.Join(names, ","))
	default:
		return fmt.Sprintf("%T", instr)
	}
}

func expressionString(expr ast.Node) string {
	if num, ok := expr.(*ast.Num); ok {
		return fmt.Sprintf("%d", num.N)
	}
	return fmt.Sprintf("%v", expr)
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
