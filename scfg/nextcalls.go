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

package scfg

import (
	"github.com/joshdawes/vypr/ast"
	"github.com/joshdawes/vypr/nameutil"
)

// CallAccumulator is the mutable state threaded through a NextCalls walk:
// the edges found so far, and the set of vertices already visited (so a
// loop back-edge can't send the walk around forever).
//
// The accumulator is an explicit parameter, never constructed inside
// NextCalls: two traversals sharing one accumulator would silently see
// each other's visited set and matched calls. NewCallAccumulator hands
// every caller its own fresh state, closing off that sharing by
// construction rather than by caller discipline.
type CallAccumulator struct {
	Calls   []*Edge
	Visited map[*Vertex]bool
}

// NewCallAccumulator returns a fresh, empty accumulator.
func NewCallAccumulator() *CallAccumulator {
	return &CallAccumulator{Visited: make(map[*Vertex]bool)}
}

// NextCalls performs a depth-first walk from vertex, appending to acc.Calls
// every edge whose instruction is a call to function (a bare
// call-expression or an assignment from a call). A matching edge ends its
// own branch of the walk: the search is for the next call on each path,
// not every call. Non-matching edges are traversed further. Vertices are
// visited at most once per accumulator.
func (g *Graph) NextCalls(vertex *Vertex, function string, acc *CallAccumulator) error {
	if acc.Visited[vertex] {
		return nil
	}
	acc.Visited[vertex] = true

	for _, edge := range vertex.OutgoingEdges {
		matched, err := edgeCallsFunction(edge, function)
		if err != nil {
			return err
		}
		if matched {
			acc.Calls = append(acc.Calls, edge)
			continue
		}
		if edge.TargetState == nil {
			continue
		}
		if err := g.NextCalls(edge.TargetState, function, acc); err != nil {
			return err
		}
	}
	return nil
}

// edgeCallsFunction reports whether edge's instruction models a call to
// function: a bare call-expression statement, or an assignment whose
// right-hand side is a call, whose callee name set contains function
// exactly. Every other instruction kind (return, raise, pass, plain
// assignment, synthetic control flow) never matches.
func edgeCallsFunction(edge *Edge, function string) (bool, error) {
	var value ast.Node
	switch instr := edge.Instruction.(type) {
	case *ast.Expr:
		call, ok := instr.Value.(*ast.Call)
		if !ok {
			return false, nil
		}
		value = call
	case *ast.Assign:
		call, ok := instr.Value.(*ast.Call)
		if !ok {
			return false, nil
		}
		value = call
	default:
		return false, nil
	}

	names, err := nameutil.FunctionNamesIn(value)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == function {
			return true, nil
		}
	}
	return false, nil
}
