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

// Reserved Instruction sentinels for synthetic edges, ie edges that don't
// correspond to an instruction in the instrumented program.
const (
	InstructionControlFlow = "control-flow"
	InstructionLoop        = "loop"
	InstructionLoopJump    = "loop-jump"
	InstructionPostLoop    = "post-loop"
	InstructionLoopSkip    = "loop-skip"
)

// Condition is one entry of an edge's guard list. Exactly one of Test or
// Sentinel is set: Test holds a real guard expression (an if/elif test, or
// an ast.Not wrapping one for an implicit else/skip branch), Sentinel holds
// a bare tag string standing in for an expression (eg a try-catch edge's
// "try" / "catch" tag).
type Condition struct {
	Test     ast.Node
	Sentinel string
}

// Edge represents a single statement, or control-flow transition, linking
// two vertices.
type Edge struct {
	// Condition is the (possibly empty) list of guards that must hold for
	// this edge to be taken. It is copied, not aliased, out of whatever
	// slice the builder was accumulating when the edge was created, so
	// later appends to the builder's list can't retroactively change a
	// recorded edge.
	Condition []Condition

	// Instruction is the AST node this edge executes, or nil for a
	// synthetic edge (in which case InstructionSentinel names its kind).
	Instruction         ast.Node
	InstructionSentinel string

	// OperatesOn holds the same derivation as Vertex.NameChanged, applied
	// to this edge's instruction instead of a following vertex's entry --
	// except for a plain (non-call) assignment, whose single write target
	// is recorded as the bare string OperatesOnTarget instead of a
	// one-element list, leaving OperatesOn nil. Exactly one of the two is
	// set for an instruction-carrying edge, the same pairing discipline
	// Instruction/InstructionSentinel follow above.
	OperatesOn       []string
	OperatesOnTarget string

	// InputVariables are the variables that reach this edge without being
	// assigned by a statement (eg an enclosing for-loop's target names).
	// They are only recorded here; the reference variables folded into
	// OperatesOn and NameChanged are passed separately.
	InputVariables []string

	SourceState *Vertex
	TargetState *Vertex
}

// NewEdge derives OperatesOn/OperatesOnTarget from instruction (if given)
// and returns an edge with the given condition list copied defensively.
// referenceVariables feed the same conservative may-mutate rule the vertex
// derivation applies to bare calls with arguments; inputVariables are only
// recorded, never part of the derivation.
func NewEdge(condition []Condition, instruction ast.Node, instructionSentinel string, inputVariables, referenceVariables []string) (*Edge, error) {
	e := &Edge{
		Condition:           append([]Condition(nil), condition...),
		Instruction:         instruction,
		InstructionSentinel: instructionSentinel,
		InputVariables:      inputVariables,
	}

	if instruction == nil {
		e.OperatesOn = []string{instructionSentinel}
		return e, nil
	}

	if assign, ok := instruction.(*ast.Assign); ok && !isCallLike(assign.Value) {
		target, err := nameutil.AttrNameString(assign.Targets[0], false)
		if err != nil {
			return nil, err
		}
		e.OperatesOnTarget = target
		return e, nil
	}

	names, err := nameChanged(instruction, referenceVariables)
	if err != nil {
		return nil, err
	}
	e.OperatesOn = names
	return e, nil
}

// NewSyntheticEdge builds a control-flow-only edge carrying no instruction,
// eg the edge leaving a "conditional" vertex into one of its branches.
func NewSyntheticEdge(condition []Condition, instructionSentinel string) *Edge {
	return &Edge{
		Condition:           append([]Condition(nil), condition...),
		InstructionSentinel: instructionSentinel,
		OperatesOn:          []string{instructionSentinel},
	}
}

// AttachTo sets e's target vertex and records e as target's incoming edge.
func (e *Edge) AttachTo(target *Vertex) {
	e.TargetState = target
	target.PreviousEdge = e
}

// sentinelCondition is a small helper for building a single-element
// Condition slice carrying a bare tag, used throughout the builder for
// tags like "try" / "catch" that aren't themselves guard expressions.
func sentinelCondition(tag string) []Condition {
	return []Condition{{Sentinel: tag}}
}

// negate wraps test in ast.Not, or returns nil unchanged for a nil test. It
// builds the guard of a for/while loop's loop-skip edge; if-chains build
// their negated guards with negatedConditions instead.
func negate(test ast.Node) ast.Node {
	if test == nil {
		return nil
	}
	return &ast.Not{Value: test}
}
