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

// Package scfg builds and queries the Symbolic Control-Flow Graph: a graph
// whose vertices are program states induced by name changes and whose edges
// are the statements that cause those changes. It owns the whole graph as an
// arena of *Vertex/*Edge values referenced by pointer. Construction is
// entirely single-threaded, so no locking is needed anywhere in this
// package.
package scfg

import (
	"github.com/joshdawes/vypr/ast"
	"github.com/joshdawes/vypr/nameutil"
)

// Reserved NameChanged sentinels for synthetic, control-flow-only vertices.
const (
	NameConditional     = "conditional"
	NamePostConditional = "post-conditional"
	NameTryCatch        = "try-catch"
	NamePostTryCatch    = "post-try-catch"
	NameLoop            = "loop"
	NamePostLoop        = "post-loop"
)

// Vertex represents a single program state.
type Vertex struct {
	// NameChanged holds the symbolic names whose binding changes at this
	// state, or one of the reserved sentinels above for a synthetic,
	// control-flow-only vertex.
	NameChanged []string

	// PathLength is the distance, in statements, from the start of the
	// current branch. It resets to 0 at every branch/loop boundary.
	PathLength int

	// StructureObj optionally back-references the AST node that induced
	// a synthetic vertex, for diagnostics.
	StructureObj ast.Node

	// OutgoingEdges is the ordered sequence of edges leaving this vertex.
	OutgoingEdges []*Edge

	// PreviousEdge is a weak back-reference to the edge that targets this
	// vertex. The graph owns the edge through Graph.Edges; this field is
	// only ever used for lookups, never for ownership or cleanup.
	PreviousEdge *Edge

	// PostConditionalVertex is set on a "conditional" vertex to point at
	// its merge vertex, or left nil if every branch terminated so no
	// merge vertex was created.
	PostConditionalVertex *Vertex

	// PostTryCatchVertex is the try/except analogue of PostConditionalVertex.
	PostTryCatchVertex *Vertex
}

// NewVertex derives NameChanged from entry (if given) and returns a fresh,
// edge-less vertex.
func NewVertex(entry ast.Node, pathLength int, structureObj ast.Node, referenceVariables []string) (*Vertex, error) {
	v := &Vertex{PathLength: pathLength, StructureObj: structureObj}
	if entry == nil {
		return v, nil
	}

	names, err := nameChanged(entry, referenceVariables)
	if err != nil {
		return nil, err
	}
	v.NameChanged = names
	return v, nil
}

// NewSyntheticVertex builds one of the reserved control-flow-only vertices
// (conditional, try-catch, loop, and their post-* merge counterparts).
func NewSyntheticVertex(sentinel string, structureObj ast.Node) *Vertex {
	return &Vertex{NameChanged: []string{sentinel}, StructureObj: structureObj}
}

// AddOutgoingEdge appends edge to v's outgoing edges and sets the edge's
// source state to v.
func (v *Vertex) AddOutgoingEdge(edge *Edge) {
	edge.SourceState = v
	v.OutgoingEdges = append(v.OutgoingEdges, edge)
}

// IsSynthetic reports whether v is one of the six reserved control-flow-only
// vertex kinds.
func (v *Vertex) IsSynthetic() bool {
	if len(v.NameChanged) != 1 {
		return false
	}
	switch v.NameChanged[0] {
	case NameConditional, NamePostConditional, NameTryCatch, NamePostTryCatch, NameLoop, NamePostLoop:
		return true
	}
	return false
}

// nameChanged derives which symbolic names an instruction rebinds,
// dispatching on the instruction's kind.
func nameChanged(entry ast.Node, referenceVariables []string) ([]string, error) {
	switch v := entry.(type) {
	case *ast.Assign:
		if isCallLike(v.Value) {
			targets, err := flattenTargets(v.Targets[0])
			if err != nil {
				return nil, err
			}
			callNames, err := nameutil.FunctionNamesIn(entry)
			if err != nil {
				return nil, err
			}
			return append(targets, callNames...), nil
		}
		target, err := nameutil.AttrNameString(v.Targets[0], false)
		if err != nil {
			return nil, err
		}
		return []string{target}, nil

	case *ast.Expr:
		call, ok := v.Value.(*ast.Call)
		if !ok {
			return nil, nil
		}
		names, err := nameutil.FunctionNamesIn(call)
		if err != nil {
			return nil, err
		}
		if len(call.Args) > 0 && len(referenceVariables) > 0 {
			names = append(names, referenceVariables...)
		}
		return names, nil

	case *ast.Return:
		if call, ok := v.Value.(*ast.Call); ok {
			return nameutil.FunctionNamesIn(call)
		}
		return nil, nil

	case *ast.Raise:
		call, ok := v.Type.(*ast.Call)
		if !ok {
			return nil, &nameutil.ErrUnsupportedNode{Node: v.Type}
		}
		name, ok := call.Func.(*ast.Name)
		if !ok {
			return nil, &nameutil.ErrUnsupportedNode{Node: call.Func}
		}
		return []string{name.Id}, nil

	case *ast.Pass:
		return []string{"pass"}, nil

	default:
		return nil, &nameutil.ErrUnsupportedNode{Node: entry}
	}
}

// isCallLike decides whether an assignment's right-hand side should
// contribute callee names to NameChanged/OperatesOn: a call, or a wrapped
// side-effectful expression.
func isCallLike(value ast.Node) bool {
	switch value.(type) {
	case *ast.Call, *ast.Expr:
		return true
	}
	return false
}

// flattenTargets returns the dotted attribute path of target, or of each
// element of target if it's a tuple (a, b = ... unpacking assignment).
func flattenTargets(target ast.Node) ([]string, error) {
	tuple, ok := target.(*ast.Tuple)
	if !ok {
		name, err := nameutil.AttrNameString(target, false)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
	names := make([]string, 0, len(tuple.Elts))
	for _, elt := range tuple.Elts {
		name, err := nameutil.AttrNameString(elt, false)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
