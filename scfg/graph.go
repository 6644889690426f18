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
)

// BranchInitialStatement records the entry point of one branch of a
// conditional, loop, or try-catch structure, so that a later pass (grammar
// derivation, path enumeration) can recover which vertex began which
// branch without re-walking the AST.
type BranchInitialStatement struct {
	Kind string // conditional | conditional-no-else | post-conditional | try-catch | post-try-catch | loop | post-loop

	BodyEntry     *Vertex
	StructureNode ast.Node

	// BranchIndex/BranchCount are set for "conditional" entries: which
	// numbered branch (0-based) this is, out of how many total.
	BranchIndex int
	BranchCount int

	// Role distinguishes a try-catch entry's main body from one of its
	// handler bodies.
	Role string // try-catch-main | try-catch-handler

	// EnterTag/ExitTag label loop entries ("enter-loop" / "end-loop").
	EnterTag string
	ExitTag  string
}

// Graph is the Symbolic Control-Flow Graph built from one instrumented
// function body.
type Graph struct {
	Vertices []*Vertex
	Edges    []*Edge

	StartingVertex *Vertex

	// ReturnStatements collects every vertex whose NameChanged derives
	// from a return statement. A raise also ends its branch but is not
	// collected here.
	ReturnStatements []*Vertex

	BranchInitialStatements []BranchInitialStatement

	// ReferenceVariables are the extra symbolic names (eg a decorator's
	// bound parameter) folded into a call vertex's NameChanged whenever
	// that call takes at least one argument. See nameChanged.
	ReferenceVariables []string
}

// NewGraph allocates an empty graph with a single starting vertex.
func NewGraph(referenceVariables []string) *Graph {
	start := &Vertex{}
	g := &Graph{
		ReferenceVariables: referenceVariables,
		StartingVertex:     start,
	}
	g.Vertices = append(g.Vertices, start)
	return g
}

// addVertex registers v as owned by g and returns it, for call-site brevity.
func (g *Graph) addVertex(v *Vertex) *Vertex {
	g.Vertices = append(g.Vertices, v)
	return v
}

// addEdge registers e as owned by g, wires it from source to target, and
// returns it.
func (g *Graph) addEdge(source *Vertex, e *Edge, target *Vertex) *Edge {
	source.AddOutgoingEdge(e)
	e.AttachTo(target)
	g.Edges = append(g.Edges, e)
	return e
}

// markReturn records v as one of the graph's return exit points.
func (g *Graph) markReturn(v *Vertex) {
	g.ReturnStatements = append(g.ReturnStatements, v)
}

// recordBranchInitial appends a BranchInitialStatement entry.
func (g *Graph) recordBranchInitial(entry BranchInitialStatement) {
	g.BranchInitialStatements = append(g.BranchInitialStatements, entry)
}

// isTerminal reports whether instr is a statement kind that ends a branch
// early (return/raise), meaning no post-merge edge should be created from
// the vertex it produces.
func isTerminal(instr ast.Node) bool {
	switch instr.(type) {
	case *ast.Return, *ast.Raise:
		return true
	}
	return false
}

// isReturn reports whether instr is specifically a return statement, as
// opposed to any other branch-terminating statement (raise). Only a return
// vertex is logged into Graph.ReturnStatements.
func isReturn(instr ast.Node) bool {
	_, ok := instr.(*ast.Return)
	return ok
}
