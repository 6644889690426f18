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

// Build constructs the whole graph for a function body, starting from a
// fresh graph's StartingVertex and processing the body as its top-level
// block.
func Build(body []ast.Node, referenceVariables []string) (*Graph, error) {
	g := NewGraph(referenceVariables)
	_, _, _, err := g.processBlock(body, g.StartingVertex, nil, nil)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// mergeTail pairs a branch's terminal vertex with whatever extra condition
// still needs to be attached to the edge joining it to a merge vertex (only
// non-empty for the implicit skip edge of a no-else conditional).
type mergeTail struct {
	vertex    *Vertex
	condition []Condition
}

// processBlock threads a straight-line sequence of statements (and whatever
// control-flow structures appear among them) starting from start, returning
// the first vertex entered, the block's tail vertex, and whether every path
// through the block terminated in a return/raise (in which case tail is
// nil and callers must not attach anything past it).
func (g *Graph) processBlock(block []ast.Node, start *Vertex, condition []Condition, inputVariables []string) (*Vertex, *Vertex, bool, error) {
	if len(block) == 0 {
		return start, start, false, nil
	}

	current := start
	currentCondition := append([]Condition(nil), condition...)
	var first *Vertex

	for _, stmt := range block {
		var next *Vertex
		var terminated bool
		var err error

		switch v := stmt.(type) {
		case *ast.If:
			next, terminated, err = g.processIf(v, current, currentCondition, inputVariables)
			if !terminated {
				currentCondition = append(currentCondition, Condition{Sentinel: "skip-conditional"})
			}
		case *ast.Try:
			next, terminated, err = g.processTry(v, current, currentCondition, inputVariables)
			if !terminated {
				currentCondition = append(currentCondition, Condition{Sentinel: "skip-try-catch"})
			}
		case *ast.For:
			next, err = g.processFor(v, current, currentCondition, inputVariables)
			currentCondition = append(currentCondition, Condition{Sentinel: "skip-for-loop"})
		case *ast.While:
			next, err = g.processWhile(v, current, currentCondition, inputVariables)
		default:
			next, terminated, err = g.processStraightLine(stmt, current, currentCondition, inputVariables)
		}
		if err != nil {
			return nil, nil, false, err
		}
		if first == nil {
			first = firstVertexOf(current, next)
		}
		if terminated {
			return first, nil, true, nil
		}
		current = next
	}

	return first, current, false, nil
}

// firstVertexOf picks the vertex to report as a branch's entry point: the
// vertex the block's first statement (or structure) continues from, or start
// itself when that first statement ended the branch and so left no
// continuation vertex.
func firstVertexOf(start, next *Vertex) *Vertex {
	if next != nil {
		return next
	}
	return start
}

// processStraightLine handles a single non-control-flow statement.
func (g *Graph) processStraightLine(stmt ast.Node, current *Vertex, condition []Condition, inputVariables []string) (*Vertex, bool, error) {
	nextVertex, err := NewVertex(stmt, current.PathLength+1, nil, g.ReferenceVariables)
	if err != nil {
		return nil, false, err
	}
	edge, err := NewEdge(condition, stmt, "", inputVariables, g.ReferenceVariables)
	if err != nil {
		return nil, false, err
	}
	g.addVertex(nextVertex)
	g.addEdge(current, edge, nextVertex)

	if isReturn(stmt) {
		g.markReturn(nextVertex)
	}
	if isTerminal(stmt) {
		return nil, true, nil
	}
	return nextVertex, false, nil
}

// ifBranch is one (test, body) pair of a flattened if/elif chain.
type ifBranch struct {
	Test ast.Node
	Body []ast.Node
}

// flattenIfChain turns an *ast.If, which the host AST represents as nested
// single-statement Orelse blocks for each `elif`, into a flat list of
// branches plus a trailing else body (nil if there is none).
func flattenIfChain(node *ast.If) ([]ifBranch, []ast.Node) {
	branches := []ifBranch{{Test: node.Test, Body: node.Body}}
	orelse := node.Orelse
	for len(orelse) == 1 {
		nested, ok := orelse[0].(*ast.If)
		if !ok {
			break
		}
		branches = append(branches, ifBranch{Test: nested.Test, Body: nested.Body})
		orelse = nested.Orelse
	}
	return branches, orelse
}

// negatedConditions turns each of tests into a Condition holding its
// logical negation, used to build the guard for every branch after the
// first (and for the implicit else/skip edge).
func negatedConditions(tests []ast.Node) []Condition {
	conds := make([]Condition, 0, len(tests))
	for _, t := range tests {
		conds = append(conds, Condition{Test: &ast.Not{Value: t}})
	}
	return conds
}

// processIf builds the synthetic "conditional"/"post-conditional" vertex
// pair for node and wires every branch (including an implicit no-else skip
// edge) between them. Returns (nil, true, nil) if every branch terminates
// in a return/raise, since then there is nothing left to merge into.
func (g *Graph) processIf(node *ast.If, start *Vertex, enteringCondition []Condition, inputVariables []string) (*Vertex, bool, error) {
	branches, elseBody := flattenIfChain(node)

	conditionalVertex := g.addVertex(NewSyntheticVertex(NameConditional, node))
	entryEdge := NewSyntheticEdge(enteringCondition, InstructionControlFlow)
	g.addEdge(start, entryEdge, conditionalVertex)

	branchCount := len(branches) + 1 // + 1 for the else/implicit-skip arm
	var negated []ast.Node
	var tails []mergeTail

	for i, b := range branches {
		cond := append(negatedConditions(negated), Condition{Test: b.Test})
		first, tail, terminated, err := g.processBlock(b.Body, conditionalVertex, cond, inputVariables)
		if err != nil {
			return nil, false, err
		}
		g.recordBranchInitial(BranchInitialStatement{
			Kind:          NameConditional,
			BodyEntry:     first,
			StructureNode: node,
			BranchIndex:   i,
			BranchCount:   branchCount,
		})
		if !terminated {
			tails = append(tails, mergeTail{vertex: tail})
		}
		negated = append(negated, b.Test)
	}

	if elseBody != nil {
		cond := negatedConditions(negated)
		first, tail, terminated, err := g.processBlock(elseBody, conditionalVertex, cond, inputVariables)
		if err != nil {
			return nil, false, err
		}
		g.recordBranchInitial(BranchInitialStatement{
			Kind:          NameConditional,
			BodyEntry:     first,
			StructureNode: node,
			BranchIndex:   len(branches),
			BranchCount:   branchCount,
		})
		if !terminated {
			tails = append(tails, mergeTail{vertex: tail})
		}
	} else {
		// A no-else entry reports how many explicit branches the chain
		// has, not the +1 the implicit fall-through arm adds.
		g.recordBranchInitial(BranchInitialStatement{
			Kind:          "conditional-no-else",
			BodyEntry:     conditionalVertex,
			StructureNode: node,
			BranchIndex:   len(branches),
			BranchCount:   len(branches),
		})
		tails = append(tails, mergeTail{vertex: conditionalVertex, condition: negatedConditions(negated)})
	}

	if len(tails) == 0 {
		return nil, true, nil
	}

	postVertex := g.addVertex(NewSyntheticVertex(NamePostConditional, node))
	conditionalVertex.PostConditionalVertex = postVertex
	for _, t := range tails {
		edge := NewSyntheticEdge(t.condition, InstructionControlFlow)
		g.addEdge(t.vertex, edge, postVertex)
	}
	g.recordBranchInitial(BranchInitialStatement{Kind: NamePostConditional, BodyEntry: postVertex, StructureNode: node})

	return postVertex, false, nil
}

// processTry builds the synthetic "try-catch"/"post-try-catch" vertex pair
// for node: the main body hangs off the try-catch vertex tagged "try", each
// handler body hangs off it tagged "catch", and every non-terminated tail
// (main body's and every handler's) merges into the post-try-catch vertex.
func (g *Graph) processTry(node *ast.Try, start *Vertex, enteringCondition []Condition, inputVariables []string) (*Vertex, bool, error) {
	tryCatchVertex := g.addVertex(NewSyntheticVertex(NameTryCatch, node))
	entryEdge := NewSyntheticEdge(enteringCondition, InstructionControlFlow)
	g.addEdge(start, entryEdge, tryCatchVertex)

	var tails []mergeTail

	mainFirst, mainTail, mainTerminated, err := g.processBlock(node.Body, tryCatchVertex, sentinelCondition("try"), inputVariables)
	if err != nil {
		return nil, false, err
	}
	g.recordBranchInitial(BranchInitialStatement{
		Kind: NameTryCatch, BodyEntry: mainFirst, StructureNode: node, Role: "try-catch-main",
	})
	if !mainTerminated {
		tails = append(tails, mergeTail{vertex: mainTail})
	}

	for _, handler := range node.Handlers {
		hFirst, hTail, hTerminated, err := g.processBlock(handler.Body, tryCatchVertex, sentinelCondition("catch"), inputVariables)
		if err != nil {
			return nil, false, err
		}
		g.recordBranchInitial(BranchInitialStatement{
			Kind: NameTryCatch, BodyEntry: hFirst, StructureNode: node, Role: "try-catch-handler",
		})
		if !hTerminated {
			tails = append(tails, mergeTail{vertex: hTail})
		}
	}

	if len(tails) == 0 {
		return nil, true, nil
	}

	postVertex := g.addVertex(NewSyntheticVertex(NamePostTryCatch, node))
	tryCatchVertex.PostTryCatchVertex = postVertex
	for _, t := range tails {
		edge := NewSyntheticEdge(t.condition, InstructionControlFlow)
		g.addEdge(t.vertex, edge, postVertex)
	}
	g.recordBranchInitial(BranchInitialStatement{Kind: NamePostTryCatch, BodyEntry: postVertex, StructureNode: node})

	return postVertex, false, nil
}

// processFor builds the synthetic "loop"/"post-loop" vertex pair for node.
// For a non-empty body the loop vertex has two outgoing edges: the body's
// first statement edge (guard: the loop's iterable) and "loop-skip" straight
// to the post-loop vertex (guard: the negated iterable, ie the iterable is
// empty). A body tail that doesn't terminate gets two edges of its own: a
// "loop-jump" edge back to the loop vertex and a "post-loop" edge to the
// post-loop vertex. The loop target name is folded into InputVariables for
// anything processed inside the body, since the target reaches body
// statements without ever being assigned by one.
func (g *Graph) processFor(node *ast.For, start *Vertex, enteringCondition []Condition, inputVariables []string) (*Vertex, error) {
	loopVertex := g.addVertex(NewSyntheticVertex(NameLoop, node))
	entryEdge := NewSyntheticEdge(enteringCondition, InstructionControlFlow)
	g.addEdge(start, entryEdge, loopVertex)

	targetNames, err := flattenTargets(node.Target)
	if err != nil {
		return nil, err
	}
	bodyInputVariables := append(append([]string(nil), inputVariables...), targetNames...)

	jumpCondition := []Condition{{Test: node.Iter}}
	first, tail, terminated, err := g.processBlock(node.Body, loopVertex, jumpCondition, bodyInputVariables)
	if err != nil {
		return nil, err
	}
	g.recordBranchInitial(BranchInitialStatement{
		Kind: NameLoop, BodyEntry: first, StructureNode: node, EnterTag: "enter-loop",
	})

	postVertex := g.addVertex(NewSyntheticVertex(NamePostLoop, node))

	if !terminated {
		backEdge := NewSyntheticEdge(nil, InstructionLoopJump)
		g.addEdge(tail, backEdge, loopVertex)

		postLoopEdge := NewSyntheticEdge(nil, InstructionPostLoop)
		g.addEdge(tail, postLoopEdge, postVertex)
	}

	skipCondition := []Condition{{Test: negate(node.Iter)}}
	skipEdge, err := NewEdge(skipCondition, nil, InstructionLoopSkip, inputVariables, g.ReferenceVariables)
	if err != nil {
		return nil, err
	}
	g.addEdge(loopVertex, skipEdge, postVertex)

	g.recordBranchInitial(BranchInitialStatement{Kind: NamePostLoop, BodyEntry: postVertex, StructureNode: node, ExitTag: "end-loop"})

	return postVertex, nil
}

// processWhile builds the same synthetic loop/post-loop shape as
// processFor, treating a while loop structurally like a for loop: its own
// test is used as both the loop-jump guard and (negated) the loop-skip
// guard, and no extra input variables are introduced since a while loop
// binds no new names of its own.
func (g *Graph) processWhile(node *ast.While, start *Vertex, enteringCondition []Condition, inputVariables []string) (*Vertex, error) {
	loopVertex := g.addVertex(NewSyntheticVertex(NameLoop, node))
	entryEdge := NewSyntheticEdge(enteringCondition, InstructionControlFlow)
	g.addEdge(start, entryEdge, loopVertex)

	jumpCondition := []Condition{{Test: node.Test}}
	first, tail, terminated, err := g.processBlock(node.Body, loopVertex, jumpCondition, inputVariables)
	if err != nil {
		return nil, err
	}
	g.recordBranchInitial(BranchInitialStatement{
		Kind: NameLoop, BodyEntry: first, StructureNode: node, EnterTag: "enter-loop",
	})

	postVertex := g.addVertex(NewSyntheticVertex(NamePostLoop, node))

	if !terminated {
		backEdge := NewSyntheticEdge(nil, InstructionLoopJump)
		g.addEdge(tail, backEdge, loopVertex)

		postLoopEdge := NewSyntheticEdge(nil, InstructionPostLoop)
		g.addEdge(tail, postLoopEdge, postVertex)
	}

	skipCondition := []Condition{{Test: negate(node.Test)}}
	skipEdge, err := NewEdge(skipCondition, nil, InstructionLoopSkip, inputVariables, g.ReferenceVariables)
	if err != nil {
		return nil, err
	}
	g.addEdge(loopVertex, skipEdge, postVertex)

	g.recordBranchInitial(BranchInitialStatement{Kind: NamePostLoop, BodyEntry: postVertex, StructureNode: node, ExitTag: "end-loop"})

	return postVertex, nil
}
