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

// Symbol is one element of a grammar production: exactly one of Edge
// (terminal) or Vertex (nonterminal, itself recursively expandable) is set,
// or neither for the sink's epsilon production.
type Symbol struct {
	Edge   *Edge
	Vertex *Vertex
}

// Rule is one production for the vertex it's keyed under in Graph.Grammar.
type Rule struct {
	Symbols []Symbol
}

// Grammar derives a context-free grammar from g: each vertex is a
// nonterminal, and the shape of its production(s) depends case-by-case on
// the vertex's own category and the category of what it leads to. A
// vertex's outgoing edges alone don't determine this shape -- a
// conditional/try-catch head
// folds its merge vertex into the same production as the branch it
// represents, and a loop fork/head folds the loop's own continuation back
// in too -- so each case is handled on its own below rather than as one
// uniform "one rule per edge" pass.
func (g *Graph) Grammar() map[*Vertex][]Rule {
	rules := make(map[*Vertex][]Rule, len(g.Vertices))
	for _, v := range g.Vertices {
		rules[v] = rulesFor(v)
	}
	return rules
}

// StartSymbol returns the nonterminal every derivation begins from.
func (g *Graph) StartSymbol() *Vertex {
	return g.StartingVertex
}

// IsTerminalSymbol reports whether v has no outgoing edges, ie a derivation
// reaching v is complete (eg a return or raise vertex, or whichever vertex,
// plain or post-*, ends the function body).
func (g *Graph) IsTerminalSymbol(v *Vertex) bool {
	return len(v.OutgoingEdges) == 0
}

func rulesFor(v *Vertex) []Rule {
	if len(v.OutgoingEdges) == 0 {
		// Sink: the empty production, so every vertex is a key even at
		// the end of a derivation.
		return []Rule{{}}
	}

	switch {
	case nameIs(v, NameLoop):
		return loopHeadRules(v)
	case nameIs(v, NameConditional), nameIs(v, NameTryCatch):
		return headRules(v)
	default:
		// Covers plain vertices, and post-conditional/post-loop/
		// post-try-catch merge vertices alike: once the loop-fork
		// special case is factored out, a merge vertex's continuation
		// follows the same rule a plain vertex's does.
		return continuationRules(v)
	}
}

// loopHeadRules implements the "loop head" case: the skip branch alone, and
// the entry branch continuing into the loop body's first vertex.
func loopHeadRules(v *Vertex) []Rule {
	var rules []Rule
	for _, e := range v.OutgoingEdges {
		if nameIs(e.TargetState, NamePostLoop) {
			rules = append(rules, Rule{Symbols: []Symbol{{Edge: e}}})
		}
	}
	for _, e := range v.OutgoingEdges {
		if !nameIs(e.TargetState, NamePostLoop) {
			rules = append(rules, Rule{Symbols: []Symbol{{Edge: e}, {Vertex: e.TargetState}}})
		}
	}
	return rules
}

// headRules implements the "conditional / try-catch head" case: one rule
// per outgoing (branch) edge, omitting the target when the branch jumps
// straight past the structure to its merge vertex.
func headRules(v *Vertex) []Rule {
	rules := make([]Rule, 0, len(v.OutgoingEdges))
	for _, e := range v.OutgoingEdges {
		if isPostMerge(e.TargetState) {
			rules = append(rules, Rule{Symbols: []Symbol{{Edge: e}}})
		} else {
			rules = append(rules, Rule{Symbols: []Symbol{{Edge: e}, {Vertex: e.TargetState}}})
		}
	}
	return rules
}

// continuationRules implements the shared logic for an ordinary vertex's
// single continuation, also covering post-conditional/post-loop/
// post-try-catch vertices once they reach here: a fork into a loop's body
// and its skip edge, a continuation into a loop head (folding the loop's
// own exit in), a continuation into a conditional/try-catch head (folding
// its merge vertex in, if one exists), or else a bare one-hop continuation
// that stops short when the target is itself a merge/exit vertex with
// nothing more to add.
func continuationRules(v *Vertex) []Rule {
	if reloop, skip, ok := loopFork(v); ok {
		return []Rule{
			{Symbols: []Symbol{{Edge: reloop}, {Vertex: reloop.TargetState}}},
			{Symbols: []Symbol{{Edge: skip}}},
		}
	}

	first := v.OutgoingEdges[0]
	target := first.TargetState

	switch {
	case isPostMerge(target):
		return []Rule{{Symbols: []Symbol{{Edge: first}}}}

	case nameIs(target, NameLoop):
		symbols := []Symbol{{Edge: first}, {Vertex: target}}
		if postLoop := postLoopVertexOf(target); postLoop != nil {
			symbols = append(symbols, Symbol{Vertex: postLoop})
		}
		return []Rule{{Symbols: symbols}}

	case nameIs(target, NameConditional), nameIs(target, NameTryCatch):
		symbols := []Symbol{{Edge: first}, {Vertex: target}}
		if merge := mergeVertexOf(target); merge != nil {
			symbols = append(symbols, Symbol{Vertex: merge})
		}
		return []Rule{{Symbols: symbols}}

	default:
		return []Rule{{Symbols: []Symbol{{Edge: first}, {Vertex: target}}}}
	}
}

// loopFork reports whether v forks directly into a loop's body and its
// skip path at once -- ie v is a loop body's tail vertex, which the builder
// wires with both a loop-jump edge back to the loop head and a post-loop
// edge to the post-loop vertex.
func loopFork(v *Vertex) (reloop, skip *Edge, ok bool) {
	for _, e := range v.OutgoingEdges {
		switch {
		case nameIs(e.TargetState, NameLoop):
			reloop = e
		case nameIs(e.TargetState, NamePostLoop):
			skip = e
		}
	}
	return reloop, skip, reloop != nil && skip != nil
}

// isPostMerge reports whether v is one of the three synthetic merge/exit
// vertex kinds a structure's continuation can fold straight into.
func isPostMerge(v *Vertex) bool {
	return nameIs(v, NamePostConditional) || nameIs(v, NamePostTryCatch) || nameIs(v, NamePostLoop)
}

// mergeVertexOf returns head's recorded merge vertex (conditional or
// try-catch), or nil if every branch of the structure terminated and no
// merge vertex was created.
func mergeVertexOf(head *Vertex) *Vertex {
	if head.PostConditionalVertex != nil {
		return head.PostConditionalVertex
	}
	return head.PostTryCatchVertex
}

// postLoopVertexOf returns loopHead's post-loop vertex by following its
// loop-skip edge, always present per the loop-head invariant.
func postLoopVertexOf(loopHead *Vertex) *Vertex {
	for _, e := range loopHead.OutgoingEdges {
		if nameIs(e.TargetState, NamePostLoop) {
			return e.TargetState
		}
	}
	return nil
}

// nameIs reports whether v's NameChanged is exactly the single reserved
// sentinel name.
func nameIs(v *Vertex, name string) bool {
	return len(v.NameChanged) == 1 && v.NameChanged[0] == name
}
