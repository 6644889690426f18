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

// Package reftest is test scaffolding only: a minimal in-memory
// implementation of the formula.Structure/Monitor contract, good enough to
// exercise monitor.Consumer's handlers in tests without a real
// temporal-logic engine behind it. Never imported outside a _test.go file.
package reftest

import (
	"github.com/joshdawes/vypr/formula"
)

// Atom is a single boolean observation point, identified by name and the
// quantifier-bound variables it reads.
type Atom struct {
	Name      string
	Variables []string
}

func (a Atom) BaseVariables() []string { return a.Variables }

// slot is the per-(atomIndex, subIndex) record a monitor carries.
type slot struct {
	observation interface{}
	programPath []int
	stateDict   map[string]interface{}
	truth       formula.AtomState
}

// Structure is a trivial property: its verdict settles the first time the
// atom at index Collapsing gets a truth value, true if that value is true
// and false if it is false.
type Structure struct {
	AtomList   []Atom
	BindVars   []string // quantifier variable names in binding order
	Collapsing int      // atom index whose processing settles the verdict
}

func (s *Structure) NewMonitor() formula.Monitor {
	return &Monitor{
		structure: s,
		slots:     make(map[int]map[int]*slot),
		state:     make(map[int]formula.AtomState),
		collIndex: -1,
		collSub:   -1,
	}
}

func (s *Structure) Atoms() []formula.Atom {
	atoms := make([]formula.Atom, len(s.AtomList))
	for i, a := range s.AtomList {
		atoms[i] = a
	}
	return atoms
}

func (s *Structure) BindVariables() []string { return s.BindVars }

// Monitor is reftest's Monitor implementation: state per atom index is a
// simple tri-state map, with no real temporal evaluation.
type Monitor struct {
	structure *Structure
	instTime  []int64
	slots     map[int]map[int]*slot
	state     map[int]formula.AtomState
	verdict   formula.Verdict
	collIndex int
	collSub   int
	processed map[[2]int]bool
}

func (m *Monitor) CheckOptimised(atom formula.Atom) (formula.AtomState, error) {
	truth := formula.StateTrue
	target := atom
	if inner, ok := formula.IsNegation(atom); ok {
		truth = formula.StateFalse
		target = inner
	}
	idx := m.indexOf(target)
	if idx < 0 {
		return formula.StateUnknown, nil
	}
	m.state[idx] = truth
	m.collapseOn(idx, 0, truth)
	return truth, nil
}

func (m *Monitor) CheckAtomTruthValue(atom formula.Atom, atomIndex, atomSubIndex int) (formula.AtomState, error) {
	if sub, ok := m.slots[atomIndex]; ok {
		if s, ok := sub[atomSubIndex]; ok {
			return s.truth, nil
		}
	}
	return formula.StateUnknown, nil
}

func (m *Monitor) ProcessAtomAndValue(atom formula.Atom, obsStart, obsEnd int64, value interface{}, atomIndex, atomSubIndex int, instPointID string, programPath []int, stateDict map[string]interface{}) error {
	if m.processed == nil {
		m.processed = make(map[[2]int]bool)
	}
	key := [2]int{atomIndex, atomSubIndex}
	if m.processed[key] {
		return nil
	}
	m.processed[key] = true

	truth := formula.StateTrue
	if b, ok := value.(bool); ok && !b {
		truth = formula.StateFalse
	}

	if m.slots[atomIndex] == nil {
		m.slots[atomIndex] = make(map[int]*slot)
	}
	m.slots[atomIndex][atomSubIndex] = &slot{
		observation: value,
		programPath: append([]int(nil), programPath...),
		stateDict:   stateDict,
		truth:       truth,
	}
	m.state[atomIndex] = truth
	m.collapseOn(atomIndex, atomSubIndex, truth)
	return nil
}

// collapseOn settles the verdict if atomIndex is the structure's
// collapsing atom and no verdict has been reached yet.
func (m *Monitor) collapseOn(atomIndex, atomSubIndex int, truth formula.AtomState) {
	if atomIndex != m.structure.Collapsing || m.verdict != formula.VerdictUnknown {
		return
	}
	m.collIndex = atomIndex
	m.collSub = atomSubIndex
	if truth == formula.StateTrue {
		m.verdict = formula.VerdictTrue
	} else {
		m.verdict = formula.VerdictFalse
	}
}

func (m *Monitor) Verdict() formula.Verdict { return m.verdict }

func (m *Monitor) State() map[int]formula.AtomState {
	out := make(map[int]formula.AtomState, len(m.state))
	for k, v := range m.state {
		out[k] = v
	}
	return out
}

func (m *Monitor) InstantiationTime() []int64 { return m.instTime }

func (m *Monitor) AtomToObservation() map[int]map[int]interface{} {
	out := make(map[int]map[int]interface{})
	for idx, sub := range m.slots {
		out[idx] = make(map[int]interface{})
		for subIdx, s := range sub {
			out[idx][subIdx] = s.observation
		}
	}
	return out
}

func (m *Monitor) AtomToProgramPath() map[int]map[int][]int {
	out := make(map[int]map[int][]int)
	for idx, sub := range m.slots {
		out[idx] = make(map[int][]int)
		for subIdx, s := range sub {
			out[idx][subIdx] = s.programPath
		}
	}
	return out
}

func (m *Monitor) AtomToStateDict() map[int]map[int]map[string]interface{} {
	out := make(map[int]map[int]map[string]interface{})
	for idx, sub := range m.slots {
		out[idx] = make(map[int]map[string]interface{})
		for subIdx, s := range sub {
			out[idx][subIdx] = s.stateDict
		}
	}
	return out
}

func (m *Monitor) CollapsingAtomIndex() int    { return m.collIndex }
func (m *Monitor) CollapsingAtomSubIndex() int { return m.collSub }

// Clone returns a fresh monitor whose instantiation time is the original's
// first prefixLen timestamps extended with now. Slots are left empty: the
// caller copies over whichever slots the prefix's binding positions keep
// alive, via CopyAtomSlot and truth replay.
func (m *Monitor) Clone(prefixLen int, now int64) formula.Monitor {
	prefix := m.instTime
	if prefixLen < len(prefix) {
		prefix = prefix[:prefixLen]
	}
	return &Monitor{
		structure: m.structure,
		instTime:  append(append([]int64(nil), prefix...), now),
		slots:     make(map[int]map[int]*slot),
		state:     make(map[int]formula.AtomState),
		collIndex: -1,
		collSub:   -1,
	}
}

func (m *Monitor) CopyAtomSlot(src formula.Monitor, atomIndex, atomSubIndex int) {
	from, ok := src.(*Monitor)
	if !ok {
		return
	}
	sub, ok := from.slots[atomIndex]
	if !ok {
		return
	}
	s, ok := sub[atomSubIndex]
	if !ok {
		return
	}

	if m.slots[atomIndex] == nil {
		m.slots[atomIndex] = make(map[int]*slot)
	}
	copied := *s
	m.slots[atomIndex][atomSubIndex] = &copied

	// A copied slot counts as processed: re-delivering the same
	// observation to the clone stays a no-op, the same dedup rule
	// ProcessAtomAndValue applies.
	if m.processed == nil {
		m.processed = make(map[[2]int]bool)
	}
	m.processed[[2]int{atomIndex, atomSubIndex}] = true
}

func (m *Monitor) Extend(now int64) {
	m.instTime = append(m.instTime, now)
}

func (m *Monitor) indexOf(atom formula.Atom) int {
	a, ok := atom.(Atom)
	if !ok {
		return -1
	}
	for i, candidate := range m.structure.AtomList {
		if candidate.Name == a.Name {
			return i
		}
	}
	return -1
}
