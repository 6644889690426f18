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

package monitor

import (
	"github.com/joshdawes/vypr/bindingspace"
	"github.com/joshdawes/vypr/formula"
)

// PropertyMapGroup is the per-(function, property) runtime state: the
// compiled property, its binding space, the live monitors instantiated
// against it so far (keyed by static quantifier-binding index), and the
// accumulators reset at function-start and finalized at function-end.
type PropertyMapGroup struct {
	FormulaStructure formula.Structure
	BindingSpace     []bindingspace.Binding

	StaticQDToMonitors map[int][]formula.Monitor

	// VerdictReport accumulates every collapsed monitor's verdict per
	// static quantifier-binding index: cloning under handleTrigger makes
	// more than one monitor collapsing into the same qd index routine, so
	// this must be a list, not a single overwritten value.
	VerdictReport map[int][]formula.Verdict

	LatestTimeOfCall int64
	ProgramPath      []int
}

// NewPropertyMapGroup creates the group for one (function, property) pair,
// loaded at startup from its persisted binding-space dump.
func NewPropertyMapGroup(structure formula.Structure, bindingSpace []bindingspace.Binding) *PropertyMapGroup {
	return &PropertyMapGroup{
		FormulaStructure:   structure,
		BindingSpace:       bindingSpace,
		StaticQDToMonitors: make(map[int][]formula.Monitor),
		VerdictReport:      make(map[int][]formula.Verdict),
	}
}

// ResetForFunctionStart clears all per-call accumulators and records the
// call's start timestamp.
func (p *PropertyMapGroup) ResetForFunctionStart(timestamp int64) {
	p.StaticQDToMonitors = make(map[int][]formula.Monitor)
	p.VerdictReport = make(map[int][]formula.Verdict)
	p.ProgramPath = nil
	p.LatestTimeOfCall = timestamp
}

// AppendBranchLabel records one entry in the function call's program path.
func (p *PropertyMapGroup) AppendBranchLabel(label int) {
	p.ProgramPath = append(p.ProgramPath, label)
}

// CollectVerdicts scans every live monitor for one whose
// CollapsingAtomIndex has settled (>= 0) and appends its verdict onto
// VerdictReport, keyed by the static quantifier-binding index its bucket
// belongs to. More than one monitor in a bucket can collapse (cloning
// under handleTrigger routinely produces this), so every one of them
// contributes a verdict rather than the last one overwriting the rest.
func (p *PropertyMapGroup) CollectVerdicts() {
	for qdIndex, monitors := range p.StaticQDToMonitors {
		for _, m := range monitors {
			if m.CollapsingAtomIndex() >= 0 {
				p.VerdictReport[qdIndex] = append(p.VerdictReport[qdIndex], m.Verdict())
			}
		}
	}
}

// FinalizeForFunctionEnd collects verdicts, returns a copy of the report,
// then resets the group's per-call accumulators (monitors, report,
// latest-call timestamp) ready for the next function call.
func (p *PropertyMapGroup) FinalizeForFunctionEnd() map[int][]formula.Verdict {
	p.CollectVerdicts()

	report := make(map[int][]formula.Verdict, len(p.VerdictReport))
	for k, v := range p.VerdictReport {
		report[k] = append([]formula.Verdict(nil), v...)
	}

	p.StaticQDToMonitors = make(map[int][]formula.Monitor)
	p.VerdictReport = make(map[int][]formula.Verdict)
	p.LatestTimeOfCall = 0

	return report
}
