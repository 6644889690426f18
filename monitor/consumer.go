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
	"fmt"
	"sync"
	"time"

	"github.com/joshdawes/vypr/formula"
	"github.com/joshdawes/vypr/sink"
	"github.com/joshdawes/vypr/util/errwrap"
)

const defaultQueueSize = 1024

// Consumer is the single background worker that owns every
// PropertyMapGroup and drains the bounded event queue a host application's
// instrumentation emits into. All state below is touched only from Run's
// goroutine, so none of it needs a mutex.
type Consumer struct {
	Logf func(format string, v ...interface{})
	Now  func() int64

	// MachineID, when set, prefixes every function name submitted to the
	// sink, qualifying function identifiers per the machine_id
	// configuration key.
	MachineID string

	// TestMode selects where a function-call record's transaction time
	// comes from: the test framework's announced transaction id when set,
	// the call's own end timestamp otherwise.
	TestMode bool

	Sink       sink.Client
	Properties map[string]*PropertyMapGroup

	queue chan Event
	wg    sync.WaitGroup

	paused        bool
	transactionID int64

	mixedAtomLogOnce sync.Once
}

// NewConsumer returns a Consumer ready to have properties registered and
// Run started. now defaults to time.Now().UnixNano() if nil.
func NewConsumer(sinkClient sink.Client, logf func(format string, v ...interface{}), now func() int64) *Consumer {
	if now == nil {
		now = func() int64 { return time.Now().UnixNano() }
	}
	return &Consumer{
		Logf:       logf,
		Now:        now,
		Sink:       sinkClient,
		Properties: make(map[string]*PropertyMapGroup),
		queue:      make(chan Event, defaultQueueSize),
	}
}

// RegisterProperty makes group reachable by the property hashes used in
// "function"/"trigger"/"path"/"instrument"/"test_status" events.
func (c *Consumer) RegisterProperty(propertyHash string, group *PropertyMapGroup) {
	c.Properties[propertyHash] = group
}

// Submit enqueues ev, blocking if the queue is full. Every enqueued event
// is tracked by Consumer's internal WaitGroup and individually marked done
// once Run has finished handling it, so Drain is an accurate barrier over
// everything submitted so far, not an approximation of queue emptiness.
func (c *Consumer) Submit(ev Event) {
	c.wg.Add(1)
	c.queue <- ev
}

// Drain blocks until every event submitted so far has been processed.
func (c *Consumer) Drain() {
	c.wg.Wait()
}

func (c *Consumer) logf(format string, v ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, v...)
	}
}

// Run is the consumer's main loop: a 1s-poll-granularity select over the
// event queue. A poll timeout is benign and the loop simply continues (a
// liveness check point, not a failure). Run returns once an
// "end-monitoring" event has been processed.
func (c *Consumer) Run() {
	for {
		select {
		case ev, ok := <-c.queue:
			if !ok {
				return
			}
			stop := c.handle(ev)
			c.wg.Done()
			if stop {
				return
			}
		case <-time.After(time.Second):
			// Poll timeout: nothing to do but loop and check again.
		}
	}
}

// handle dispatches ev to its handler and reports whether Run should stop.
func (c *Consumer) handle(ev Event) bool {
	if c.paused && ev.Kind != KindInactiveMonitoringStop {
		return false
	}

	switch ev.Kind {
	case KindEndMonitoring:
		return true
	case KindInactiveMonitoringStart:
		c.paused = true
	case KindInactiveMonitoringStop:
		c.paused = false
	case KindTestTransaction:
		c.transactionID = ev.TransactionID
	case KindFunction:
		c.handleFunction(ev)
	case KindTrigger:
		c.handleTrigger(ev)
	case KindPath:
		c.handlePath(ev)
	case KindInstrument:
		c.handleInstrument(ev)
	case KindTestStatus:
		c.handleTestStatus(ev)
	}
	return false
}

func (c *Consumer) handleFunction(ev Event) {
	switch ev.Scope {
	case ScopeStart:
		for _, hash := range ev.PropertyHashes {
			if pmg, ok := c.Properties[hash]; ok {
				pmg.ResetForFunctionStart(ev.Timestamp)
			}
		}
	case ScopeEnd:
		c.handleFunctionEnd(ev)
	}
}

// handleFunctionEnd submits one function-call record (taken from the
// group of the first property in the event's list, since every property
// of a given function call shares the same program path and start time by
// construction) then, for every property, finalizes and transmits its
// verdict report.
func (c *Consumer) handleFunctionEnd(ev Event) {
	if len(ev.PropertyHashes) == 0 {
		return
	}
	primary, ok := c.Properties[ev.PropertyHashes[0]]
	if !ok {
		return
	}

	functionName := ev.FunctionName
	if c.MachineID != "" {
		functionName = c.MachineID + "-" + functionName
	}
	transactionTime := ev.Timestamp
	if c.TestMode {
		transactionTime = c.transactionID
	}

	record := sink.FunctionCallRecord{
		FunctionName:    functionName,
		TimeOfCall:      primary.LatestTimeOfCall,
		EndTimeOfCall:   ev.Timestamp,
		ProgramPath:     append([]int(nil), primary.ProgramPath...),
		TransactionTime: transactionTime,
	}

	ids, err := c.Sink.SubmitFunctionCall(record)
	if err != nil {
		c.logf("monitor: submitting function call record for %s: %v", ev.FunctionName, err)
		return
	}

	var reterr error
	for _, hash := range ev.PropertyHashes {
		pmg, ok := c.Properties[hash]
		if !ok {
			continue
		}
		report := pmg.FinalizeForFunctionEnd()
		entries := make([]sink.VerdictEntry, 0, len(report))
		for qdIndex, verdicts := range report {
			entries = append(entries, sink.VerdictEntry{StaticQDIndex: qdIndex, Verdicts: verdicts})
		}
		if err := c.Sink.SubmitVerdicts(entries, hash, ids); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "property %s", hash))
		}
	}
	if reterr != nil {
		c.logf("monitor: submitting verdicts for %s: %s (swallowed)", ev.FunctionName, errwrap.String(reterr))
	}
}

// handleTrigger advances the monitor population for one new quantifier
// binding. For bind_variable_index 0 it instantiates a fresh monitor. For
// bind_variable_index k>0 it either
// extends an in-progress monitor in place (instantiation time length
// exactly k) or clones one already bound at position k (instantiation time
// length k+1), keeping its first k timestamps, into a new monitor for the
// new value at position k.
func (c *Consumer) handleTrigger(ev Event) {
	pmg, ok := c.Properties[ev.PropertyHash]
	if !ok {
		return
	}

	if ev.BindVariableIndex == 0 {
		m := pmg.FormulaStructure.NewMonitor()
		// Stamp the position-0 binding time immediately, so this
		// monitor is eligible for the length-based extend/clone
		// bookkeeping below the first time a trigger for position 1
		// arrives.
		m.Extend(c.Now())
		pmg.StaticQDToMonitors[ev.StaticQDIndex] = append(pmg.StaticQDToMonitors[ev.StaticQDIndex], m)
		return
	}

	now := c.Now()
	bucket := pmg.StaticQDToMonitors[ev.StaticQDIndex]
	var cloned []formula.Monitor
	subsequencesProcessed := make(map[string]bool)

	for _, m := range bucket {
		switch len(m.InstantiationTime()) {
		case ev.BindVariableIndex + 1:
			// The same instantiation-time prefix may have already been
			// copied and extended by another monitor in this bucket; we
			// only want one clone per distinct prefix per trigger call.
			key := fmt.Sprint(m.InstantiationTime()[:ev.BindVariableIndex])
			if subsequencesProcessed[key] {
				continue
			}
			subsequencesProcessed[key] = true

			clone := m.Clone(ev.BindVariableIndex, now)
			c.copyPrefixIntoClone(pmg, m, clone, ev.BindVariableIndex)
			cloned = append(cloned, clone)
		case ev.BindVariableIndex:
			m.Extend(now)
		}
	}

	pmg.StaticQDToMonitors[ev.StaticQDIndex] = append(bucket, cloned...)
}

// copyPrefixIntoClone transfers into clone the slots and truth values that
// the shared instantiation-time prefix keeps alive: everything recorded
// against base variables whose binding position is below bindVariableIndex.
// For a mixed atom, each such base variable's own sub-index slot is copied
// and its recorded truth value re-read; for a single-variable atom, the
// whole slot is copied and the recorded truth value re-asserted through
// the clone's optimised update path (positive or negated), so the clone's
// verdict reflects what the source had already established.
func (c *Consumer) copyPrefixIntoClone(pmg *PropertyMapGroup, src, clone formula.Monitor, bindVariableIndex int) {
	bindVariables := pmg.FormulaStructure.BindVariables()

	for atomIndex, atom := range pmg.FormulaStructure.Atoms() {
		if formula.IsMixedAtom(atom) {
			baseVariables := atom.BaseVariables()
			for subIndex, baseVariable := range baseVariables {
				pos := bindPosition(bindVariables, baseVariable)
				if pos < 0 || pos >= bindVariableIndex {
					continue
				}
				clone.CopyAtomSlot(src, atomIndex, subIndex)
				// The sub-index enumeration here is derived from binding
				// order; logged once per process so operators are aware
				// of the derivation (see DESIGN.md).
				c.mixedAtomLogOnce.Do(func() {
					c.logf("trigger: mixed-atom sub-index replay enumerates binding positions below the trigger index; see DESIGN.md for the derivation")
				})
				if _, err := clone.CheckAtomTruthValue(atom, atomIndex, subIndex); err != nil {
					c.logf("monitor: replaying mixed-atom sub-index %d of atom %d: %v", subIndex, atomIndex, err)
				}
			}
			continue
		}

		pos := bindPosition(bindVariables, formula.GetBaseVariable(atom))
		if pos < 0 || pos >= bindVariableIndex {
			continue
		}
		truth, err := src.CheckAtomTruthValue(atom, atomIndex, 0)
		if err != nil {
			c.logf("monitor: reading recorded truth of atom %d: %v", atomIndex, err)
			continue
		}
		if truth == formula.StateUnknown {
			continue
		}
		clone.CopyAtomSlot(src, atomIndex, 0)
		replay := atom
		if truth == formula.StateFalse {
			replay = formula.LNot(atom)
		}
		if _, err := clone.CheckOptimised(replay); err != nil {
			c.logf("monitor: replaying truth of atom %d into clone: %v", atomIndex, err)
		}
	}
}

// bindPosition returns name's index in the property's quantifier binding
// order, or -1 when it isn't a bound variable.
func bindPosition(bindVariables []string, name string) int {
	for i, v := range bindVariables {
		if v == name {
			return i
		}
	}
	return -1
}

func (c *Consumer) handlePath(ev Event) {
	pmg, ok := c.Properties[ev.PropertyHash]
	if !ok {
		return
	}
	pmg.AppendBranchLabel(ev.BranchLabel)
}

func (c *Consumer) handleInstrument(ev Event) {
	pmg, ok := c.Properties[ev.PropertyHash]
	if !ok {
		return
	}
	atoms := pmg.FormulaStructure.Atoms()
	if ev.AtomIndex < 0 || ev.AtomIndex >= len(atoms) {
		return
	}
	atom := atoms[ev.AtomIndex]

	// StaticQDIndices and InstPointIDs are a zipped pair list, not a cross
	// product: each instrumentation point was recorded against exactly one
	// static qd index.
	pairs := len(ev.StaticQDIndices)
	if len(ev.InstPointIDs) < pairs {
		pairs = len(ev.InstPointIDs)
	}

	var reterr error
	for i := 0; i < pairs; i++ {
		qdIndex := ev.StaticQDIndices[i]
		instPointID := ev.InstPointIDs[i]
		for _, m := range pmg.StaticQDToMonitors[qdIndex] {
			if err := m.ProcessAtomAndValue(atom, ev.ObsStart, ev.ObsEnd, ev.ObservedValue, ev.AtomIndex, ev.AtomSubIndex, instPointID, pmg.ProgramPath, ev.StateDict); err != nil {
				reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "qd index %d, inst point %s", qdIndex, instPointID))
			}
		}
	}
	if reterr != nil {
		c.logf("monitor: processing observation for %s: %s", ev.FunctionName, errwrap.String(reterr))
	}
}

func (c *Consumer) handleTestStatus(ev Event) {
	reporter, ok := c.Sink.(sink.TestStatusReporter)
	if !ok {
		return
	}
	record := sink.TestStatusRecord{
		FunctionName: ev.FunctionName,
		TestName:     ev.TestName,
		Status:       ev.Status,
		Start:        ev.ObsStart,
		End:          ev.ObsEnd,
	}
	if err := reporter.SubmitTestStatus(record); err != nil {
		c.logf("monitor: submitting test status for %s: %v (swallowed)", ev.TestName, err)
	}
}
