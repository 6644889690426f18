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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdawes/vypr/formula"
	"github.com/joshdawes/vypr/formula/reftest"
	"github.com/joshdawes/vypr/sink"
)

func newTestConsumer() (*Consumer, *sink.Local) {
	local := sink.NewLocal()
	tick := int64(0)
	now := func() int64 {
		tick++
		return tick
	}
	c := NewConsumer(local, nil, now)
	return c, local
}

// TestFunctionLifecycleSubmitsOneCallAndOneVerdictReport: the sequence
// [function-start, trigger(0), instrument*, function-end] submits exactly
// one function-call record and one verdict report, in that order.
func TestFunctionLifecycleSubmitsOneCallAndOneVerdictReport(t *testing.T) {
	c, local := newTestConsumer()

	structure := &reftest.Structure{
		AtomList:   []reftest.Atom{{Name: "a0", Variables: []string{"x"}}},
		Collapsing: 0,
	}
	pmg := NewPropertyMapGroup(structure, nil)
	c.RegisterProperty("h1", pmg)

	go c.Run()

	c.Submit(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeStart, Timestamp: 100})
	c.Submit(Event{Kind: KindTrigger, PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	c.Submit(Event{Kind: KindPath, PropertyHash: "h1", BranchLabel: 1})
	c.Submit(Event{Kind: KindInstrument, PropertyHash: "h1", StaticQDIndices: []int{0}, AtomIndex: 0, AtomSubIndex: 0, InstPointIDs: []string{"p1"}, ObservedValue: true})
	c.Submit(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeEnd, Timestamp: 200})
	c.Submit(Event{Kind: KindEndMonitoring})

	c.Drain()

	require.Len(t, local.Calls, 1)
	assert.Equal(t, "m.f", local.Calls[0].FunctionName)
	assert.Equal(t, int64(100), local.Calls[0].TimeOfCall)
	assert.Equal(t, int64(200), local.Calls[0].EndTimeOfCall)
	assert.Equal(t, []int{1}, local.Calls[0].ProgramPath)

	require.Len(t, local.Verdicts, 1)
	assert.Equal(t, "h1", local.Verdicts[0].PropertyHash)
}

// TestTriggerClonePreservesObservationsBelowPrefix: cloning on trigger
// with bind_variable_index=k>0 preserves every recorded
// observation/state/path entry for base variables bound below k, and
// re-asserts their recorded truth values so the clone's verdict matches
// what the source had already established.
func TestTriggerClonePreservesObservationsBelowPrefix(t *testing.T) {
	c, _ := newTestConsumer()

	atom := reftest.Atom{Name: "a0", Variables: []string{"x"}}
	structure := &reftest.Structure{
		AtomList:   []reftest.Atom{atom},
		BindVars:   []string{"x", "y"},
		Collapsing: 0,
	}
	pmg := NewPropertyMapGroup(structure, nil)
	c.RegisterProperty("h1", pmg)

	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	source := pmg.StaticQDToMonitors[0][0]
	require.NoError(t, source.ProcessAtomAndValue(atom, 0, 1, true, 0, 0, "p1", nil, nil))

	// First trigger for position 1 is this monitor's first-ever binding
	// at that position, so it extends in place (no new monitor yet).
	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 1})
	require.Len(t, pmg.StaticQDToMonitors[0], 1)

	// A second value bound at position 1 forks a clone off the original's
	// prefix rather than mutating the first binding's monitor.
	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 1})

	require.Len(t, pmg.StaticQDToMonitors[0], 2)
	clone := pmg.StaticQDToMonitors[0][1]
	assert.Equal(t, source.AtomToObservation()[0][0], clone.AtomToObservation()[0][0])
	require.Len(t, clone.InstantiationTime(), 2)
	assert.Greater(t, clone.InstantiationTime()[1], clone.InstantiationTime()[0])

	// a0's base variable is bound at position 0 < 1, so its recorded true
	// value was replayed through the clone's optimised update and the
	// collapsing atom's verdict carried over.
	assert.Equal(t, formula.VerdictTrue, clone.Verdict())
	assert.Equal(t, formula.StateTrue, clone.State()[0])
}

// TestTriggerCloneSkipsAtomsBoundAtOrAfterTriggerIndex: an atom whose base
// variable is bound at the triggering position (or later) contributes
// nothing to the clone, which starts over for that binding.
func TestTriggerCloneSkipsAtomsBoundAtOrAfterTriggerIndex(t *testing.T) {
	c, _ := newTestConsumer()

	atom := reftest.Atom{Name: "a0", Variables: []string{"y"}}
	structure := &reftest.Structure{
		AtomList:   []reftest.Atom{atom},
		BindVars:   []string{"x", "y"},
		Collapsing: 0,
	}
	pmg := NewPropertyMapGroup(structure, nil)
	c.RegisterProperty("h1", pmg)

	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	source := pmg.StaticQDToMonitors[0][0]
	require.NoError(t, source.ProcessAtomAndValue(atom, 0, 1, true, 0, 0, "p1", nil, nil))

	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 1})
	c.handleTrigger(Event{PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 1})

	require.Len(t, pmg.StaticQDToMonitors[0], 2)
	clone := pmg.StaticQDToMonitors[0][1]
	assert.Empty(t, clone.AtomToObservation()[0])
	assert.Equal(t, formula.VerdictUnknown, clone.Verdict())
}

// TestMachineIDQualifiesSubmittedFunctionNames: the machine_id
// configuration key prefixes every function name the sink sees.
func TestMachineIDQualifiesSubmittedFunctionNames(t *testing.T) {
	c, local := newTestConsumer()
	c.MachineID = "web-3"

	structure := &reftest.Structure{AtomList: []reftest.Atom{{Name: "a0", Variables: []string{"x"}}}}
	c.RegisterProperty("h1", NewPropertyMapGroup(structure, nil))

	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeStart, Timestamp: 1})
	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeEnd, Timestamp: 2})

	require.Len(t, local.Calls, 1)
	assert.Equal(t, "web-3-m.f", local.Calls[0].FunctionName)
}

// TestTransactionTimeSourcing: in test mode the function-call record is
// stamped with the announced test transaction; outside test mode it's
// stamped with the call's own end timestamp.
func TestTransactionTimeSourcing(t *testing.T) {
	c, local := newTestConsumer()
	c.TestMode = true

	structure := &reftest.Structure{AtomList: []reftest.Atom{{Name: "a0", Variables: []string{"x"}}}}
	c.RegisterProperty("h1", NewPropertyMapGroup(structure, nil))

	c.handle(Event{Kind: KindTestTransaction, TransactionID: 42})
	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeStart, Timestamp: 100})
	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeEnd, Timestamp: 200})

	require.Len(t, local.Calls, 1)
	assert.Equal(t, int64(42), local.Calls[0].TransactionTime)

	c.TestMode = false
	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeStart, Timestamp: 300})
	c.handle(Event{Kind: KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: ScopeEnd, Timestamp: 400})

	require.Len(t, local.Calls, 2)
	assert.Equal(t, int64(400), local.Calls[1].TransactionTime)
}

// TestPausedConsumerDiscardsEventsExceptStop: while paused, any
// non-inactive-monitoring-stop event is a no-op.
func TestPausedConsumerDiscardsEventsExceptStop(t *testing.T) {
	c, _ := newTestConsumer()

	structure := &reftest.Structure{AtomList: []reftest.Atom{{Name: "a0", Variables: []string{"x"}}}}
	pmg := NewPropertyMapGroup(structure, nil)
	c.RegisterProperty("h1", pmg)

	c.handle(Event{Kind: KindInactiveMonitoringStart})
	c.handle(Event{Kind: KindTrigger, PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	assert.Empty(t, pmg.StaticQDToMonitors[0], "trigger must be a no-op while paused")

	c.handle(Event{Kind: KindInactiveMonitoringStop})
	c.handle(Event{Kind: KindTrigger, PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	assert.Len(t, pmg.StaticQDToMonitors[0], 1, "trigger must resume working once unpaused")
}

func TestEndMonitoringStopsRun(t *testing.T) {
	c, _ := newTestConsumer()

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	c.Submit(Event{Kind: KindEndMonitoring})
	<-done
}
