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

// Kind tags which handler an Event is dispatched to.
type Kind string

const (
	KindEndMonitoring           Kind = "end-monitoring"
	KindInactiveMonitoringStart Kind = "inactive-monitoring-start"
	KindInactiveMonitoringStop  Kind = "inactive-monitoring-stop"
	KindTestTransaction         Kind = "test_transaction"
	KindFunction                Kind = "function"
	KindTrigger                 Kind = "trigger"
	KindPath                    Kind = "path"
	KindInstrument              Kind = "instrument"
	KindTestStatus              Kind = "test_status"
)

// FunctionScope distinguishes the two phases of a "function" event.
type FunctionScope string

const (
	ScopeStart FunctionScope = "start"
	ScopeEnd   FunctionScope = "end"
)

// Event is the single heterogeneous message type the consumer's queue
// carries. Only the fields relevant to Kind are populated; the rest are
// left zero-valued.
type Event struct {
	Kind Kind

	// test_transaction
	TransactionID int64

	// function
	PropertyHashes []string
	FunctionName   string
	Scope          FunctionScope
	Timestamp      int64

	// trigger
	PropertyHash      string
	StaticQDIndex     int
	BindVariableIndex int

	// path
	BranchLabel int

	// instrument
	StaticQDIndices []int
	AtomIndex       int
	AtomSubIndex    int
	InstPointIDs    []string
	ObsStart        int64
	ObsEnd          int64
	ObservedValue   interface{}
	ThreadID        string
	StateDict       map[string]interface{}

	// test_status (reuses ObsStart/ObsEnd above as the test's start/end
	// timestamps)
	Status   string
	TestName string
}
