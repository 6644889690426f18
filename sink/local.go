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

package sink

import (
	"sync"

	"github.com/google/uuid"
)

// SubmittedVerdicts records one SubmitVerdicts call against Local, for test
// assertions.
type SubmittedVerdicts struct {
	Entries      []VerdictEntry
	PropertyHash string
	IDs          FunctionCallIDs
}

// Local is an in-memory, non-networked Client: no HTTP round-trip, so it's
// usable both in unit tests and as the backing sink for test_module
// integration runs that shouldn't depend on a live verdict server.
type Local struct {
	mu sync.Mutex

	Calls      []FunctionCallRecord
	Verdicts   []SubmittedVerdicts
	TestStatus []TestStatusRecord

	// Fail, when set, makes SubmitFunctionCall return ErrSinkUnavailable
	// without recording anything -- used to exercise a failed
	// function-call submission in tests.
	Fail bool
}

// NewLocal returns an empty Local sink.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) SubmitFunctionCall(record FunctionCallRecord) (FunctionCallIDs, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Fail {
		return FunctionCallIDs{}, ErrSinkUnavailable
	}

	l.Calls = append(l.Calls, record)
	return FunctionCallIDs{
		FunctionID:     uuid.NewString(),
		FunctionCallID: uuid.NewString(),
	}, nil
}

func (l *Local) SubmitVerdicts(entries []VerdictEntry, propertyHash string, ids FunctionCallIDs) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Verdicts = append(l.Verdicts, SubmittedVerdicts{
		Entries:      append([]VerdictEntry(nil), entries...),
		PropertyHash: propertyHash,
		IDs:          ids,
	})
	return nil
}

func (l *Local) SubmitTestStatus(record TestStatusRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.TestStatus = append(l.TestStatus, record)
	return nil
}
