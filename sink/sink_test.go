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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdawes/vypr/formula"
)

func TestLocalSubmitFunctionCallRecordsAndReturnsIDs(t *testing.T) {
	local := NewLocal()
	ids, err := local.SubmitFunctionCall(FunctionCallRecord{FunctionName: "m.f", ProgramPath: []int{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, ids.FunctionID)
	assert.NotEmpty(t, ids.FunctionCallID)
	require.Len(t, local.Calls, 1)
	assert.Equal(t, "m.f", local.Calls[0].FunctionName)
}

func TestLocalSubmitFunctionCallFailsWhenFlagged(t *testing.T) {
	local := NewLocal()
	local.Fail = true
	_, err := local.SubmitFunctionCall(FunctionCallRecord{FunctionName: "m.f"})
	assert.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Empty(t, local.Calls)
}

func TestLocalSubmitVerdictsRecordsEntries(t *testing.T) {
	local := NewLocal()
	ids := FunctionCallIDs{FunctionID: "fid", FunctionCallID: "fcid"}
	err := local.SubmitVerdicts([]VerdictEntry{{StaticQDIndex: 0, Verdicts: []formula.Verdict{formula.VerdictTrue}}}, "h1", ids)
	require.NoError(t, err)
	require.Len(t, local.Verdicts, 1)
	assert.Equal(t, "h1", local.Verdicts[0].PropertyHash)
	assert.Equal(t, ids, local.Verdicts[0].IDs)
}
