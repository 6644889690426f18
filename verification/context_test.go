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

package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdawes/vypr/bindingspace"
	"github.com/joshdawes/vypr/config"
	"github.com/joshdawes/vypr/formula/reftest"
	"github.com/joshdawes/vypr/monitor"
	"github.com/joshdawes/vypr/sink"
)

func TestLoadPropertyAndFunctionLifecycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, bindingspace.Save(dir, "m", "f", "h1", []bindingspace.Binding{{Values: []interface{}{"x"}}}))

	local := sink.NewLocal()
	ctx := New(config.Default(), local, nil)

	structure := &reftest.Structure{AtomList: []reftest.Atom{{Name: "a0", Variables: []string{"x"}}}}
	require.NoError(t, ctx.LoadProperty(dir, "m", "f", "h1", structure))

	ctx.Start()

	ctx.SendEvent(monitor.Event{Kind: monitor.KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: monitor.ScopeStart, Timestamp: 1})
	ctx.SendEvent(monitor.Event{Kind: monitor.KindTrigger, PropertyHash: "h1", StaticQDIndex: 0, BindVariableIndex: 0})
	ctx.SendEvent(monitor.Event{Kind: monitor.KindFunction, PropertyHashes: []string{"h1"}, FunctionName: "m.f", Scope: monitor.ScopeEnd, Timestamp: 2})

	ctx.EndMonitoring()

	require.Len(t, local.Calls, 1)
	assert.Equal(t, "m.f", local.Calls[0].FunctionName)
}

func TestLoadPropertyMissingDumpFails(t *testing.T) {
	ctx := New(config.Default(), sink.NewLocal(), nil)
	err := ctx.LoadProperty(t.TempDir(), "m", "f", "missing", &reftest.Structure{})
	assert.ErrorIs(t, err, bindingspace.ErrMissingBindingSpace)
}

func TestFailedInitialisationMakesEventsNoOps(t *testing.T) {
	local := sink.NewLocal()
	ctx := New(config.Default(), local, nil)
	ctx.MarkInitialisationFailed()

	ctx.Start()
	ctx.SendEvent(monitor.Event{Kind: monitor.KindFunction, PropertyHashes: []string{"h1"}, Scope: monitor.ScopeStart})
	ctx.EndMonitoring()

	assert.Empty(t, local.Calls)
}
