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

package bindingspace

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	want := []Binding{
		{Values: []interface{}{"a", 1}},
		{Values: []interface{}{"b", 2}},
	}

	require.NoError(t, Save(dir, "m", "f", "h1", want))

	got, err := Load(dir, "m", "f", "h1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFileIsErrMissingBindingSpace(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, "m", "f", "missing")
	assert.ErrorIs(t, err, ErrMissingBindingSpace)
}

func TestFileNameFormat(t *testing.T) {
	assert.Equal(t, "module-m-function-f-property-h1.dump", FileName("m", "f", "h1"))
}

// TestRoundTripOnMemoryFilesystem: Fs is swappable, so artifacts can live
// entirely in memory (no disk) without changing any call site.
func TestRoundTripOnMemoryFilesystem(t *testing.T) {
	orig := Fs
	Fs = afero.Afero{Fs: afero.NewMemMapFs()}
	defer func() { Fs = orig }()

	want := []Binding{{Values: []interface{}{"a", 1}}}
	require.NoError(t, Save("/spaces", "m", "f", "h1", want))

	got, err := Load("/spaces", "m", "f", "h1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Load("/spaces", "m", "f", "other")
	assert.ErrorIs(t, err, ErrMissingBindingSpace)
}
