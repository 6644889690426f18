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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vypr.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "project_root: /srv/app\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9001/", cfg.VerdictServerURL)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/srv/app", cfg.ProjectRoot)
}

func TestLoadTestModeWithoutTestModuleFails(t *testing.T) {
	path := writeConfig(t, "test: \"yes\"\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadTestModeWithTestModuleSucceeds(t *testing.T) {
	path := writeConfig(t, "test: \"yes\"\ntest_module: /srv/tests\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsTestMode())
	assert.Equal(t, "/srv/tests", cfg.TestModule)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
