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

// Package config loads and validates the YAML configuration file recognized
// by this system.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Fs is the filesystem configuration is read from. It defaults to the host
// OS filesystem; tests swap in an in-memory one.
var Fs = afero.Afero{Fs: afero.NewOsFs()}

// ErrConfiguration is returned when the loaded configuration is internally
// inconsistent (currently: test mode enabled without a test module path).
// Fatal at startup.
var ErrConfiguration = errors.New("config: invalid configuration")

// Config holds every recognized configuration key.
type Config struct {
	VerdictServerURL string `yaml:"verdict_server_url"`
	Verbose          bool   `yaml:"verbose"`
	ProjectRoot      string `yaml:"project_root"`
	VyprModule       string `yaml:"vypr_module"`
	Test             string `yaml:"test"`
	TestModule       string `yaml:"test_module"`
	MachineID        string `yaml:"machine_id"`
	NTPServer        string `yaml:"ntp_server"`
}

// Default returns a Config with every documented default value filled in.
func Default() Config {
	return Config{
		VerdictServerURL: "http://localhost:9001/",
		Verbose:          true,
	}
}

// IsTestMode reports whether the "test" key is set to the enabling value
// "yes".
func (c Config) IsTestMode() bool {
	return c.Test == "yes"
}

// Validate checks the internal consistency rule that test mode requires a
// test module path.
func (c Config) Validate() error {
	if c.IsTestMode() && c.TestModule == "" {
		return errors.Wrap(ErrConfiguration, "test: \"yes\" requires test_module to be set")
	}
	return nil
}

// Load reads and parses the YAML configuration file at path, filling in
// defaults for anything the file doesn't set, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := Fs.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
