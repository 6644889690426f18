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

// Package bindingspace loads the persisted binding-space artifacts that
// pair each instrumented function×property with the quantifier bindings it
// was compiled against. These are produced by the external
// AST-instrumentation tool and consumed here as opaque blobs; gob fits an
// artifact that's only ever written and read by this system itself.
package bindingspace

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Fs is the filesystem artifacts are read from and written to. It defaults
// to the host OS filesystem; tests swap in an in-memory one.
var Fs = afero.Afero{Fs: afero.NewOsFs()}

// ErrMissingBindingSpace is returned when the expected .dump file for a
// (module, function, property) triple doesn't exist. Fatal at startup, with
// an operator-facing message identifying exactly which artifact is missing.
var ErrMissingBindingSpace = errors.New("bindingspace: missing binding space artifact")

func init() {
	// Binding.Values is []interface{}; gob requires every concrete type
	// that will travel inside an interface value to be registered up
	// front. These cover the primitive binding values instrumentation
	// artifacts are expected to carry.
	gob.Register("")
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(0.0)
	gob.Register(false)
}

// Binding is one opaque quantifier binding recorded at instrumentation
// time. Its shape is produced entirely externally; this system never
// inspects its fields, only counts and replays them.
type Binding struct {
	Values []interface{}
}

// FileName returns the conventional binding-space artifact filename for the
// given module, function, and property hash.
func FileName(module, function, propertyHash string) string {
	return fmt.Sprintf("module-%s-function-%s-property-%s.dump", module, function, propertyHash)
}

// Load gob-decodes the binding-space dump for (module, function,
// propertyHash) out of dir.
func Load(dir, module, function, propertyHash string) ([]Binding, error) {
	path := filepath.Join(dir, FileName(module, function, propertyHash))

	f, err := Fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMissingBindingSpace, path)
		}
		return nil, errors.Wrapf(err, "bindingspace: opening %s", path)
	}
	defer f.Close()

	var bindings []Binding
	if err := gob.NewDecoder(f).Decode(&bindings); err != nil {
		return nil, errors.Wrapf(err, "bindingspace: decoding %s", path)
	}
	return bindings, nil
}

// Save gob-encodes bindings to the conventional path under dir. This isn't
// part of the documented external contract (the artifact is produced by the
// instrumentation tool in production) but is used by this repository's own
// tests to round-trip fixtures without needing a real instrumentation run.
func Save(dir, module, function, propertyHash string, bindings []Binding) error {
	path := filepath.Join(dir, FileName(module, function, propertyHash))

	f, err := Fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "bindingspace: creating %s", path)
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(bindings)
}
