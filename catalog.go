/*
Copyright © 2023 the radtran authors.
This file is part of radtran.

radtran is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

radtran is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with radtran.  If not, see <http://www.gnu.org/licenses/>.
*/

package radtran

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CatalogEntry describes one gas in a Catalog.
type CatalogEntry struct {
	// Name identifies the gas, e.g. "CO2".
	Name string

	// LineFile is the path to the gas's line database (see LoadGas).
	// It can include environment variables. Relative paths are
	// relative to the catalog file.
	LineFile string

	// RelativeAtomicMass is the molar mass of the gas [g/mol].
	RelativeAtomicMass float64

	// PPM is the volumetric mixing ratio of the gas [ppm].
	// If it is zero, DefaultPPM is used.
	PPM float64
}

// Catalog is a list of gases and their line databases, typically read
// from a TOML file of the form:
//
//	[[Gas]]
//	Name = "CO2"
//	LineFile = "hitran/CO2.csv"
//	RelativeAtomicMass = 44.01
//	PPM = 415.1
type Catalog struct {
	Gas []CatalogEntry

	dir string
}

// ReadCatalog reads a TOML gas catalog from r.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	c := new(Catalog)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, FormatError{Source: "gas catalog", Reason: err.Error()}
	}
	seen := make(map[string]bool)
	for i, g := range c.Gas {
		if g.Name == "" {
			return nil, FormatError{Source: "gas catalog", Reason: fmt.Sprintf("gas %d has no name", i)}
		}
		if seen[g.Name] {
			return nil, FormatError{Source: "gas catalog", Reason: fmt.Sprintf("gas %s is listed more than once", g.Name)}
		}
		seen[g.Name] = true
		if g.PPM == 0 {
			c.Gas[i].PPM = DefaultPPM
		}
	}
	return c, nil
}

// ReadCatalogFile reads a TOML gas catalog from the file at path.
func ReadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("radtran: opening gas catalog: %w", err)
	}
	defer f.Close()
	c, err := ReadCatalog(f)
	if err != nil {
		return nil, err
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// Entry returns the catalog entry for the named gas.
func (c *Catalog) Entry(name string) (CatalogEntry, error) {
	for _, g := range c.Gas {
		if g.Name == name {
			return g, nil
		}
	}
	return CatalogEntry{}, NotFoundError{Kind: "gas", Name: name}
}

// Load reads the line databases of the named gases, or of all gases in
// the catalog if no names are given. If resolve is not nil, it is
// called with each line database path, after environment variables are
// expanded and relative paths are joined to the catalog's directory,
// and returns the local path to read from.
// Gases that could not be loaded are reported in a BatchError, keyed by
// position and name; the other gases are still returned, in order.
func (c *Catalog) Load(resolve func(path string) (string, error), names ...string) ([]*GasSpectrum, error) {
	entries := c.Gas
	if len(names) > 0 {
		entries = make([]CatalogEntry, 0, len(names))
		for _, n := range names {
			e, err := c.Entry(n)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
	errs := make(BatchError)
	var o []*GasSpectrum
	for i, e := range entries {
		path := os.ExpandEnv(e.LineFile)
		if !filepath.IsAbs(path) && c.dir != "" && !isURL(path) {
			path = filepath.Join(c.dir, path)
		}
		if resolve != nil {
			var err error
			if path, err = resolve(path); err != nil {
				errs[batchKey(e.Name, i)] = err
				continue
			}
		}
		g, err := LoadGasFile(path, e.Name, e.RelativeAtomicMass, e.PPM)
		if err != nil {
			errs[batchKey(e.Name, i)] = err
			continue
		}
		o = append(o, g)
	}
	return o, errs.errOrNil()
}

// isURL reports whether path has a URL scheme such as "gs://".
func isURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && len(u.Scheme) > 1
}
