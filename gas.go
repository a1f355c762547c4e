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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names required in a line database table. These are the
// HITRAN parameter names.
const (
	ColNu        = "nu"         // line center [cm⁻¹]
	ColStrength  = "sw"         // line intensity [cm⁻¹/(molecule cm⁻²)]
	ColGammaAir  = "gamma_air"  // air-broadened half width [cm⁻¹/atm]
	ColGammaSelf = "gamma_self" // self-broadened half width [cm⁻¹/atm]
	ColNAir      = "n_air"      // temperature-dependence exponent [-]
)

var lineColumns = []string{ColNu, ColStrength, ColGammaAir, ColGammaSelf, ColNAir}

// GasSpectrum holds the spectral line parameters of one gas.
// All of the per-line slices have the same length and are aligned by
// index. A GasSpectrum is read-only after it has been created; the
// calculations in this package never modify it.
type GasSpectrum struct {
	Name string

	Nu        []float64 // Line center wavenumbers [cm⁻¹]
	Strength  []float64 // Line intensities [cm⁻¹/(molecule cm⁻²)]
	GammaAir  []float64 // Air-broadened half widths [cm⁻¹/atm]
	GammaSelf []float64 // Self-broadened half widths [cm⁻¹/atm]
	NAir      []float64 // Temperature-dependence exponents [-]

	RelativeAtomicMass float64 // [g/mol]
	PPM                float64 // Volumetric mixing ratio [parts per million]
}

// NewGasSpectrum creates a GasSpectrum from the given line parameters
// and checks that it is valid. The slices are used directly, not copied.
func NewGasSpectrum(name string, nu, strength, gammaAir, gammaSelf, nAir []float64,
	relativeAtomicMass, ppm float64) (*GasSpectrum, error) {
	g := &GasSpectrum{
		Name:               name,
		Nu:                 nu,
		Strength:           strength,
		GammaAir:           gammaAir,
		GammaSelf:          gammaSelf,
		NAir:               nAir,
		RelativeAtomicMass: relativeAtomicMass,
		PPM:                ppm,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Len returns the number of spectral lines.
func (g *GasSpectrum) Len() int { return len(g.Nu) }

// MixingRatio returns the volumetric mixing ratio as a fraction.
func (g *GasSpectrum) MixingRatio() float64 { return g.PPM / 1.e6 }

// Validate checks that the per-line arrays are aligned and that
// the mixing ratio and relative atomic mass are positive.
func (g *GasSpectrum) Validate() error {
	n := len(g.Nu)
	for name, v := range map[string][]float64{
		ColStrength:  g.Strength,
		ColGammaAir:  g.GammaAir,
		ColGammaSelf: g.GammaSelf,
		ColNAir:      g.NAir,
	} {
		if len(v) != n {
			return FormatError{Source: g.Name,
				Reason: fmt.Sprintf("column %s has %d values but %s has %d", name, len(v), ColNu, n)}
		}
	}
	if !(g.PPM > 0) || math.IsInf(g.PPM, 0) {
		return FormatError{Source: g.Name, Reason: fmt.Sprintf("mixing ratio must be > 0 ppm, got %g", g.PPM)}
	}
	if !(g.RelativeAtomicMass > 0) || math.IsInf(g.RelativeAtomicMass, 0) {
		return FormatError{Source: g.Name,
			Reason: fmt.Sprintf("relative atomic mass must be > 0 g/mol, got %g", g.RelativeAtomicMass)}
	}
	for i := 0; i < n; i++ {
		if g.Strength[i] < 0 || g.GammaAir[i] < 0 || g.GammaSelf[i] < 0 {
			return FormatError{Source: g.Name,
				Reason: fmt.Sprintf("line %d at %g cm⁻¹ has a negative intensity or half width", i, g.Nu[i])}
		}
	}
	return nil
}

// LoadGas reads a comma-separated line database with a header row
// containing at least the columns nu, sw, gamma_air, gamma_self, and n_air.
// Other columns are ignored. name is used to identify the gas in
// errors and caches.
func LoadGas(r io.Reader, name string, relativeAtomicMass, ppm float64) (*GasSpectrum, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	header, err := reader.Read()
	if err == io.EOF {
		return nil, FormatError{Source: name, Reason: "empty line database"}
	} else if err != nil {
		return nil, FormatError{Source: name, Reason: err.Error()}
	}
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	cols := make([]int, len(lineColumns))
	var missing []string
	for i, c := range lineColumns {
		j, ok := idx[c]
		if !ok {
			missing = append(missing, c)
		}
		cols[i] = j
	}
	if len(missing) > 0 {
		return nil, FormatError{Source: name,
			Reason: fmt.Sprintf("missing required column(s) %s", strings.Join(missing, ", "))}
	}

	data := make([][]float64, len(lineColumns))
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, FormatError{Source: name, Reason: err.Error()}
		}
		for i, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, FormatError{Source: name,
					Reason: fmt.Sprintf("line %d, column %s: %v", line, lineColumns[i], err)}
			}
			data[i] = append(data[i], v)
		}
	}
	return NewGasSpectrum(name, data[0], data[1], data[2], data[3], data[4],
		relativeAtomicMass, ppm)
}

// LoadGasFile reads a line database from the file at path.
// See LoadGas for the required format.
func LoadGasFile(path, name string, relativeAtomicMass, ppm float64) (*GasSpectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("radtran: opening line database: %w", err)
	}
	defer f.Close()
	return LoadGas(f, name, relativeAtomicMass, ppm)
}
