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
	"math"
	"testing"

	"github.com/seancraven/radtran/science/atmosphere/isa"
)

// constAtmosphere has the same state at every altitude.
type constAtmosphere struct {
	p, t, rho float64
}

func (a constAtmosphere) Pressure(float64) float64    { return a.p }
func (a constAtmosphere) Temperature(float64) float64 { return a.t }
func (a constAtmosphere) Density(float64) float64     { return a.rho }

// testGas returns a gas with five lines around 667 cm⁻¹, the middle one
// much stronger than the rest.
func testGas(t *testing.T, name string, ppm float64) *GasSpectrum {
	t.Helper()
	g, err := NewGasSpectrum(name,
		[]float64{660, 663, 667, 670, 673},
		[]float64{1e-21, 2e-21, 3e-19, 2e-21, 1e-21},
		[]float64{0.07, 0.07, 0.07, 0.07, 0.07},
		[]float64{0.07, 0.07, 0.07, 0.07, 0.07},
		[]float64{0.75, 0.75, 0.75, 0.75, 0.75},
		44.01, ppm)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func testModel() *Model {
	m := NewModel(constAtmosphere{p: 1, t: TRef, rho: 1.2})
	m.Quantile = 0
	return m
}

func isaModel() *Model {
	m := NewModel(isa.Model{})
	m.Quantile = 0
	return m
}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance {
		return true
	}
	return false
}

func TestNewModel(t *testing.T) {
	m := NewModel(isa.Model{})
	if m.Quantile != DefaultQuantile {
		t.Errorf("quantile %g", m.Quantile)
	}
	if m.Log == nil {
		t.Error("the model should have a logger")
	}
	bb := m.Blackbody(288, []float64{667}, false)
	if different(bb[0], 0.1309, 0.005) {
		t.Errorf("blackbody radiance %g", bb[0])
	}
	m.NumProcessors = 3
	if m.nprocs() != 3 {
		t.Errorf("nprocs %d", m.nprocs())
	}
	m.NumProcessors = 0
	if m.nprocs() < 1 {
		t.Errorf("nprocs %d", m.nprocs())
	}
}

func TestBatchError(t *testing.T) {
	e := BatchError{
		"1:CH4": RangeError{Param: "steps", Reason: "must be >= 1, got 0"},
		"0:CO2": NotFoundError{Kind: "gas", Name: "CO2"},
	}
	want := `radtran: 2 item(s) failed: 0:CO2: radtran: gas "CO2" not found; ` +
		`1:CH4: radtran: invalid steps: must be >= 1, got 0`
	if e.Error() != want {
		t.Errorf("have %q\nwant %q", e.Error(), want)
	}
	if err := make(BatchError).errOrNil(); err != nil {
		t.Errorf("empty batch error should be nil, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	for _, test := range []struct {
		err  error
		want string
	}{
		{FormatError{Reason: "x"}, "radtran: format error: x"},
		{FormatError{Source: "a.csv", Reason: "x"}, "radtran: format error in a.csv: x"},
		{EmptyResultError{Gas: "CO2", AltRange: [2]float64{0, 1}, WaveRange: [2]float64{2, 3}},
			"radtran: no optical depths for CO2 in altitude range [0 1] and wavenumber range [2 3]"},
	} {
		if test.err.Error() != test.want {
			t.Errorf("have %q, want %q", test.err.Error(), test.want)
		}
	}
}
