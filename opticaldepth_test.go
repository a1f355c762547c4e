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
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestPathAltitudes(t *testing.T) {
	alts, dz := pathAltitudes(0, 100, 1)
	if !reflect.DeepEqual(alts, []float64{0}) || dz != 100 {
		t.Errorf("1 step: %v, %g", alts, dz)
	}
	alts, dz = pathAltitudes(100, 200, 3)
	if !reflect.DeepEqual(alts, []float64{100, 150, 200}) || dz != 50 {
		t.Errorf("3 steps: %v, %g", alts, dz)
	}
}

func TestTauSingleStep(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	tau, err := m.Tau(g, 0, 1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	broadened, _ := m.Broaden(g, 0, 0)
	// 1.2 kg/m³ = 1.2e-3 g/cm³ over a 1000 m = 1e5 cm layer.
	column := 1.2e-3 * 400e-6 / 44.01 * avogadro * 1e5
	for i := range tau {
		if different(tau[i], broadened[i]*column, 1e-12) {
			t.Errorf("line %d: have %g, want %g", i, tau[i], broadened[i]*column)
		}
	}
}

func TestTauMixingRatio(t *testing.T) {
	// With equal air and self broadening, the half width does not depend
	// on the mixing ratio, so the optical depth is proportional to it.
	m := isaModel()
	tau1, err := m.Tau(testGas(t, "CO2", 200), 0, 5000, 5)
	if err != nil {
		t.Fatal(err)
	}
	tau2, err := m.Tau(testGas(t, "CO2", 400), 0, 5000, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := range tau1 {
		if tau1[i] < 0 {
			t.Errorf("negative optical depth %g", tau1[i])
		}
		if different(2*tau1[i], tau2[i], 1e-10) {
			t.Errorf("line %d: %g should be twice %g", i, tau2[i], tau1[i])
		}
	}
}

func TestTauConvergence(t *testing.T) {
	m := isaModel()
	g := testGas(t, "CO2", 400)
	sum := func(steps int) float64 {
		tau, err := m.Tau(g, 0, 10000, steps)
		if err != nil {
			t.Fatal(err)
		}
		return floats.Sum(tau)
	}
	coarse := math.Abs(sum(10) - sum(20))
	fine := math.Abs(sum(40) - sum(80))
	if !(fine < coarse) {
		t.Errorf("optical depth should converge as the number of steps increases: %g >= %g", fine, coarse)
	}
}

func TestTauConcurrency(t *testing.T) {
	m := isaModel()
	g := testGas(t, "CO2", 400)
	m.NumProcessors = 1
	serial, err := m.Tau(g, 0, 8000, 9)
	if err != nil {
		t.Fatal(err)
	}
	m.NumProcessors = 4
	parallel, err := m.Tau(g, 0, 8000, 9)
	if err != nil {
		t.Fatal(err)
	}
	for i := range serial {
		if different(serial[i], parallel[i], 1e-12) {
			t.Errorf("line %d: serial %g, parallel %g", i, serial[i], parallel[i])
		}
	}
}

func TestTauErrors(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	for _, test := range []struct {
		low, high float64
		steps     int
	}{
		{low: -1, high: 100, steps: 2},
		{low: 100, high: 100, steps: 2},
		{low: 200, high: 100, steps: 2},
		{low: 0, high: 100, steps: 0},
		{low: math.NaN(), high: 100, steps: 2},
	} {
		if _, err := m.Tau(g, test.low, test.high, test.steps); err == nil {
			t.Errorf("%+v: expected an error", test)
		} else if _, ok := err.(RangeError); !ok {
			t.Errorf("%+v: expected a RangeError, got %T", test, err)
		}
	}
	m.Quantile = 2
	if _, err := m.Tau(g, 0, 100, 2); err == nil {
		t.Error("expected an error for an invalid quantile")
	}
}

func TestFluxDelta(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	incident := []float64{1, 1, 1, 1, 1}
	tau, err := m.Tau(g, 100, 1000, 3)
	if err != nil {
		t.Fatal(err)
	}
	out, err := m.FluxDelta(g, incident, 100, 1000, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if different(out[i], math.Exp(-tau[i]), 1e-12) {
			t.Errorf("line %d: have %g, want %g", i, out[i], math.Exp(-tau[i]))
		}
	}

	// From the surface, emission at the temperature of the top is added.
	out0, err := m.FluxDelta(g, incident, 0, 1000, 3)
	if err != nil {
		t.Fatal(err)
	}
	tau0, _ := m.Tau(g, 0, 1000, 3)
	bb := m.Blackbody(TRef, g.Nu, true)
	for i := range out0 {
		if want := math.Exp(-tau0[i]) + bb[i]; different(out0[i], want, 1e-12) {
			t.Errorf("line %d: have %g, want %g", i, out0[i], want)
		}
	}

	if _, err := m.FluxDelta(g, incident[:2], 0, 1000, 3); err == nil {
		t.Error("expected an error for a mismatched incident flux")
	}
}

func TestCacheMatches(t *testing.T) {
	m := isaModel()
	g := testGas(t, "CO2", 400)
	want, err := m.Tau(g, 0, 3000, 4)
	if err != nil {
		t.Fatal(err)
	}
	m.EnableCache(10)
	for i := 0; i < 2; i++ {
		have, err := m.Tau(g, 0, 3000, 4)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, want) {
			t.Errorf("run %d: cached %v, uncached %v", i, have, want)
		}
	}

	// Gases with the same name but different contents are cached separately.
	double, err := m.Tau(testGas(t, "CO2", 800), 0, 3000, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range double {
		if different(double[i], 2*want[i], 1e-10) {
			t.Errorf("line %d: have %g, want %g", i, double[i], 2*want[i])
		}
	}
}

func TestTauSingleLine(t *testing.T) {
	m := isaModel()
	nu := floats.Span(make([]float64, 21), 990, 1010)
	strength := make([]float64, len(nu))
	strength[10] = 1
	fill := func(v float64) []float64 {
		o := make([]float64, len(nu))
		for i := range o {
			o[i] = v
		}
		return o
	}
	g, err := NewGasSpectrum("CO2", nu, strength, fill(0.05), fill(0.05), fill(0.5), 44, 400)
	if err != nil {
		t.Fatal(err)
	}
	tau, err := m.Tau(g, 0, 10000, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tau) != len(g.Nu) {
		t.Fatalf("have %d values for %d wavenumbers", len(tau), len(g.Nu))
	}
	for i, v := range tau {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%g cm⁻¹: %g", nu[i], v)
		}
	}
	if i := floats.MaxIdx(tau); i < 9 || i > 11 {
		t.Errorf("maximum at %g cm⁻¹, want 1000 cm⁻¹", nu[i])
	}
	if !(tau[9] > 0 && tau[11] > 0) {
		t.Errorf("the line wings should absorb: %v", tau[9:12])
	}
}
