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

func TestHalfWidth(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	hw := m.HalfWidth(g, 0)
	if len(hw) != g.Len() {
		t.Fatalf("have %d half widths for %d lines", len(hw), g.Len())
	}
	for i, v := range hw {
		if absDifferent(v, 0.07, 1e-15) {
			t.Errorf("line %d: half width %g", i, v)
		}
	}

	// Self broadening is weighted by the partial pressure.
	g.GammaSelf = []float64{1, 1, 1, 1, 1}
	g.GammaAir = []float64{0, 0, 0, 0, 0}
	if v := m.HalfWidth(g, 0)[0]; absDifferent(v, 400e-6, 1e-15) {
		t.Errorf("self-broadened half width %g", v)
	}

	// Lines are narrower higher up where the pressure is lower.
	im := isaModel()
	g = testGas(t, "CO2", 400)
	if low, high := im.HalfWidth(g, 0)[0], im.HalfWidth(g, 10000)[0]; !(high < low) {
		t.Errorf("half width at 10 km (%g) should be less than at the surface (%g)", high, low)
	}
}

func TestBroadenSinglePeak(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	orig := append([]float64(nil), g.Strength...)
	spectrum, err := m.Broaden(g, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.Strength, orig) {
		t.Error("broadening modified the gas")
	}
	if floats.MaxIdx(spectrum) != 2 {
		t.Errorf("broadened spectrum should peak at the line center: %v", spectrum)
	}
	if want := 3e-19 / (math.Pi * 0.07); different(spectrum[2], want, 1e-12) {
		t.Errorf("peak: have %g, want %g", spectrum[2], want)
	}
	wing := 1e-21 + 3e-19*0.07/(math.Pi*(49+0.07*0.07))
	if different(spectrum[0], wing, 1e-12) {
		t.Errorf("wing: have %g, want %g", spectrum[0], wing)
	}
}

func TestBroadenQuantileOne(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	spectrum, err := m.Broaden(g, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(spectrum, g.Strength) {
		t.Errorf("no peak is above the maximum, so the spectrum should be unchanged: %v", spectrum)
	}
}

func TestBroadenWindow(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	spectrum, err := m.BroadenWindow(g, 0, 0, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(spectrum) != 3 {
		t.Fatalf("window has %d values", len(spectrum))
	}
	full, _ := m.Broaden(g, 0, 0)
	if different(spectrum[1], full[2], 1e-12) {
		t.Errorf("window peak %g != full peak %g", spectrum[1], full[2])
	}
	for _, w := range [][2]int{{-1, 2}, {3, 2}, {0, 6}} {
		if _, err := m.BroadenWindow(g, 0, 0, w[0], w[1]); err == nil {
			t.Errorf("window %v should be invalid", w)
		} else if _, ok := err.(RangeError); !ok {
			t.Errorf("window %v: expected a RangeError, got %T", w, err)
		}
	}
	for _, q := range []float64{-0.1, 1.1, math.NaN()} {
		if _, err := m.Broaden(g, 0, q); err == nil {
			t.Errorf("quantile %g should be invalid", q)
		}
	}
}

func TestBroadenZeroHalfWidth(t *testing.T) {
	m := testModel()
	g := testGas(t, "CO2", 400)
	g.GammaAir = make([]float64, g.Len())
	g.GammaSelf = make([]float64, g.Len())
	spectrum, err := m.Broaden(g, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(spectrum, g.Strength) {
		t.Errorf("unbroadened lines should be unchanged: %v", spectrum)
	}
}

func TestFindPeaks(t *testing.T) {
	for _, test := range []struct {
		x    []float64
		want []int
	}{
		{x: []float64{0, 1, 0, 2, 2, 2, 0}, want: []int{1, 4}},
		{x: []float64{0, 1, 1, 0}, want: []int{1}},
		{x: []float64{0, 1, 1}, want: nil},
		{x: []float64{3, 2, 1}, want: nil},
		{x: []float64{1}, want: nil},
		{x: nil, want: nil},
	} {
		if have := findPeaks(test.x); !reflect.DeepEqual(have, test.want) {
			t.Errorf("%v: have %v, want %v", test.x, have, test.want)
		}
	}
}

func TestMainPeaks(t *testing.T) {
	x := []float64{0, 1, 0, 3, 0, 2, 0}
	if have := mainPeaks(x, 0); !reflect.DeepEqual(have, []int{1, 3, 5}) {
		t.Errorf("quantile 0: %v", have)
	}
	if have := mainPeaks(x, 0.9); !reflect.DeepEqual(have, []int{3}) {
		t.Errorf("quantile 0.9: %v", have)
	}
	if have := mainPeaks(x, 1); len(have) != 0 {
		t.Errorf("quantile 1: %v", have)
	}
	// The median of the peak heights {1, 2, 3} is 2, so only the
	// tallest peak is above it.
	if have := mainPeaks([]float64{0, 1, 0, 2, 0, 3, 0}, 0.5); !reflect.DeepEqual(have, []int{5}) {
		t.Errorf("quantile 0.5: %v", have)
	}
}

func TestInterpQuantile(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	for _, test := range []struct{ p, want float64 }{
		{p: 0, want: 1},
		{p: 0.5, want: 2.5},
		{p: 0.9, want: 3.7},
		{p: 1, want: 4},
	} {
		if have := interpQuantile(test.p, x); absDifferent(have, test.want, 1e-12) {
			t.Errorf("p = %g: have %g, want %g", test.p, have, test.want)
		}
	}
	if have := interpQuantile(0.7, []float64{5}); have != 5 {
		t.Errorf("single value: have %g", have)
	}
}

func TestBroadenTwoPeaks(t *testing.T) {
	m := testModel()
	const gamma = 0.5
	strength := []float64{0.1, 1, 0.1, 0.1, 2, 0.1, 0.1}
	g, err := NewGasSpectrum("X",
		[]float64{100, 101, 102, 103, 104, 105, 106},
		append([]float64(nil), strength...),
		[]float64{gamma, gamma, gamma, gamma, gamma, gamma, gamma},
		[]float64{gamma, gamma, gamma, gamma, gamma, gamma, gamma},
		[]float64{0.75, 0.75, 0.75, 0.75, 0.75, 0.75, 0.75},
		44.01, 400)
	if err != nil {
		t.Fatal(err)
	}
	spectrum, err := m.Broaden(g, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	profile := func(j, p int) float64 {
		d := g.Nu[j] - g.Nu[p]
		return strength[p] * gamma / (math.Pi * (d*d + gamma*gamma))
	}
	// Peak 1 covers [0, 4) and peak 4 covers [1, 7); both cover [1, 4).
	// The original values at the peaks are replaced.
	want := []float64{
		0.1 + profile(0, 1),
		profile(1, 1) + profile(1, 4),
		0.1 + profile(2, 1) + profile(2, 4),
		0.1 + profile(3, 1) + profile(3, 4),
		profile(4, 4),
		0.1 + profile(5, 4),
		0.1 + profile(6, 4),
	}
	for j := range want {
		if different(spectrum[j], want[j], 1e-12) {
			t.Errorf("index %d: have %g, want %g", j, spectrum[j], want[j])
		}
	}
}

func TestNeighborhood(t *testing.T) {
	peaks := []int{2, 5, 9}
	for i, want := range [][2]int{{0, 5}, {2, 9}, {5, 12}} {
		if lo, hi := neighborhood(peaks, i, 12); lo != want[0] || hi != want[1] {
			t.Errorf("peak %d: have [%d, %d), want %v", i, lo, hi, want)
		}
	}
}
