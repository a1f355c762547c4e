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
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeSource map[string]*DepthTable

func (s fakeSource) Fetch(_ context.Context, gas string, _, _ [2]float64) (*DepthTable, error) {
	t, ok := s[gas]
	if !ok {
		return nil, NotFoundError{Kind: "gas", Name: gas}
	}
	return t, nil
}

// unitModel has a blackbody function that is 1 everywhere.
func unitModel() *Model {
	m := testModel()
	m.Blackbody = func(t float64, nu []float64, flux bool) []float64 {
		o := make([]float64, len(nu))
		for i := range o {
			o[i] = 1
		}
		return o
	}
	return m
}

func testSource() fakeSource {
	return fakeSource{
		"CO2": {
			Altitudes:   []float64{500, 1500},
			WaveNumbers: []float64{600, 601, 602},
			Depths: map[float64][]float64{
				500:  {0.1, 0.2, 0},
				1500: {0.3, 0.4, 0},
			},
		},
		"H2O": {
			Altitudes:   []float64{500, 1500},
			WaveNumbers: []float64{600, 601, 602},
			Depths: map[float64][]float64{
				500:  {0.1, 0, 0},
				1500: {0.1, 0, 0},
			},
		},
		"CH4": {
			Altitudes:   []float64{500},
			WaveNumbers: []float64{600, 601, 602},
			Depths:      map[float64][]float64{500: {1, 1, 1}},
		},
		"N2O": {},
	}
}

func TestAtmosphereGridFluxUp(t *testing.T) {
	ctx := context.Background()
	ag, err := NewAtmosphereGrid(ctx, testSource(), unitModel(), [2]float64{0, 2000}, [2]float64{600, 602}, "CO2")
	if err != nil {
		t.Fatal(err)
	}
	if r, c := ag.Depth.Dims(); r != 2 || c != 3 {
		t.Fatalf("depth is %d×%d", r, c)
	}
	ft := ag.FluxUp()
	if r, c := ft.Values.Dims(); r != 3 || c != 2 {
		t.Fatalf("flux is %d×%d", r, c)
	}
	depths := [][]float64{{0.1, 0.2, 0}, {0.3, 0.4, 0}}
	for j := 0; j < 3; j++ {
		f := 1.
		for i := 0; i < 2; i++ {
			f = (f + 1) * math.Exp(-depths[i][j])
			if different(ft.Values.At(j, i), f, 1e-12) {
				t.Errorf("bin %d, layer %d: have %g, want %g", j, i, ft.Values.At(j, i), f)
			}
		}
	}
	// Without absorption, each layer adds its own emission.
	if v := ft.Values.At(2, 1); v != 3 {
		t.Errorf("transparent bin: have %g, want 3", v)
	}
	toa := ft.TopOfAtmosphere()
	if len(toa) != 3 || toa[2] != 3 {
		t.Errorf("top of atmosphere %v", toa)
	}
}

func TestAtmosphereGridTransmission(t *testing.T) {
	ag, err := NewAtmosphereGrid(context.Background(), testSource(), unitModel(),
		[2]float64{0, 2000}, [2]float64{600, 602}, "CO2", "H2O")
	if err != nil {
		t.Fatal(err)
	}
	// Depths of the two gases are summed.
	if v := ag.Depth.At(1, 0); absDifferent(v, 0.4, 1e-15) {
		t.Errorf("summed depth %g", v)
	}
	tr := ag.Transmission()
	want := [][]float64{
		{math.Exp(-0.2), math.Exp(-0.2), 1},
		{math.Exp(-0.6), math.Exp(-0.6), 1},
	}
	for i := range want {
		for j, w := range want[i] {
			if different(tr.At(i, j), w, 1e-12) {
				t.Errorf("(%d, %d): have %g, want %g", i, j, tr.At(i, j), w)
			}
		}
	}
}

func TestAtmosphereGridBlackbody(t *testing.T) {
	m := isaModel()
	ag, err := NewAtmosphereGrid(context.Background(), testSource(), m,
		[2]float64{0, 2000}, [2]float64{600, 602}, "CO2")
	if err != nil {
		t.Fatal(err)
	}
	want := m.Blackbody(m.Atmosphere.Temperature(1500), []float64{601}, false)[0]
	if v := ag.Blackbody.At(1, 1); different(v, want, 1e-12) {
		t.Errorf("layer blackbody: have %g, want %g", v, want)
	}
}

func TestAtmosphereGridFluxUpPlanck(t *testing.T) {
	ag, err := NewAtmosphereGrid(context.Background(), testSource(), isaModel(),
		[2]float64{0, 2000}, [2]float64{600, 602}, "CO2", "H2O")
	if err != nil {
		t.Fatal(err)
	}
	ft := ag.FluxUp()
	if r, c := ft.Values.Dims(); r != 3 || c != 2 {
		t.Fatalf("flux is %d×%d, want 3×2", r, c)
	}
	for j := 0; j < 3; j++ {
		for i := 0; i < 2; i++ {
			v := ft.Values.At(j, i)
			if !(v >= 0) || math.IsInf(v, 0) {
				t.Errorf("bin %d, layer %d: %g", j, i, v)
			}
		}
	}
}

func TestAtmosphereGridLog(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := unitModel()
	m.Log = log
	if _, err := NewAtmosphereGrid(context.Background(), testSource(), m,
		[2]float64{0, 2000}, [2]float64{600, 602}, "CO2"); err != nil {
		t.Fatal(err)
	}
	e := hook.LastEntry()
	if e == nil {
		t.Fatal("no log entry")
	}
	if e.Data["altitudes"] != 2 || e.Data["bins"] != 3 {
		t.Errorf("log fields %v", e.Data)
	}
}

func TestAtmosphereGridErrors(t *testing.T) {
	ctx := context.Background()
	src := testSource()
	m := unitModel()
	alt, wave := [2]float64{0, 2000}, [2]float64{600, 602}

	if _, err := NewAtmosphereGrid(ctx, src, m, alt, wave); err == nil {
		t.Error("expected an error without gases")
	}
	if _, err := NewAtmosphereGrid(ctx, src, m, [2]float64{10, 10}, wave, "CO2"); err == nil {
		t.Error("expected an error for an empty altitude range")
	}
	if _, err := NewAtmosphereGrid(ctx, src, m, alt, [2]float64{602, 600}, "CO2"); err == nil {
		t.Error("expected an error for an inverted wavenumber range")
	}
	if _, err := NewAtmosphereGrid(ctx, src, m, alt, wave, "CO2", "CH4"); err == nil {
		t.Error("expected an error for mismatched altitudes")
	} else if _, ok := err.(FormatError); !ok {
		t.Errorf("expected a FormatError, got %T", err)
	}
	if _, err := NewAtmosphereGrid(ctx, src, m, alt, wave, "N2O"); err == nil {
		t.Error("expected an error for an empty result")
	} else if _, ok := err.(EmptyResultError); !ok {
		t.Errorf("expected an EmptyResultError, got %T", err)
	}
	if _, err := NewAtmosphereGrid(ctx, src, m, alt, wave, "SF6"); err == nil {
		t.Error("expected an error for a missing gas")
	} else if _, ok := err.(NotFoundError); !ok {
		t.Errorf("expected a NotFoundError, got %T", err)
	}
}
