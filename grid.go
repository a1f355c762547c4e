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
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// DepthTable holds optical depths averaged into integer wavenumber bins
// for a set of altitudes.
type DepthTable struct {
	// Altitudes are the altitudes [m] with data, in increasing order.
	Altitudes []float64
	// Depths holds, for each altitude, the mean optical depth in each
	// bin of WaveNumbers.
	Depths map[float64][]float64
	// WaveNumbers are the bin wavenumbers [cm⁻¹], in increasing order.
	WaveNumbers []float64
}

// DepthSource is a source of precomputed optical depths.
// It is implemented by odstore.Store.
type DepthSource interface {
	// Fetch returns the optical depths of the named gas at altitudes
	// strictly inside altRange and wavenumbers within waveRange,
	// inclusive. An empty DepthTable is returned if there are none.
	Fetch(ctx context.Context, gas string, altRange, waveRange [2]float64) (*DepthTable, error)
}

// AtmosphereGrid holds optical depths and blackbody emission on an
// altitude × wavenumber grid.
type AtmosphereGrid struct {
	Gases     []string
	AltRange  [2]float64 // [m]
	WaveRange [2]float64 // [cm⁻¹]

	Altitudes   []float64 // Layer altitudes [m], increasing
	WaveNumbers []float64 // Wavenumber bins [cm⁻¹], increasing

	// Depth holds the optical depth of each layer; rows are altitudes
	// and columns are wavenumber bins. When there is more than one gas
	// their optical depths are summed.
	Depth *mat.Dense

	// Blackbody holds the blackbody spectral radiance of each layer
	// at its temperature, with the same shape as Depth.
	Blackbody *mat.Dense

	m *Model
}

// NewAtmosphereGrid fetches the optical depths of the given gases from
// src and builds the grid. At least one gas is required. All gases must
// have data at the same altitudes and wavenumber bins. If there is no
// data in the requested ranges an EmptyResultError is returned.
func NewAtmosphereGrid(ctx context.Context, src DepthSource, m *Model, altRange, waveRange [2]float64, gases ...string) (*AtmosphereGrid, error) {
	if len(gases) == 0 {
		return nil, RangeError{Param: "gases", Reason: "at least one gas is required"}
	}
	if !(altRange[0] < altRange[1]) {
		return nil, RangeError{Param: "altitude range", Reason: fmt.Sprintf("%v is empty", altRange)}
	}
	if !(waveRange[0] <= waveRange[1]) {
		return nil, RangeError{Param: "wavenumber range", Reason: fmt.Sprintf("%v is empty", waveRange)}
	}
	ag := &AtmosphereGrid{
		Gases:     gases,
		AltRange:  altRange,
		WaveRange: waveRange,
		m:         m,
	}
	for _, gas := range gases {
		t, err := src.Fetch(ctx, gas, altRange, waveRange)
		if err != nil {
			return nil, err
		}
		if len(t.Altitudes) == 0 || len(t.WaveNumbers) == 0 {
			return nil, EmptyResultError{Gas: gas, AltRange: altRange, WaveRange: waveRange}
		}
		if err := ag.addDepths(gas, t); err != nil {
			return nil, err
		}
	}
	ag.Blackbody = ag.blackbodyGrid()
	m.Log.WithFields(logrus.Fields{
		"gases":     gases,
		"altitudes": len(ag.Altitudes),
		"bins":      len(ag.WaveNumbers),
	}).Debug("radtran: built atmosphere grid")
	return ag, nil
}

// addDepths adds the optical depths in t to the grid.
func (ag *AtmosphereGrid) addDepths(gas string, t *DepthTable) error {
	if ag.Depth == nil {
		ag.Altitudes = t.Altitudes
		ag.WaveNumbers = t.WaveNumbers
		ag.Depth = mat.NewDense(len(t.Altitudes), len(t.WaveNumbers), nil)
	} else if !equalFloats(ag.Altitudes, t.Altitudes) || !equalFloats(ag.WaveNumbers, t.WaveNumbers) {
		return FormatError{Source: gas,
			Reason: fmt.Sprintf("altitudes and wavenumber bins do not match those of %s", ag.Gases[0])}
	}
	for i, alt := range ag.Altitudes {
		d := t.Depths[alt]
		if len(d) != len(ag.WaveNumbers) {
			return FormatError{Source: gas,
				Reason: fmt.Sprintf("altitude %g m has %d bins; expected %d", alt, len(d), len(ag.WaveNumbers))}
		}
		for j, v := range d {
			ag.Depth.Set(i, j, ag.Depth.At(i, j)+v)
		}
	}
	return nil
}

// blackbodyGrid returns the blackbody radiance of every layer.
func (ag *AtmosphereGrid) blackbodyGrid() *mat.Dense {
	bb := mat.NewDense(len(ag.Altitudes), len(ag.WaveNumbers), nil)
	for i, alt := range ag.Altitudes {
		bb.SetRow(i, ag.m.Blackbody(ag.m.Atmosphere.Temperature(alt), ag.WaveNumbers, false))
	}
	return bb
}

// Transmission returns the fraction of radiation leaving the surface
// that reaches the top of each layer, with the same shape as Depth:
// the running product of exp(−τ) over layers from the lowest up to
// and including each layer.
func (ag *AtmosphereGrid) Transmission() *mat.Dense {
	nAlt, nBins := ag.Depth.Dims()
	t := mat.NewDense(nAlt, nBins, nil)
	for j := 0; j < nBins; j++ {
		prod := 1.
		for i := 0; i < nAlt; i++ {
			prod *= math.Exp(-ag.Depth.At(i, j))
			t.Set(i, j, prod)
		}
	}
	return t
}

// FluxTable holds upward flux by wavenumber bin and altitude.
type FluxTable struct {
	WaveNumbers []float64 // Row labels [cm⁻¹]
	Altitudes   []float64 // Column labels [m]
	// Values has one row per wavenumber bin and one column per
	// altitude [W/(m² sr cm⁻¹)].
	Values *mat.Dense
}

// FluxUp returns the upward radiance reaching the top of each layer.
// Layers are processed from the lowest upward, starting with the
// blackbody emission of the surface at the temperature of altitude 0:
//
//	F₋₁ = B(T(0))
//	Fₖ  = (Fₖ₋₁ + Bₖ)·exp(−τₖ)
//
// where Bₖ and τₖ are the blackbody emission and optical depth of
// layer k. Surface emission is therefore attenuated by every layer up
// to and including k, and each layer's own emission is attenuated by
// itself and by every layer between it and k.
func (ag *AtmosphereGrid) FluxUp() *FluxTable {
	nAlt, nBins := ag.Depth.Dims()
	ground := ag.m.Blackbody(ag.m.Atmosphere.Temperature(0), ag.WaveNumbers, false)
	v := mat.NewDense(nBins, nAlt, nil)
	for j := 0; j < nBins; j++ {
		f := ground[j]
		for i := 0; i < nAlt; i++ {
			f = (f + ag.Blackbody.At(i, j)) * math.Exp(-ag.Depth.At(i, j))
			v.Set(j, i, f)
		}
	}
	return &FluxTable{
		WaveNumbers: ag.WaveNumbers,
		Altitudes:   ag.Altitudes,
		Values:      v,
	}
}

// TopOfAtmosphere returns the upward flux leaving the highest layer.
func (ft *FluxTable) TopOfAtmosphere() []float64 {
	_, c := ft.Values.Dims()
	if c == 0 {
		return nil
	}
	return mat.Col(nil, c-1, ft.Values)
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
