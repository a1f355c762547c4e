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
	"sync"

	"gonum.org/v1/gonum/floats"
)

// checkPath makes sure that [low, high] is a valid altitude path
// divided into steps steps.
func checkPath(low, high float64, steps int) error {
	if low < 0 || math.IsNaN(low) {
		return RangeError{Param: "altitude", Reason: fmt.Sprintf("lower altitude %g m is below the surface", low)}
	}
	if !(low < high) || math.IsInf(high, 0) {
		return RangeError{Param: "altitude",
			Reason: fmt.Sprintf("lower altitude (%g m) must be less than upper altitude (%g m)", low, high)}
	}
	if steps < 1 {
		return RangeError{Param: "steps", Reason: fmt.Sprintf("must be >= 1, got %d", steps)}
	}
	return nil
}

// pathAltitudes returns steps altitudes evenly spaced over [low, high],
// including both ends, and the spacing between them [m].
// A single step is placed at low and spans the whole path.
func pathAltitudes(low, high float64, steps int) ([]float64, float64) {
	if steps == 1 {
		return []float64{low}, high - low
	}
	alts := floats.Span(make([]float64, steps), low, high)
	return alts, math.Abs(alts[1] - alts[0])
}

// columnDensity returns the number of molecules of g per cm² in a
// layer of thickness dzCM [cm] at the given altitude [m].
func (m *Model) columnDensity(g *GasSpectrum, altitude, dzCM float64) float64 {
	// kg/m³ / 1000 = g/cm³
	return m.Atmosphere.Density(altitude) / 1000 * g.MixingRatio() /
		g.RelativeAtomicMass * avogadro * dzCM
}

// Tau returns the optical depth of g for every line in g.Nu along
// the vertical path between altitudes low and high [m].
// The path is divided into steps evenly spaced altitudes (including
// both ends); at each one the broadened spectrum (see Broaden, using
// m.Quantile) is multiplied by the number of molecules in a layer as
// thick as the altitude spacing, and the results are summed.
// This is a Riemann sum, and the result becomes more accurate as steps
// increases.
//
// Altitude steps are calculated concurrently; each works on its own
// partial sum and the partial sums are added once all steps are done.
func (m *Model) Tau(g *GasSpectrum, low, high float64, steps int) ([]float64, error) {
	if err := checkPath(low, high, steps); err != nil {
		return nil, err
	}
	alts, dz := pathAltitudes(low, high, steps)
	dzCM := dz * 100 // m -> cm

	nprocs := m.nprocs()
	if nprocs > len(alts) {
		nprocs = len(alts)
	}
	partials := make([][]float64, nprocs)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			partial := make([]float64, g.Len())
			for i := p; i < len(alts); i += nprocs {
				spectrum, err := m.broadened(context.TODO(), g, alts[i])
				if err != nil {
					errs[p] = fmt.Errorf("radtran: tau for %s at %g m: %w", g.Name, alts[i], err)
					return
				}
				floats.AddScaled(partial, m.columnDensity(g, alts[i], dzCM), spectrum)
			}
			partials[p] = partial
		}(p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	tau := partials[0]
	for _, partial := range partials[1:] {
		floats.Add(tau, partial)
	}
	return tau, nil
}

// FluxDelta returns the flux that leaves the top of the path from
// low to high [m] when incidentFlux enters at the bottom:
// incidentFlux·exp(−τ). If the path starts at the surface (low == 0),
// the blackbody flux at the temperature of the top of the path is
// added once, representing thermal emission picked up along the path.
// incidentFlux must have one value per line of g.
func (m *Model) FluxDelta(g *GasSpectrum, incidentFlux []float64, low, high float64, steps int) ([]float64, error) {
	if len(incidentFlux) != g.Len() {
		return nil, RangeError{Param: "incident flux",
			Reason: fmt.Sprintf("has %d values but %s has %d lines", len(incidentFlux), g.Name, g.Len())}
	}
	tau, err := m.Tau(g, low, high, steps)
	if err != nil {
		return nil, err
	}
	flux := transmit(incidentFlux, tau)
	if low == 0 {
		floats.Add(flux, m.Blackbody(m.Atmosphere.Temperature(high), g.Nu, true))
	}
	return flux, nil
}

// transmit returns flux·exp(−tau), elementwise.
func transmit(flux, tau []float64) []float64 {
	o := make([]float64, len(flux))
	for i, f := range flux {
		o[i] = f * math.Exp(-tau[i])
	}
	return o
}
