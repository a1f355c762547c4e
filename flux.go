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
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// GasFlux holds the result of a flux calculation for one gas.
type GasFlux struct {
	Gas      string
	Nu       []float64 // Wavenumbers [cm⁻¹]
	Incident []float64 // Blackbody flux entering the bottom of the path [W/(m² cm⁻¹)]
	Outgoing []float64 // Flux leaving the top of the path [W/(m² cm⁻¹)]
}

// MultiGasFlux calculates, for each gas independently, the blackbody
// flux at the temperature of altitude low and the flux that leaves
// altitude high after passing through that gas only (see FluxDelta).
// The gases do not interact; use CombinedFlux to account for
// absorption by all gases together.
//
// The results are in the same order as gases. If the calculation
// fails for some gases, their results are nil and the returned error is a
// BatchError describing each failure; the other results are still valid.
func (m *Model) MultiGasFlux(gases []*GasSpectrum, low, high float64, steps int) ([]*GasFlux, error) {
	if err := checkPath(low, high, steps); err != nil {
		return nil, err
	}
	o := make([]*GasFlux, len(gases))
	errs := make(BatchError)
	tLow := m.Atmosphere.Temperature(low)
	for i, g := range gases {
		incident := m.Blackbody(tLow, g.Nu, true)
		out, err := m.FluxDelta(g, incident, low, high, steps)
		if err != nil {
			errs[batchKey(g.Name, i)] = err
			continue
		}
		o[i] = &GasFlux{Gas: g.Name, Nu: g.Nu, Incident: incident, Outgoing: out}
	}
	return o, errs.errOrNil()
}

// batchKey returns a unique BatchError key for the gas with index i.
func batchKey(name string, i int) string {
	return fmt.Sprintf("%d:%s", i, name)
}

// CombinedFlux calculates the flux leaving altitude high when blackbody
// flux at the temperature of altitude low passes through all of the
// given gases at once. The optical depth of each gas is interpolated
// onto the wavenumber grid nu [cm⁻¹], which must be strictly increasing,
// and the optical depths are summed before the transmission is calculated.
// A gas contributes no optical depth at wavenumbers outside of its
// line range. If low == 0, blackbody emission at the temperature of
// altitude high is added as in FluxDelta.
//
// If the optical depth of any gas cannot be calculated the whole
// calculation fails, with a BatchError describing each failure.
func (m *Model) CombinedFlux(gases []*GasSpectrum, nu []float64, low, high float64, steps int) (*GasFlux, error) {
	if err := checkPath(low, high, steps); err != nil {
		return nil, err
	}
	if len(nu) < 2 || !sort.Float64sAreSorted(nu) || hasDuplicates(nu) {
		return nil, RangeError{Param: "wavenumber grid", Reason: "must have at least 2 strictly increasing values"}
	}
	tau := make([]float64, len(nu))
	errs := make(BatchError)
	names := ""
	for i, g := range gases {
		if i > 0 {
			names += "+"
		}
		names += g.Name
		gTau, err := m.Tau(g, low, high, steps)
		if err != nil {
			errs[batchKey(g.Name, i)] = err
			continue
		}
		regridded, err := regrid(g.Nu, gTau, nu)
		if err != nil {
			errs[batchKey(g.Name, i)] = err
			continue
		}
		floats.Add(tau, regridded)
	}
	if err := errs.errOrNil(); err != nil {
		return nil, err
	}
	incident := m.Blackbody(m.Atmosphere.Temperature(low), nu, true)
	out := transmit(incident, tau)
	if low == 0 {
		floats.Add(out, m.Blackbody(m.Atmosphere.Temperature(high), nu, true))
	}
	return &GasFlux{Gas: names, Nu: nu, Incident: incident, Outgoing: out}, nil
}

// regrid linearly interpolates values defined at x onto grid. Values at
// repeated x are averaged. Grid points outside of [min(x), max(x)]
// are set to zero.
func regrid(x, values, grid []float64) ([]float64, error) {
	o := make([]float64, len(grid))
	xs, ys := mergeDuplicates(x, values)
	switch len(xs) {
	case 0:
		return o, nil
	case 1:
		for i, g := range grid {
			if g == xs[0] {
				o[i] = ys[0]
			}
		}
		return o, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("radtran: interpolating optical depth: %w", err)
	}
	lo, hi := xs[0], xs[len(xs)-1]
	for i, g := range grid {
		if g < lo || g > hi {
			continue
		}
		o[i] = pl.Predict(g)
	}
	return o, nil
}

// mergeDuplicates returns x sorted with duplicate values removed,
// along with the mean of the values at each unique x.
func mergeDuplicates(x, values []float64) ([]float64, []float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })
	var xs, ys []float64
	n := 0.
	for _, i := range idx {
		if math.IsNaN(x[i]) {
			continue
		}
		if len(xs) > 0 && xs[len(xs)-1] == x[i] {
			ys[len(ys)-1] += values[i]
			n++
			continue
		}
		if n > 1 {
			ys[len(ys)-1] /= n
		}
		xs = append(xs, x[i])
		ys = append(ys, values[i])
		n = 1
	}
	if n > 1 {
		ys[len(ys)-1] /= n
	}
	return xs, ys
}

func hasDuplicates(sorted []float64) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}
