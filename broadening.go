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
)

// DefaultQuantile keeps the largest one percent of absorption peaks.
const DefaultQuantile = 0.99

// HalfWidth returns the pressure-broadened Lorentzian half width
// [cm⁻¹] of every line of g at the given altitude [m]:
//
//	γ = (T_ref/T)^n_air · (γ_air·(p − p_self) + γ_self·p_self)
//
// where p is the air pressure [atm], T the air temperature, and
// p_self = p · mixing ratio · ρ(altitude)/ρ(0) the partial pressure of the gas.
// altitude must be >= 0.
func (m *Model) HalfWidth(g *GasSpectrum, altitude float64) []float64 {
	hw := m.halfWidthFunc(g, altitude)
	o := make([]float64, g.Len())
	for i := range o {
		o[i] = hw(i)
	}
	return o
}

// halfWidthFunc returns a function that calculates the half width of
// line i, so that the atmosphere is only evaluated once per altitude.
func (m *Model) halfWidthFunc(g *GasSpectrum, altitude float64) func(i int) float64 {
	p := m.Atmosphere.Pressure(altitude)
	tFrac := TRef / m.Atmosphere.Temperature(altitude)
	pSelf := p * g.MixingRatio() * m.Atmosphere.Density(altitude) / m.Atmosphere.Density(0)
	return func(i int) float64 {
		return math.Pow(tFrac, g.NAir[i]) * (g.GammaAir[i]*(p-pSelf) + g.GammaSelf[i]*pSelf)
	}
}

// Broaden returns the absorption spectrum of g at the given altitude [m]
// after the strongest absorption peaks have been given a Lorentzian
// line shape. See BroadenWindow.
func (m *Model) Broaden(g *GasSpectrum, altitude, quantile float64) ([]float64, error) {
	return m.BroadenWindow(g, altitude, quantile, 0, g.Len())
}

// BroadenWindow returns the broadened absorption spectrum of lines
// [start, stop) of g at the given altitude [m]. The result has
// stop-start values and g is not modified.
//
// This is an approximation. Convolving every line with a full
// Lorentzian kernel is too expensive for line databases with hundreds
// of thousands of lines, so instead:
//
//  1. Local maxima ("peaks") of the line intensities are found.
//  2. Only peaks higher than the given quantile of all peak heights are
//     kept. A quantile of zero keeps all peaks.
//  3. The kept peaks are removed from a copy of the spectrum and replaced
//     by a Lorentzian profile with the area of the original peak,
//     centered on the peak wavenumber, with the half width from
//     HalfWidth. Each profile only extends over the neighborhood
//     [previous kept peak, next kept peak), where the spectrum edges
//     take the place of the missing neighbors of the first and last peaks.
//     Overlapping profiles are summed.
//
// Lines that are not kept peaks, and line wings outside of each
// neighborhood, are not broadened.
func (m *Model) BroadenWindow(g *GasSpectrum, altitude, quantile float64, start, stop int) ([]float64, error) {
	if start < 0 || stop > g.Len() || start > stop {
		return nil, RangeError{Param: "window",
			Reason: fmt.Sprintf("[%d, %d) is not within [0, %d)", start, stop, g.Len())}
	}
	if quantile < 0 || quantile > 1 || math.IsNaN(quantile) {
		return nil, RangeError{Param: "quantile", Reason: fmt.Sprintf("%g is not within [0, 1]", quantile)}
	}
	coeff := g.Strength[start:stop]
	nu := g.Nu[start:stop]

	out := make([]float64, len(coeff))
	copy(out, coeff)

	peaks := mainPeaks(coeff, quantile)
	if len(peaks) == 0 {
		return out, nil
	}
	for _, p := range peaks {
		out[p] = 0
	}
	hw := m.halfWidthFunc(g, altitude)
	for i, p := range peaks {
		lo, hi := neighborhood(peaks, i, len(out))
		gamma := hw(start + p)
		if !(gamma > 0) {
			// No broadening: the profile collapses to the line itself.
			out[p] += coeff[p]
			continue
		}
		for j := lo; j < hi; j++ {
			out[j] += lorentzian(nu[j], nu[p], gamma, coeff[p])
		}
	}
	return out, nil
}

// lorentzian returns the value at x of a Lorentzian (Cauchy) profile with
// the given center, half width, and area.
func lorentzian(x, center, gamma, area float64) float64 {
	d := x - center
	return area * gamma / (math.Pi * (d*d + gamma*gamma))
}

// neighborhood returns the half-open index interval [lo, hi) that the
// profile of kept peak i is applied over: from the previous kept peak
// (inclusive) to the next kept peak (exclusive). The first peak starts
// at index 0 and the last peak ends at n.
func neighborhood(peaks []int, i, n int) (lo, hi int) {
	lo, hi = 0, n
	if i > 0 {
		lo = peaks[i-1]
	}
	if i < len(peaks)-1 {
		hi = peaks[i+1]
	}
	return lo, hi
}

// mainPeaks returns the indices, in increasing order, of the peaks in x
// that are higher than the given quantile of all peak heights.
func mainPeaks(x []float64, quantile float64) []int {
	peaks := findPeaks(x)
	if len(peaks) == 0 {
		return nil
	}
	var threshold float64
	if quantile != 0 {
		heights := make([]float64, len(peaks))
		for i, p := range peaks {
			heights[i] = x[p]
		}
		sort.Float64s(heights)
		threshold = interpQuantile(quantile, heights)
	}
	kept := peaks[:0]
	for _, p := range peaks {
		if x[p] > threshold {
			kept = append(kept, p)
		}
	}
	return kept
}

// interpQuantile returns the p quantile of the sorted values x, linearly
// interpolated between the closest ranks at position (len(x)-1)·p
// (Hyndman and Fan type 7).
func interpQuantile(p float64, x []float64) float64 {
	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(x)-1 {
		return x[len(x)-1]
	}
	return x[lo] + (h-float64(lo))*(x[lo+1]-x[lo])
}

// findPeaks returns the indices of the local maxima of x. A flat peak
// (several equal values surrounded by smaller values) is reported once,
// at its middle index, rounded down. The first and last values are never peaks.
func findPeaks(x []float64) []int {
	var peaks []int
	i := 1
	last := len(x) - 1
	for i < last {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < last && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}
