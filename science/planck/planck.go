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

// Package planck calculates blackbody emission in wavenumber space.
package planck

import (
	"math"

	"gonum.org/v1/gonum/unit/constant"
)

var (
	h  = float64(constant.Planck)             // [J s]
	c  = float64(constant.LightSpeedInVacuum) // [m/s]
	kB = float64(constant.Boltzmann)          // [J/K]
)

// Radiance returns the spectral radiance [W/(m² sr cm⁻¹)] of a
// blackbody at temperature t [K] and wavenumber nu [cm⁻¹].
// Non-positive temperatures and wavenumbers emit nothing.
func Radiance(t, nu float64) float64 {
	if t <= 0 || nu <= 0 {
		return 0
	}
	nuM := nu * 100 // cm⁻¹ -> m⁻¹
	x := h * c * nuM / (kB * t)
	// W/(m² sr m⁻¹) -> W/(m² sr cm⁻¹)
	return 2 * h * c * c * nuM * nuM * nuM / math.Expm1(x) * 100
}

// Flux returns the spectral flux [W/(m² cm⁻¹)] emitted into a hemisphere
// by a blackbody surface at temperature t [K] and wavenumber nu [cm⁻¹].
func Flux(t, nu float64) float64 {
	return math.Pi * Radiance(t, nu)
}

// Spectrum returns Radiance, or Flux if flux is true, at temperature t
// for every wavenumber in nu.
func Spectrum(t float64, nu []float64, flux bool) []float64 {
	f := Radiance
	if flux {
		f = Flux
	}
	o := make([]float64, len(nu))
	for i, n := range nu {
		o[i] = f(t, n)
	}
	return o
}

// Peak returns the wavenumber [cm⁻¹] at which the spectral radiance of a
// blackbody at temperature t [K] is largest (Wien's displacement law in
// wavenumber form).
func Peak(t float64) float64 {
	const x = 2.821439372122079 // root of 3(1-exp(-x)) = x
	return x * kB * t / (h * c) / 100
}
