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

// Package rayleigh calculates Rayleigh scattering by dry air using the
// fit of Bodhaine et al. (1999, J. Atmos. Ocean. Tech. 16, 1854).
// The fit is valid for wavelengths between 0.25 and 1 μm
// (wavenumbers of 10000 to 40000 cm⁻¹).
package rayleigh

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/unit/constant"
)

// surfaceDepth is the optical depth of the whole atmosphere at the
// reference wavelength scaling of the fit, for a surface pressure of 1 atm.
const surfaceDepth = 0.0021520

// surfaceColumn is the number of air molecules above 1 cm² of the surface
// at a pressure of 1 atm [molecules/cm²].
var surfaceColumn = 101325 * float64(constant.Avogadro) / (0.0289644 * 9.80665) / 1e4

// spectralFactor returns the wavelength dependence of the fit at
// wavenumber nu [cm⁻¹].
func spectralFactor(nu float64) float64 {
	x2 := nu / 1e4 * nu / 1e4 // λ⁻² [μm⁻²]
	num := 1.0455996 - 341.29061*x2 - 0.90230850/x2
	den := 1 + 0.0027059889*x2 - 85.968563/x2
	return num / den
}

// OpticalDepth returns the Rayleigh optical depth of the whole atmosphere
// above a surface at 1 atm for each wavenumber in nu [cm⁻¹].
func OpticalDepth(nu []float64) []float64 {
	o := make([]float64, len(nu))
	for i, n := range nu {
		o[i] = surfaceDepth * spectralFactor(n)
	}
	return o
}

// OpticalDepthAbove returns the Rayleigh optical depth of the part of the
// atmosphere above the level where the pressure is p [atm].
func OpticalDepthAbove(nu []float64, p float64) []float64 {
	o := OpticalDepth(nu)
	floats.Scale(p, o)
	return o
}

// CrossSection returns the Rayleigh scattering cross section per air
// molecule [cm²] for each wavenumber in nu [cm⁻¹].
func CrossSection(nu []float64) []float64 {
	o := OpticalDepth(nu)
	floats.Scale(1/surfaceColumn, o)
	return o
}

// ExtendGrid returns a copy of the increasing wavenumber grid nu [cm⁻¹]
// with n evenly spaced points appended, ending at upper. If nu is empty
// or upper is not above its last value, the copy is returned unchanged.
func ExtendGrid(nu []float64, upper float64, n int) []float64 {
	o := make([]float64, len(nu), len(nu)+n)
	copy(o, nu)
	if len(nu) == 0 || n < 1 || upper <= nu[len(nu)-1] {
		return o
	}
	last := nu[len(nu)-1]
	step := (upper - last) / float64(n)
	for i := 1; i <= n; i++ {
		o = append(o, last+step*float64(i))
	}
	o[len(o)-1] = upper
	return o
}
