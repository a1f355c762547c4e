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

// Package isa implements the 1976 U.S. Standard Atmosphere, which is
// identical to the ICAO International Standard Atmosphere up to 32 km.
//
// Altitudes are geometric heights above mean sea level [m]. They are
// converted to geopotential heights internally. Above the last layer
// boundary (84.852 km geopotential) the atmosphere is treated as isothermal.
package isa

import (
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

const (
	g0        = 9.80665    // Standard gravity [m/s²]
	molarMass = 0.0289644  // Molar mass of dry air [kg/mol]
	rStar     = 8.31432    // Universal gas constant used by the standard [J/(mol K)]
	earthR    = 6356766.   // Effective earth radius [m]
	atm       = 101325.    // [Pa]
	t0        = 288.15     // Sea level temperature [K]
	p0        = atm        // Sea level pressure [Pa]
	gmr       = g0 * molarMass / rStar
)

// layer is a region of the atmosphere with a constant temperature lapse rate.
type layer struct {
	base  float64 // geopotential base height [m]
	lapse float64 // [K/m]
	t, p  float64 // temperature [K] and pressure [Pa] at base
}

var layers = newLayers([]float64{0, 11000, 20000, 32000, 47000, 51000, 71000, 84852},
	[]float64{-0.0065, 0, 0.001, 0.0028, 0, -0.0028, -0.002, 0})

func newLayers(bases, lapses []float64) []layer {
	l := make([]layer, len(bases))
	l[0] = layer{base: bases[0], lapse: lapses[0], t: t0, p: p0}
	for i := 1; i < len(bases); i++ {
		prev := l[i-1]
		t, p := prev.at(bases[i])
		l[i] = layer{base: bases[i], lapse: lapses[i], t: t, p: p}
	}
	return l
}

// at returns the temperature and pressure at geopotential height h,
// which is assumed to be within the layer.
func (l layer) at(h float64) (t, p float64) {
	dh := h - l.base
	if l.lapse == 0 {
		return l.t, l.p * math.Exp(-gmr*dh/l.t)
	}
	t = l.t + l.lapse*dh
	return t, l.p * math.Pow(l.t/t, gmr/l.lapse)
}

// Geopotential returns the geopotential height [m] of geometric
// altitude z [m].
func Geopotential(z float64) float64 {
	return earthR * z / (earthR + z)
}

// Model is the standard atmosphere. The zero value is ready to use.
type Model struct{}

// state returns the temperature [K] and pressure [Pa] at altitude z [m].
func (Model) state(z float64) (t, p float64) {
	h := Geopotential(z)
	i := len(layers) - 1
	for i > 0 && h < layers[i].base {
		i--
	}
	return layers[i].at(h)
}

// Temperature returns the air temperature [K] at altitude z [m].
func (m Model) Temperature(z float64) float64 {
	t, _ := m.state(z)
	return t
}

// PressurePa returns the air pressure [Pa] at altitude z [m].
func (m Model) PressurePa(z float64) float64 {
	_, p := m.state(z)
	return p
}

// Pressure returns the air pressure [atm] at altitude z [m].
func (m Model) Pressure(z float64) float64 {
	return m.PressurePa(z) / atm
}

// Density returns the air density [kg/m³] at altitude z [m].
func (m Model) Density(z float64) float64 {
	t, p := m.state(z)
	return p * molarMass / (rStar * t)
}

// Temperatures returns the temperature at each of the given altitudes.
func (m Model) Temperatures(z []float64) []float64 { return m.apply(m.Temperature, z) }

// Pressures returns the pressure [atm] at each of the given altitudes.
func (m Model) Pressures(z []float64) []float64 { return m.apply(m.Pressure, z) }

// Densities returns the density at each of the given altitudes.
func (m Model) Densities(z []float64) []float64 { return m.apply(m.Density, z) }

func (Model) apply(f func(float64) float64, z []float64) []float64 {
	o := make([]float64, len(z))
	for i, zz := range z {
		o[i] = f(zz)
	}
	return o
}

// State holds the properties of the atmosphere at one altitude.
type State struct {
	Altitude    float64 // [m]
	Temperature float64 // [K]
	Pressure    float64 // [Pa]
	Density     float64 // [kg/m³]
}

// State returns the properties of the atmosphere at altitude z [m].
func (m Model) State(z float64) State {
	t, p := m.state(z)
	return State{
		Altitude:    z,
		Temperature: t,
		Pressure:    p,
		Density:     p * molarMass / (rStar * t),
	}
}

// Units returns the altitude, temperature, pressure, and density of
// s as dimensioned values.
func (s State) Units() (altitude, temperature, pressure, density *unit.Unit) {
	return unit.New(s.Altitude, unit.Meter),
		unit.New(s.Temperature, unit.Kelvin),
		unit.New(s.Pressure, unit.Pascal),
		unit.New(s.Density, unit.KilogramPerMeter3)
}

func (s State) String() string {
	z, t, p, rho := s.Units()
	return fmt.Sprintf("z=%v T=%v p=%v ρ=%v", z, t, p, rho)
}
