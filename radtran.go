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

// Package radtran computes absorption spectra, optical depths, and upward
// radiative flux for greenhouse gases in a layered atmosphere.
//
// Spectral lines are read from a line database (see LoadGas), broadened
// with a pressure- and temperature-dependent Lorentzian profile
// (see Model.Broaden), integrated along an altitude path into an
// optical depth (see Model.Tau), and finally combined with blackbody
// emission to give the flux leaving a layer (see Model.FluxDelta and
// AtmosphereGrid.FluxUp).
package radtran

import (
	"runtime"

	"github.com/seancraven/radtran/science/planck"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/unit/constant"
)

// Version gives the version number.
const Version = "0.1.0"

// HITRAN reference conditions.
const (
	TRef = 296.  // Reference temperature [K]
	PRef = 1.0e5 // Reference pressure [Pa]
)

// DefaultPPM is the volumetric mixing ratio used when none is given [ppm].
const DefaultPPM = 415.1

var avogadro = float64(constant.Avogadro) // [1/mol]

// AtmosphereModel supplies the vertical structure of the atmosphere.
// Altitudes are in meters above the surface and must be non-negative.
type AtmosphereModel interface {
	// Pressure returns the air pressure [atm].
	Pressure(altitude float64) float64
	// Temperature returns the air temperature [K].
	Temperature(altitude float64) float64
	// Density returns the air density [kg/m³].
	Density(altitude float64) float64
}

// Blackbody returns the spectral radiance [W/(m² sr cm⁻¹)] of a blackbody at
// temperature t [K] for each wavenumber in nu [cm⁻¹]. If flux is true,
// the hemispherically integrated flux [W/(m² cm⁻¹)] is returned instead.
type Blackbody func(t float64, nu []float64, flux bool) []float64

// Model holds the physical collaborators and settings used to
// calculate spectra.
type Model struct {
	Atmosphere AtmosphereModel
	Blackbody  Blackbody

	// Quantile specifies which of the detected absorption peaks are
	// broadened by Tau: only peaks larger than this quantile of all
	// peak heights are kept. A value of zero keeps every peak.
	Quantile float64

	// NumProcessors is the maximum number of altitude steps that
	// are calculated concurrently. Values < 1 mean runtime.GOMAXPROCS(-1).
	NumProcessors int

	// Log receives progress messages. It defaults to the
	// logrus standard logger.
	Log logrus.FieldLogger

	cache *BroadeningCache
}

// NewModel returns a model using the given atmosphere, the Planck
// blackbody function, and DefaultQuantile.
func NewModel(atm AtmosphereModel) *Model {
	return &Model{
		Atmosphere: atm,
		Blackbody:  planck.Spectrum,
		Quantile:   DefaultQuantile,
		Log:        logrus.StandardLogger(),
	}
}

func (m *Model) nprocs() int {
	if m.NumProcessors < 1 {
		return runtime.GOMAXPROCS(-1)
	}
	return m.NumProcessors
}
