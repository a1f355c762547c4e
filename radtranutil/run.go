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

package radtranutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/seancraven/radtran"
	"github.com/seancraven/radtran/odstore"
	"github.com/seancraven/radtran/science/atmosphere/isa"
	"github.com/seancraven/radtran/science/rayleigh"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const fluxUnits = "W m-2 (cm-1)-1"

// writeOutput creates the file at path, which can be a blob storage
// location, and calls write with it.
func writeOutput(ctx context.Context, path string, write func(f *os.File) error) error {
	var u uploader
	local := u.maybeUpload(path)
	if u.err != nil {
		return fmt.Errorf("radtranutil: preparing output: %w", u.err)
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("radtranutil: creating output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("radtranutil: closing output file: %w", err)
	}
	if err := u.uploadOutput(ctx); err != nil {
		return err
	}
	logrus.WithField("file", path).Info("radtranutil: wrote output")
	return nil
}

// Tau calculates the optical depth of each gas along the path from low
// to high [m] and writes the spectra to output in NetCDF format.
// If withRayleigh is true, the Rayleigh scattering optical depth of the
// atmosphere above low is also written for each gas's wavenumbers.
func Tau(ctx context.Context, m *radtran.Model, gases []*radtran.GasSpectrum, low, high float64, steps int, withRayleigh bool, output string) error {
	sets := make([]*radtran.SpectrumSet, 0, len(gases))
	for _, g := range gases {
		tau, err := m.Tau(g, low, high, steps)
		if err != nil {
			return err
		}
		s := &radtran.SpectrumSet{Gas: g.Name, Nu: g.Nu, Vars: map[string][]float64{"tau": tau}}
		if withRayleigh {
			s.Vars["rayleigh"] = rayleigh.OpticalDepthAbove(g.Nu, m.Atmosphere.Pressure(low))
		}
		logrus.WithFields(logrus.Fields{"gas": g.Name, "max": floats.Max(tau)}).Info("radtranutil: calculated optical depth")
		sets = append(sets, s)
	}
	return writeOutput(ctx, output, func(f *os.File) error {
		return radtran.WriteSpectraNetCDF(f, map[string]string{"tau": "1", "rayleigh": "1"}, sets...)
	})
}

// Flux calculates the flux leaving altitude high for blackbody flux
// entering at altitude low and writes the incident and outgoing spectra
// to output in NetCDF format. If nu is nil, each gas is treated
// separately (see radtran.Model.MultiGasFlux); otherwise the gases
// absorb together on the wavenumber grid nu (see radtran.Model.CombinedFlux).
func Flux(ctx context.Context, m *radtran.Model, gases []*radtran.GasSpectrum, nu []float64, low, high float64, steps int, output string) error {
	var fluxes []*radtran.GasFlux
	if nu == nil {
		var err error
		if fluxes, err = m.MultiGasFlux(gases, low, high, steps); err != nil {
			return err
		}
	} else {
		f, err := m.CombinedFlux(gases, nu, low, high, steps)
		if err != nil {
			return err
		}
		f.Gas = "combined"
		fluxes = []*radtran.GasFlux{f}
	}
	sets := make([]*radtran.SpectrumSet, len(fluxes))
	for i, f := range fluxes {
		sets[i] = &radtran.SpectrumSet{Gas: f.Gas, Nu: f.Nu,
			Vars: map[string][]float64{"incident": f.Incident, "outgoing": f.Outgoing}}
		logrus.WithFields(logrus.Fields{
			"gas":      f.Gas,
			"incident": floats.Sum(f.Incident),
			"outgoing": floats.Sum(f.Outgoing),
		}).Info("radtranutil: calculated flux")
	}
	return writeOutput(ctx, output, func(f *os.File) error {
		return radtran.WriteSpectraNetCDF(f, map[string]string{"incident": fluxUnits, "outgoing": fluxUnits}, sets...)
	})
}

// Grid builds an atmosphere grid from the optical depths in the store at
// dbPath and writes the upward flux table to output in NetCDF format.
func Grid(ctx context.Context, m *radtran.Model, dbPath string, gases []string, altRange, waveRange [2]float64, output string) error {
	s, err := odstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	ag, err := radtran.NewAtmosphereGrid(ctx, s, m, altRange, waveRange, gases...)
	if err != nil {
		return err
	}
	ft := ag.FluxUp()
	logrus.WithFields(logrus.Fields{
		"gases": gases,
		"toa":   floats.Sum(ft.TopOfAtmosphere()),
	}).Info("radtranutil: calculated upward flux")
	return writeOutput(ctx, output, func(f *os.File) error {
		return ft.WriteNetCDF(f)
	})
}

// Ingest calculates the optical depth of each gas in layers of
// thickness dz [m] between low and high and adds them to the store at
// dbPath, which is created if necessary.
func Ingest(ctx context.Context, m *radtran.Model, gases []*radtran.GasSpectrum, dbPath string, low, high, dz float64, steps int) error {
	if dz <= 0 {
		return fmt.Errorf("radtranutil: layer thickness must be > 0; got %g", dz)
	}
	n := int((high-low)/dz+0.5) + 1
	if n < 2 {
		n = 2
	}
	layers := floats.Span(make([]float64, n), low, high)
	s, err := odstore.Create(ctx, dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	errs := make(radtran.BatchError)
	for i, g := range gases {
		if err := odstore.Ingest(ctx, s, m, g, layers, steps); err != nil {
			errs[fmt.Sprintf("%d:%s", i, g.Name)] = err
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CrossSection loads the cross-section tables matching pattern, picks
// the one measured at the temperature closest to temperature [K], and
// writes it to output in NetCDF format along with the Rayleigh
// scattering cross section.
func CrossSection(ctx context.Context, pattern, name string, temperature float64, output string) error {
	g, err := radtran.LoadGasCrossSection(pattern, name, 1, radtran.DefaultPPM)
	if err != nil {
		return err
	}
	values, t := g.NearestTemperature(temperature)
	logrus.WithFields(logrus.Fields{
		"gas":          name,
		"temperatures": g.Temperatures(),
		"selected":     t,
	}).Info("radtranutil: selected cross section")
	s := &radtran.SpectrumSet{Gas: name, Nu: g.Nu, Vars: map[string][]float64{
		"crosssection": values,
		"rayleigh":     rayleigh.CrossSection(g.Nu),
	}}
	return writeOutput(ctx, output, func(f *os.File) error {
		return radtran.WriteSpectraNetCDF(f, map[string]string{"crosssection": "cm2", "rayleigh": "cm2"}, s)
	})
}

// Atmosphere writes a table of the standard atmosphere at altitudes
// from low to high [m] in steps of dz [m].
func Atmosphere(w io.Writer, low, high, dz float64) error {
	if dz <= 0 {
		return fmt.Errorf("radtranutil: altitude step must be > 0; got %g", dz)
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "altitude\ttemperature\tpressure\tdensity")
	var m isa.Model
	for z := low; z <= high; z += dz {
		alt, t, p, rho := m.State(z).Units()
		fmt.Fprintf(tw, "%.0f\t%.2f\t%.1f\t%.4g\n", alt, t, p, rho)
	}
	return tw.Flush()
}
