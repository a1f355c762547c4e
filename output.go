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
	"sort"

	"github.com/ctessum/cdf"
	"gonum.org/v1/gonum/mat"
)

// WriteNetCDF writes the flux table to w in NetCDF classic format, with
// variables "wavenumber", "altitude", and "flux" (dimensions wavenumber × altitude).
func (ft *FluxTable) WriteNetCDF(w cdf.ReaderWriterAt) error {
	nBins, nAlt := ft.Values.Dims()
	h := cdf.NewHeader([]string{"wavenumber", "altitude"}, []int{nBins, nAlt})
	h.AddAttribute("", "comment", "Upward radiance at the top of each atmospheric layer")

	h.AddVariable("wavenumber", []string{"wavenumber"}, []float64{0})
	h.AddAttribute("wavenumber", "units", "cm-1")
	h.AddVariable("altitude", []string{"altitude"}, []float64{0})
	h.AddAttribute("altitude", "units", "m")
	h.AddVariable("flux", []string{"wavenumber", "altitude"}, []float64{0})
	h.AddAttribute("flux", "description", "Upward radiance reaching the top of the layer")
	h.AddAttribute("flux", "units", "W m-2 sr-1 (cm-1)-1")
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("radtran: creating flux file: %w", err)
	}
	if err := writeNCF(f, "wavenumber", ft.WaveNumbers); err != nil {
		return err
	}
	if err := writeNCF(f, "altitude", ft.Altitudes); err != nil {
		return err
	}
	if err := writeNCF(f, "flux", denseData(ft.Values)); err != nil {
		return err
	}
	return nil
}

// WriteSpectraNetCDF writes per-gas spectra to w in NetCDF classic format.
// For each gas there is a dimension and variable "nu_<gas>" holding the
// wavenumbers, and one variable "<name>_<gas>" for each of the named
// spectra in the set, each with one value per wavenumber. units maps
// spectrum names to the units attribute of their variables.
func WriteSpectraNetCDF(w cdf.ReaderWriterAt, units map[string]string, fluxes ...*SpectrumSet) error {
	dims := make([]string, len(fluxes))
	lengths := make([]int, len(fluxes))
	for i, s := range fluxes {
		dims[i] = "nu_" + s.Gas
		lengths[i] = len(s.Nu)
	}
	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "Gas absorption spectra")
	for _, s := range fluxes {
		nuVar := "nu_" + s.Gas
		h.AddVariable(nuVar, []string{nuVar}, []float64{0})
		h.AddAttribute(nuVar, "units", "cm-1")
		for _, name := range s.names() {
			if len(s.Vars[name]) != len(s.Nu) {
				return RangeError{Param: name,
					Reason: fmt.Sprintf("%s has %d values but there are %d wavenumbers", name, len(s.Vars[name]), len(s.Nu))}
			}
			v := name + "_" + s.Gas
			h.AddVariable(v, []string{nuVar}, []float64{0})
			if u, ok := units[name]; ok {
				h.AddAttribute(v, "units", u)
			}
		}
	}
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("radtran: creating spectrum file: %w", err)
	}
	for _, s := range fluxes {
		if err := writeNCF(f, "nu_"+s.Gas, s.Nu); err != nil {
			return err
		}
		for _, name := range s.names() {
			if err := writeNCF(f, name+"_"+s.Gas, s.Vars[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// SpectrumSet is a group of spectra for one gas that share a
// wavenumber grid.
type SpectrumSet struct {
	Gas  string
	Nu   []float64
	Vars map[string][]float64
}

func (s *SpectrumSet) names() []string {
	o := make([]string, 0, len(s.Vars))
	for k := range s.Vars {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// writeNCF writes data to the variable v of f.
func writeNCF(f *cdf.File, v string, data []float64) error {
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("radtran: writing %s: %w", v, err)
	}
	return nil
}

// denseData returns the elements of m in row-major order.
func denseData(m *mat.Dense) []float64 {
	r, c := m.Dims()
	o := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		o = append(o, m.RawRowView(i)...)
	}
	return o
}
