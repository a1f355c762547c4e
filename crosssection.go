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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// CrossSectionHeader holds the fields of the first line of a
// cross-section file. The line is a whitespace-separated list:
//
//	Molecule WaveMin WaveMax NPoints Temperature Pressure [extra fields...]
//
// for example
//
//	O3  29164.0  40798.0  10000  293.0  0.0  1.2e-17
//
// Fields after Pressure are ignored.
type CrossSectionHeader struct {
	Molecule    string
	WaveMin     float64 // [cm⁻¹]
	WaveMax     float64 // [cm⁻¹]
	NPoints     int
	Temperature float64 // [K]
	Pressure    float64 // [Torr]
}

var headerFields = []string{"Molecule", "WaveMin", "WaveMax", "NPoints", "Temperature", "Pressure"}

// ParseCrossSectionHeader parses a cross-section header line.
func ParseCrossSectionHeader(line string) (CrossSectionHeader, error) {
	var h CrossSectionHeader
	f := strings.Fields(line)
	if len(f) < len(headerFields) {
		return h, FormatError{Reason: fmt.Sprintf("cross-section header has %d fields; missing %s",
			len(f), strings.Join(headerFields[len(f):], ", "))}
	}
	h.Molecule = f[0]
	var err error
	parse := func(i int) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = strconv.ParseFloat(f[i], 64)
		if err != nil {
			err = FormatError{Reason: fmt.Sprintf("cross-section header field %s: %v", headerFields[i], err)}
		}
		return v
	}
	h.WaveMin = parse(1)
	h.WaveMax = parse(2)
	h.Temperature = parse(4)
	h.Pressure = parse(5)
	if err != nil {
		return h, err
	}
	h.NPoints, err = strconv.Atoi(f[3])
	if err != nil {
		return h, FormatError{Reason: fmt.Sprintf("cross-section header field NPoints: %v", err)}
	}
	switch {
	case h.NPoints < 2:
		return h, FormatError{Reason: fmt.Sprintf("cross-section header NPoints must be >= 2, got %d", h.NPoints)}
	case !(h.WaveMin < h.WaveMax):
		return h, FormatError{Reason: fmt.Sprintf("cross-section header WaveMin (%g) must be less than WaveMax (%g)",
			h.WaveMin, h.WaveMax)}
	case !(h.Temperature > 0):
		return h, FormatError{Reason: fmt.Sprintf("cross-section header Temperature must be > 0 K, got %g", h.Temperature)}
	}
	return h, nil
}

// CrossSection is an absorption cross-section table recorded at a
// single temperature.
type CrossSection struct {
	CrossSectionHeader
	Values []float64 // [cm²/molecule]
}

// Nu returns the wavenumbers [cm⁻¹] of the table: NPoints values
// evenly spaced between WaveMin and WaveMax, inclusive.
func (c *CrossSection) Nu() []float64 {
	return floats.Span(make([]float64, c.NPoints), c.WaveMin, c.WaveMax)
}

// ReadCrossSection reads a cross-section table: a header line (see
// CrossSectionHeader) followed by whitespace-separated values, any number per
// line. Exactly NPoints values are read; any further content is ignored.
func ReadCrossSection(r io.Reader) (*CrossSection, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, FormatError{Reason: "empty cross-section file"}
	}
	h, err := ParseCrossSectionHeader(s.Text())
	if err != nil {
		return nil, err
	}
	c := &CrossSection{CrossSectionHeader: h, Values: make([]float64, 0, h.NPoints)}
	line := 1
	for len(c.Values) < h.NPoints && s.Scan() {
		line++
		for _, field := range strings.Fields(s.Text()) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, FormatError{Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
			c.Values = append(c.Values, v)
			if len(c.Values) == h.NPoints {
				break
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(c.Values) < h.NPoints {
		return nil, FormatError{Reason: fmt.Sprintf("header specifies %d values but only %d were found",
			h.NPoints, len(c.Values))}
	}
	return c, nil
}

// GasCrossSection holds cross-section tables for one gas at several
// temperatures. All tables share the same wavenumber grid.
type GasCrossSection struct {
	Name               string
	Nu                 []float64 // [cm⁻¹]
	RelativeAtomicMass float64   // [g/mol]
	PPM                float64   // [parts per million]

	tables []*CrossSection
}

// NewGasCrossSection combines cross-section tables recorded at different
// temperatures. The order of the tables is kept and used to break ties
// in NearestTemperature.
func NewGasCrossSection(name string, relativeAtomicMass, ppm float64, tables ...*CrossSection) (*GasCrossSection, error) {
	if len(tables) == 0 {
		return nil, FormatError{Source: name, Reason: "no cross-section tables"}
	}
	if !(ppm > 0) {
		return nil, FormatError{Source: name, Reason: fmt.Sprintf("mixing ratio must be > 0 ppm, got %g", ppm)}
	}
	if !(relativeAtomicMass > 0) {
		return nil, FormatError{Source: name,
			Reason: fmt.Sprintf("relative atomic mass must be > 0 g/mol, got %g", relativeAtomicMass)}
	}
	t0 := tables[0]
	for i, t := range tables[1:] {
		if t.NPoints != t0.NPoints || t.WaveMin != t0.WaveMin || t.WaveMax != t0.WaveMax {
			return nil, FormatError{Source: name,
				Reason: fmt.Sprintf("table %d (%d points, %g–%g cm⁻¹) does not match table 0 (%d points, %g–%g cm⁻¹)",
					i+1, t.NPoints, t.WaveMin, t.WaveMax, t0.NPoints, t0.WaveMin, t0.WaveMax)}
		}
	}
	return &GasCrossSection{
		Name:               name,
		Nu:                 t0.Nu(),
		RelativeAtomicMass: relativeAtomicMass,
		PPM:                ppm,
		tables:             tables,
	}, nil
}

// LoadGasCrossSection reads every file matching the glob pattern as a
// cross-section table. Files are read in lexical order.
func LoadGasCrossSection(pattern, name string, relativeAtomicMass, ppm float64) (*GasCrossSection, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("radtran: cross-section pattern: %w", err)
	}
	if len(files) == 0 {
		return nil, NotFoundError{Kind: "cross-section file", Name: pattern}
	}
	sort.Strings(files)
	tables := make([]*CrossSection, len(files))
	for i, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("radtran: opening cross section: %w", err)
		}
		tables[i], err = ReadCrossSection(f)
		f.Close()
		if err != nil {
			if fe, ok := err.(FormatError); ok {
				fe.Source = file
				return nil, fe
			}
			return nil, fmt.Errorf("radtran: reading %s: %w", file, err)
		}
	}
	return NewGasCrossSection(name, relativeAtomicMass, ppm, tables...)
}

// Temperatures returns the temperatures [K] of the tables, in order.
func (g *GasCrossSection) Temperatures() []float64 {
	o := make([]float64, len(g.tables))
	for i, t := range g.tables {
		o[i] = t.Temperature
	}
	return o
}

// NearestTemperature returns the cross sections of the table whose
// temperature is closest to t [K], along with that table's temperature.
// When two tables are equally close, the first one is returned.
// The returned slice must not be modified.
func (g *GasCrossSection) NearestTemperature(t float64) ([]float64, float64) {
	diff := g.Temperatures()
	for i, v := range diff {
		diff[i] = math.Abs(v - t)
	}
	i := floats.MinIdx(diff)
	return g.tables[i].Values, g.tables[i].Temperature
}
