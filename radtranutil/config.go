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
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/seancraven/radtran"
	"github.com/seancraven/radtran/science/atmosphere/isa"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/floats"
)

// expandStringSlice returns a copy of s with the environment variables
// in each string expanded.
func expandStringSlice(s []string) []string {
	o := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		o[i] = os.ExpandEnv(s[i])
	}
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`radtranutil: you need to specify an output file (for example: --output="out.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		bucket, _, err := splitBlob(f)
		if err != nil {
			return f, err
		}
		if _, err := OpenBucket(context.TODO(), bucket); err != nil {
			return f, fmt.Errorf("radtranutil: error when checking output location: %w", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("radtranutil: the output directory doesn't exist: %w", err)
	}
	return f, nil
}

// checkPath returns the lower and upper altitude options.
func checkPath(cfg *viper.Viper) (low, high float64, err error) {
	low, high = cfg.GetFloat64("low"), cfg.GetFloat64("high")
	if low < 0 || !(low < high) {
		return 0, 0, fmt.Errorf("radtranutil: invalid altitude path %g–%g m", low, high)
	}
	return low, high, nil
}

// waveRange returns the wavenumber range options.
func waveRange(cfg *viper.Viper) ([2]float64, error) {
	r := [2]float64{cfg.GetFloat64("wavemin"), cfg.GetFloat64("wavemax")}
	if !(r[0] <= r[1]) || math.IsNaN(r[0]) {
		return r, fmt.Errorf("radtranutil: invalid wavenumber range %v", r)
	}
	return r, nil
}

// waveGrid returns nupoints evenly spaced wavenumbers spanning the
// wavenumber range options.
func waveGrid(cfg *viper.Viper) ([]float64, error) {
	r, err := waveRange(cfg)
	if err != nil {
		return nil, err
	}
	n := cfg.GetInt("nupoints")
	if n < 2 || r[0] == r[1] {
		return nil, fmt.Errorf("radtranutil: wavenumber grid needs at least 2 points over a non-empty range")
	}
	return floats.Span(make([]float64, n), r[0], r[1]), nil
}

// newModel creates a model with the standard atmosphere and the
// broadening options in cfg.
func newModel(cfg *viper.Viper) (*radtran.Model, error) {
	m := radtran.NewModel(isa.Model{})
	m.Quantile = cfg.GetFloat64("quantile")
	if m.Quantile < 0 || m.Quantile > 1 {
		return nil, fmt.Errorf("radtranutil: quantile must be between 0 and 1; got %g", m.Quantile)
	}
	m.NumProcessors = cfg.GetInt("nprocs")
	if size := cfg.GetInt("cachesize"); size > 0 {
		m.EnableCache(size)
	}
	return m, nil
}

// loadGases reads the gas catalog and the line databases of the gases
// named in the "gases" option, or of all catalog gases if none are named.
// Files may be local, or HTTP or blob storage locations.
func loadGases(ctx context.Context, cfg *viper.Viper) ([]*radtran.GasSpectrum, error) {
	path := os.ExpandEnv(cfg.GetString("catalog"))
	if path == "" {
		return nil, fmt.Errorf("radtranutil: no gas catalog specified (use --catalog)")
	}
	local, err := maybeDownload(ctx, path)
	if err != nil {
		return nil, err
	}
	c, err := radtran.ReadCatalogFile(local)
	if err != nil {
		return nil, err
	}
	names := gasNames(cfg)
	gases, err := c.Load(func(p string) (string, error) { return maybeDownload(ctx, p) }, names...)
	if err != nil {
		return nil, err
	}
	for _, g := range gases {
		logrus.WithFields(logrus.Fields{"gas": g.Name, "lines": g.Len()}).Info("radtranutil: loaded gas")
	}
	return gases, nil
}

// gasNames returns the values of the "gases" option, which may be
// given as a list or as a comma-separated string.
func gasNames(cfg *viper.Viper) []string {
	var o []string
	for _, s := range expandStringSlice(cast.ToStringSlice(cfg.Get("gases"))) {
		for _, n := range strings.Split(s, ",") {
			if n = strings.TrimSpace(n); n != "" {
				o = append(o, n)
			}
		}
	}
	return o
}

// setLogLevel configures the standard logger using the "loglevel" option.
func setLogLevel(cfg *viper.Viper) error {
	lvl, err := logrus.ParseLevel(cfg.GetString("loglevel"))
	if err != nil {
		return fmt.Errorf("radtranutil: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
