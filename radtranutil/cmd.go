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

// Package radtranutil contains the radtran command-line interface and
// the functions that implement its commands.
package radtranutil

import (
	"context"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/seancraven/radtran"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to radtran.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel specifies the level of detail of log messages
              (panic, fatal, error, warn, info, debug, or trace).`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "catalog",
			usage: `
              catalog is the path to a TOML gas catalog listing the line
              database of each gas. It can be a local file, an http(s)
              URL, or a blob storage location (gs://, s3://, or file://).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "gases",
			usage: `
              gases lists the names of the gases to use. For commands that
              read the gas catalog, the default is every gas in the catalog.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "low",
			usage: `
              low is the lower altitude of the atmospheric path [m].`,
			defaultVal: 0.,
			flagsets: []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags(),
				gridCmd.Flags(), atmosphereCmd.Flags()},
		},
		{
			name: "high",
			usage: `
              high is the upper altitude of the atmospheric path [m].`,
			defaultVal: 10000.,
			flagsets: []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags(),
				gridCmd.Flags(), atmosphereCmd.Flags()},
		},
		{
			name: "steps",
			usage: `
              steps is the number of altitudes at which the absorption
              spectrum is evaluated when integrating the optical depth.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "quantile",
			usage: `
              quantile specifies which absorption peaks are broadened: only
              peaks larger than this quantile of all peak heights are kept.`,
			defaultVal: radtran.DefaultQuantile,
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "nprocs",
			usage: `
              nprocs is the number of altitudes calculated at once. Values
              less than 1 mean the number of available processors.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "cachesize",
			usage: `
              cachesize is the number of broadened spectra kept in memory.
              Zero disables the cache.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "rayleigh",
			usage: `
              rayleigh specifies whether to also output the Rayleigh
              scattering optical depth of the atmosphere above the
              lower altitude.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{tauCmd.Flags()},
		},
		{
			name: "combined",
			usage: `
              combined specifies whether the gases absorb together on the
              wavenumber grid given by wavemin, wavemax, and nupoints.
              Otherwise each gas is treated separately on its own lines.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags()},
		},
		{
			name: "wavemin",
			usage: `
              wavemin is the lowest wavenumber [cm⁻¹].`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "wavemax",
			usage: `
              wavemax is the highest wavenumber [cm⁻¹].`,
			defaultVal: 4000.,
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "nupoints",
			usage: `
              nupoints is the number of wavenumbers in the combined grid.`,
			defaultVal: 4000,
			flagsets:   []*pflag.FlagSet{fluxCmd.Flags()},
		},
		{
			name: "db",
			usage: `
              db is the path to the SQLite optical depth database.`,
			defaultVal: "optical_depths.sqlite3",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), ingestCmd.Flags()},
		},
		{
			name: "dz",
			usage: `
              dz is the altitude step [m] between layers.`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags(), atmosphereCmd.Flags()},
		},
		{
			name: "temperature",
			usage: `
              temperature [K] selects the cross-section table measured at
              the closest temperature.`,
			defaultVal: radtran.TRef,
			flagsets:   []*pflag.FlagSet{xsecCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path of the NetCDF output file. It can be a
              blob storage location (gs://, s3://, or file://).`,
			shorthand:  "o",
			defaultVal: "radtran.nc",
			flagsets: []*pflag.FlagSet{tauCmd.Flags(), fluxCmd.Flags(), gridCmd.Flags(),
				xsecCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("RADTRAN")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(tauCmd)
	Root.AddCommand(fluxCmd)
	Root.AddCommand(ingestCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(xsecCmd)
	Root.AddCommand(atmosphereCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("radtran: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "radtran",
	Short: "Radiative transfer through a layered atmosphere.",
	Long: `radtran calculates absorption spectra, optical depths, and upward
radiative flux for greenhouse gases in a layered standard atmosphere.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RADTRAN_var' where 'var' is the
name of the variable to be set. Paths may contain environment variables.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of radtran.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("radtran v%s\n", radtran.Version)
	},
	DisableAutoGenTag: true,
}

var tauCmd = &cobra.Command{
	Use:   "tau",
	Short: "Calculate optical depths",
	Long: `tau calculates the optical depth of each gas along the vertical path
between the low and high altitudes and writes the spectra to a NetCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		m, gases, low, high, output, err := pathSetup(ctx)
		if err != nil {
			return err
		}
		return Tau(ctx, m, gases, low, high, Cfg.GetInt("steps"), Cfg.GetBool("rayleigh"), output)
	},
	DisableAutoGenTag: true,
}

var fluxCmd = &cobra.Command{
	Use:   "flux",
	Short: "Calculate the flux leaving an atmospheric path",
	Long: `flux calculates the blackbody flux entering the bottom of the path
between the low and high altitudes and the flux leaving the top after
absorption, and writes the spectra to a NetCDF file. With --combined, the
optical depths of all gases are added on a shared wavenumber grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		m, gases, low, high, output, err := pathSetup(ctx)
		if err != nil {
			return err
		}
		var nu []float64
		if Cfg.GetBool("combined") {
			if nu, err = waveGrid(Cfg); err != nil {
				return err
			}
		}
		return Flux(ctx, m, gases, nu, low, high, Cfg.GetInt("steps"), output)
	},
	DisableAutoGenTag: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add optical depths to the database",
	Long: `ingest calculates the optical depth of each gas in layers of thickness
dz between the low and high altitudes and adds them to the optical depth
database, which is created if it does not exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		low, high, err := checkPath(Cfg)
		if err != nil {
			return err
		}
		m, err := newModel(Cfg)
		if err != nil {
			return err
		}
		gases, err := loadGases(ctx, Cfg)
		if err != nil {
			return err
		}
		return Ingest(ctx, m, gases, os.ExpandEnv(Cfg.GetString("db")), low, high,
			Cfg.GetFloat64("dz"), Cfg.GetInt("steps"))
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Calculate upward flux on an altitude × wavenumber grid",
	Long: `grid reads the optical depths of the given gases between the low and
high altitudes and the wavenumber range from the optical depth database,
calculates the upward flux reaching the top of each layer, and writes it to
a NetCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		low, high, err := checkPath(Cfg)
		if err != nil {
			return err
		}
		wr, err := waveRange(Cfg)
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("output"))
		if err != nil {
			return err
		}
		m, err := newModel(Cfg)
		if err != nil {
			return err
		}
		dbPath, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("db")))
		if err != nil {
			return err
		}
		return Grid(ctx, m, dbPath, gasNames(Cfg), [2]float64{low, high}, wr, output)
	},
	DisableAutoGenTag: true,
}

var xsecCmd = &cobra.Command{
	Use:   "xsec name pattern",
	Short: "Select a cross-section table by temperature",
	Long: `xsec reads the cross-section tables of the named gas from the files
matching pattern, selects the table measured closest to the given
temperature, and writes it to a NetCDF file along with the Rayleigh
scattering cross section.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := checkOutputFile(Cfg.GetString("output"))
		if err != nil {
			return err
		}
		return CrossSection(context.Background(), os.ExpandEnv(args[1]), args[0],
			Cfg.GetFloat64("temperature"), output)
	},
	DisableAutoGenTag: true,
}

var atmosphereCmd = &cobra.Command{
	Use:   "atmosphere",
	Short: "Print the standard atmosphere",
	Long: `atmosphere prints the temperature, pressure, and density of the
standard atmosphere between the low and high altitudes in steps of dz.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		low, high, err := checkPath(Cfg)
		if err != nil {
			return err
		}
		return Atmosphere(cmd.OutOrStdout(), low, high, Cfg.GetFloat64("dz"))
	},
	DisableAutoGenTag: true,
}

// pathSetup reads the options shared by commands that integrate along
// an atmospheric path.
func pathSetup(ctx context.Context) (m *radtran.Model, gases []*radtran.GasSpectrum, low, high float64, output string, err error) {
	if low, high, err = checkPath(Cfg); err != nil {
		return
	}
	if output, err = checkOutputFile(Cfg.GetString("output")); err != nil {
		return
	}
	if m, err = newModel(Cfg); err != nil {
		return
	}
	gases, err = loadGases(ctx, Cfg)
	return
}
