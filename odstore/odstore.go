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

// Package odstore reads and writes precomputed optical depths in an
// SQLite database.
//
// The database has two tables:
//
//	gases(mol_id INTEGER PRIMARY KEY, mol_name TEXT UNIQUE)
//	optical_depths(altitude REAL, wave_no REAL, optical_depth REAL, mol_id INTEGER)
//
// where altitude is in meters and wave_no is in cm⁻¹.
package odstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/cenkalti/backoff"
	"github.com/ctessum/requestcache"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/seancraven/radtran"
	"github.com/seancraven/radtran/internal/hash"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// DefaultCacheSize is the number of query results a Store keeps in memory.
const DefaultCacheSize = 100

// Store is an optical depth database. It implements radtran.DepthSource
// and is safe for concurrent use.
type Store struct {
	db *sql.DB

	// Log receives messages about queries. It defaults to the
	// logrus standard logger.
	Log logrus.FieldLogger

	// CacheSize specifies the number of query results that are kept
	// in memory. It must be set before the first call to Fetch.
	CacheSize int

	mu    sync.Mutex
	cache *requestcache.Cache
}

// connectRetries is the number of times opening a database is retried,
// for example while another process holds a lock on it.
const connectRetries = 5

// Open opens the existing database at path.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("odstore: opening database: %w", err)
	}
	return connect(path)
}

// Create opens the database at path, creating it if it does not exist,
// and makes sure that its tables exist.
func Create(ctx context.Context, path string) (*Store, error) {
	s, err := connect(path)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func connect(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("odstore: opening database: %w", err)
	}
	err = backoff.Retry(db.Ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("odstore: connecting to %s: %w", path, err)
	}
	return New(db), nil
}

// New returns a Store that uses db, which must be an SQLite database
// (or compatible) containing the tables described in the package
// documentation.
func New(db *sql.DB) *Store {
	return &Store{
		db:        db,
		Log:       logrus.StandardLogger(),
		CacheSize: DefaultCacheSize,
	}
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// GasID returns the identifier of the named gas. A radtran.NotFoundError
// is returned if the gas is not in the database.
func (s *Store) GasID(ctx context.Context, gas string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT mol_id FROM gases WHERE mol_name = ?", gas).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, radtran.NotFoundError{Kind: "gas", Name: gas}
	} else if err != nil {
		return 0, fmt.Errorf("odstore: looking up gas %s: %w", gas, err)
	}
	return id, nil
}

// Gases returns the names of the gases in the database, in order.
func (s *Store) Gases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT mol_name FROM gases ORDER BY mol_name")
	if err != nil {
		return nil, fmt.Errorf("odstore: listing gases: %w", err)
	}
	defer rows.Close()
	var o []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("odstore: listing gases: %w", err)
		}
		o = append(o, name)
	}
	return o, rows.Err()
}

type fetchRequest struct {
	Gas                 string
	AltRange, WaveRange [2]float64
}

// Fetch returns the optical depths of the named gas at altitudes [m]
// strictly between altRange[0] and altRange[1] and wavenumbers [cm⁻¹]
// between waveRange[0] and waveRange[1], inclusive. Wavenumbers are
// rounded to the nearest integer (ties to even) and the optical depths
// in each integer bin are averaged.
//
// If no records match, an empty table is returned without error.
// Every altitude must have records in the same set of bins; otherwise
// a radtran.FormatError is returned.
//
// Results are cached (see CacheSize); callers must not modify them.
func (s *Store) Fetch(ctx context.Context, gas string, altRange, waveRange [2]float64) (*radtran.DepthTable, error) {
	if !(altRange[0] < altRange[1]) {
		return nil, radtran.RangeError{Param: "altitude range", Reason: fmt.Sprintf("%v is empty", altRange)}
	}
	if !(waveRange[0] <= waveRange[1]) {
		return nil, radtran.RangeError{Param: "wavenumber range", Reason: fmt.Sprintf("%v is empty", waveRange)}
	}
	r := fetchRequest{Gas: gas, AltRange: altRange, WaveRange: waveRange}
	req := s.fetchCache().NewRequest(ctx, r, hash.Hash(r))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*radtran.DepthTable), nil
}

func (s *Store) fetchCache() *requestcache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(fetchRequest)
			return s.fetch(ctx, r.Gas, r.AltRange, r.WaveRange)
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(s.CacheSize))
	}
	return s.cache
}

// resetCache discards cached query results.
func (s *Store) resetCache() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Store) fetch(ctx context.Context, gas string, altRange, waveRange [2]float64) (*radtran.DepthTable, error) {
	id, err := s.GasID(ctx, gas)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT altitude, wave_no, optical_depth FROM optical_depths
WHERE mol_id = ? AND (wave_no BETWEEN ? AND ?) AND altitude > ? AND altitude < ?`,
		id, waveRange[0], waveRange[1], altRange[0], altRange[1])
	if err != nil {
		return nil, fmt.Errorf("odstore: querying %s: %w", gas, err)
	}
	defer rows.Close()

	type column struct{ bins, values []float64 }
	byAlt := make(map[float64]*column)
	n := 0
	for rows.Next() {
		var alt, wave, od float64
		if err := rows.Scan(&alt, &wave, &od); err != nil {
			return nil, fmt.Errorf("odstore: reading %s: %w", gas, err)
		}
		c, ok := byAlt[alt]
		if !ok {
			c = new(column)
			byAlt[alt] = c
		}
		c.bins = append(c.bins, math.RoundToEven(wave))
		c.values = append(c.values, od)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("odstore: reading %s: %w", gas, err)
	}

	t := &radtran.DepthTable{Depths: make(map[float64][]float64, len(byAlt))}
	for alt := range byAlt {
		t.Altitudes = append(t.Altitudes, alt)
	}
	sort.Float64s(t.Altitudes)
	for i, alt := range t.Altitudes {
		c := byAlt[alt]
		bins, means := IntegerBinMeans(c.bins, c.values)
		if i == 0 {
			t.WaveNumbers = bins
		} else if !sameBins(t.WaveNumbers, bins) {
			return nil, radtran.FormatError{Source: gas,
				Reason: fmt.Sprintf("altitude %g m has %d wavenumber bins but altitude %g m has %d",
					alt, len(bins), t.Altitudes[0], len(t.WaveNumbers))}
		}
		t.Depths[alt] = means
	}
	s.Log.WithFields(logrus.Fields{
		"gas":       gas,
		"rows":      n,
		"altitudes": len(t.Altitudes),
		"bins":      len(t.WaveNumbers),
	}).Debug("odstore: fetched optical depths")
	return t, nil
}

// IntegerBinMeans groups values by their bin, which should already be
// rounded to integers, and returns the distinct bins in increasing order
// along with the mean of the values in each bin.
// IntegerBinMeans panics if bins and values have different lengths.
func IntegerBinMeans(bins, values []float64) ([]float64, []float64) {
	if len(bins) != len(values) {
		panic(fmt.Errorf("odstore: %d bins but %d values", len(bins), len(values)))
	}
	idx := make([]int, len(bins))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return bins[idx[i]] < bins[idx[j]] })

	outBins := make([]float64, 0)
	means := make([]float64, 0)
	var group []float64
	flush := func() {
		if len(group) > 0 {
			means = append(means, stat.Mean(group, nil))
			group = group[:0]
		}
	}
	for k, i := range idx {
		if k == 0 || bins[i] != bins[idx[k-1]] {
			flush()
			outBins = append(outBins, bins[i])
		}
		group = append(group, values[i])
	}
	flush()
	return outBins, means
}

func sameBins(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
