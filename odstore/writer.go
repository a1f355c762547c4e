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

package odstore

import (
	"context"
	"fmt"

	"github.com/seancraven/radtran"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS gases (
	mol_id INTEGER PRIMARY KEY,
	mol_name TEXT UNIQUE NOT NULL
);
CREATE TABLE IF NOT EXISTS optical_depths (
	altitude REAL NOT NULL,
	wave_no REAL NOT NULL,
	optical_depth REAL NOT NULL,
	mol_id INTEGER NOT NULL REFERENCES gases(mol_id)
);
CREATE INDEX IF NOT EXISTS optical_depths_lookup ON optical_depths (mol_id, altitude, wave_no);
`

// CreateSchema creates the database tables if they do not already exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("odstore: creating tables: %w", err)
	}
	return nil
}

// AddGas adds a gas to the database, if it is not already there, and
// returns its identifier.
func (s *Store) AddGas(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, radtran.RangeError{Param: "gas name", Reason: "must not be empty"}
	}
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO gases (mol_name) VALUES (?)", name); err != nil {
		return 0, fmt.Errorf("odstore: adding gas %s: %w", name, err)
	}
	return s.GasID(ctx, name)
}

// Record is one optical depth in the database.
type Record struct {
	Altitude     float64 // [m]
	WaveNumber   float64 // [cm⁻¹]
	OpticalDepth float64
}

// Insert adds records for the named gas, which is added to the
// database if necessary. All records are inserted in a single
// transaction: if any fails, none are inserted.
func (s *Store) Insert(ctx context.Context, gas string, records []Record) (err error) {
	id, err := s.AddGas(ctx, gas)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("odstore: inserting %s: %w", gas, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO optical_depths (altitude, wave_no, optical_depth, mol_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("odstore: inserting %s: %w", gas, err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.Altitude, r.WaveNumber, r.OpticalDepth, id); err != nil {
			return fmt.Errorf("odstore: inserting %s: %w", gas, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("odstore: inserting %s: %w", gas, err)
	}
	s.resetCache()
	s.Log.WithFields(logrus.Fields{"gas": gas, "rows": len(records)}).Info("odstore: inserted optical depths")
	return nil
}

// Delete removes all records of the named gas.
func (s *Store) Delete(ctx context.Context, gas string) error {
	id, err := s.GasID(ctx, gas)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM optical_depths WHERE mol_id = ?", id); err != nil {
		return fmt.Errorf("odstore: deleting %s: %w", gas, err)
	}
	s.resetCache()
	return nil
}

// Ingest calculates the optical depth of g in each layer between
// consecutive altitudes in layers [m], which must be increasing,
// and inserts them into the store. Each layer's optical depths are
// stored at the altitude of the middle of the layer, so that a Fetch
// with an altitude range spanning the layer boundaries returns them.
// steps is the number of integration steps in each layer
// (see radtran.Model.Tau).
func Ingest(ctx context.Context, s *Store, m *radtran.Model, g *radtran.GasSpectrum, layers []float64, steps int) error {
	if len(layers) < 2 {
		return radtran.RangeError{Param: "layers", Reason: "at least 2 altitudes are required"}
	}
	var records []Record
	for i := 0; i < len(layers)-1; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tau, err := m.Tau(g, layers[i], layers[i+1], steps)
		if err != nil {
			return err
		}
		mid := (layers[i] + layers[i+1]) / 2
		for j, nu := range g.Nu {
			records = append(records, Record{Altitude: mid, WaveNumber: nu, OpticalDepth: tau[j]})
		}
		s.Log.WithFields(logrus.Fields{"gas": g.Name, "altitude": mid}).Debug("odstore: calculated layer")
	}
	return s.Insert(ctx, g.Name, records)
}
