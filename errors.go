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
	"strings"
)

// FormatError is returned when a source table is malformed or incomplete.
type FormatError struct {
	Source string // file name or other description of the input
	Reason string
}

func (e FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("radtran: format error: %s", e.Reason)
	}
	return fmt.Sprintf("radtran: format error in %s: %s", e.Source, e.Reason)
}

// NotFoundError is returned when a named gas or identifier does not exist.
type NotFoundError struct {
	Kind string // e.g. "gas"
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("radtran: %s %q not found", e.Kind, e.Name)
}

// RangeError is returned when a numeric argument is outside of its
// allowed range, for example when the lower altitude of a path is not
// below the upper altitude.
type RangeError struct {
	Param  string
	Reason string
}

func (e RangeError) Error() string {
	return fmt.Sprintf("radtran: invalid %s: %s", e.Param, e.Reason)
}

// EmptyResultError is returned when a query window contains no data.
// It is recoverable: the caller can widen the window and try again.
type EmptyResultError struct {
	Gas                string
	AltRange, WaveRange [2]float64
}

func (e EmptyResultError) Error() string {
	return fmt.Sprintf("radtran: no optical depths for %s in altitude range %v and wavenumber range %v",
		e.Gas, e.AltRange, e.WaveRange)
}

// BatchError holds the failures of a batch operation, keyed by item name.
// Items that are not present in the map succeeded.
type BatchError map[string]error

func (e BatchError) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fmt.Sprintf("%s: %v", k, e[k])
	}
	return fmt.Sprintf("radtran: %d item(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

// errOrNil returns nil if e is empty.
func (e BatchError) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
