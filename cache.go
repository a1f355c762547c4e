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
	"context"
	"fmt"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/seancraven/radtran/internal/hash"
)

// BroadeningCache memoizes broadened spectra by gas contents, altitude,
// and quantile. It is safe for concurrent use.
type BroadeningCache struct {
	c    *requestcache.Cache
	keys sync.Map // *GasSpectrum -> content key
}

type broadenRequest struct {
	m        *Model
	g        *GasSpectrum
	altitude float64
	quantile float64
}

// EnableCache makes m keep up to size broadened spectra in memory, so
// that repeated calls to Tau for the same gas and altitudes do not
// broaden the spectrum again. Gases are identified by their line
// parameters, which must not change after the gas is first used.
// EnableCache should be called before the model is used.
func (m *Model) EnableCache(size int) {
	m.cache = &BroadeningCache{
		c: requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(broadenRequest)
			return r.m.Broaden(r.g, r.altitude, r.quantile)
		}, m.nprocs(), requestcache.Deduplicate(), requestcache.Memory(size)),
	}
}

// broadened returns the broadened spectrum of g at altitude, using the
// cache if one is enabled. The result must not be modified.
func (m *Model) broadened(ctx context.Context, g *GasSpectrum, altitude float64) ([]float64, error) {
	if m.cache == nil {
		return m.Broaden(g, altitude, m.Quantile)
	}
	req := m.cache.c.NewRequest(ctx,
		broadenRequest{m: m, g: g, altitude: altitude, quantile: m.Quantile},
		fmt.Sprintf("%s_%g_%g", m.cache.gasKey(g), altitude, m.Quantile),
	)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

// gasKey returns the content key of g, computing it on first use.
func (c *BroadeningCache) gasKey(g *GasSpectrum) string {
	if k, ok := c.keys.Load(g); ok {
		return k.(string)
	}
	k := hash.Columns(g.Name, g.Nu, g.Strength, g.GammaAir, g.GammaSelf, g.NAir,
		[]float64{g.RelativeAtomicMass, g.PPM})
	c.keys.Store(g, k)
	return k
}
