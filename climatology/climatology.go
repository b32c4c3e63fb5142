// Copyright ©2025 The HARP-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package climatology is an auxiliary, NetCDF-backed implementation of the
// engine's get_profile collaborator (spec.md §4.5): it resolves a
// species/latitude/time request to a fixed-length vertical profile, for use
// when a product carries no measured profile of its own. It is kept out of
// the core harp package so that package never performs file I/O directly;
// callers wire it in via harp.RegisterClimatologyRules.
//
// Grounded on sr/srreader.go's cdf.Open/Reader/Zero/Read access pattern.
package climatology

import (
	"fmt"
	"sort"

	"github.com/ctessum/cdf"
)

// Source is a NetCDF climatology file containing one profile variable per
// species, each shaped [latitude_band, level], plus a 1-D "latitude_band"
// coordinate giving one reference latitude per band in degrees; a request
// is served from the band whose reference latitude is nearest.
type Source struct {
	file    *cdf.File
	bands   []float64
	profile map[string][][]float64 // species -> [band][level]
}

// Open reads the full contents of rw's climatology file into memory. These
// files are small (a handful of bands by a few dozen levels per species) so
// there is no benefit to lazy per-request reads.
func Open(rw cdf.ReaderWriterAt, species []string) (*Source, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("climatology: opening source: %w", err)
	}
	s := &Source{file: f, profile: make(map[string][][]float64)}

	bands, err := s.readFullVar64("latitude_band")
	if err != nil {
		return nil, fmt.Errorf("climatology: reading latitude_band: %w", err)
	}
	s.bands = bands

	for _, sp := range species {
		lengths := f.Header.Lengths(sp)
		if len(lengths) != 2 {
			return nil, fmt.Errorf("climatology: variable %q has %d dimensions, want 2", sp, len(lengths))
		}
		flat, err := s.readFullVar64(sp)
		if err != nil {
			return nil, fmt.Errorf("climatology: reading %q: %w", sp, err)
		}
		nBands, nLevels := lengths[0], lengths[1]
		rows := make([][]float64, nBands)
		for b := 0; b < nBands; b++ {
			rows[b] = flat[b*nLevels : (b+1)*nLevels]
		}
		s.profile[sp] = rows
	}
	return s, nil
}

func (s *Source) readFullVar64(name string) ([]float64, error) {
	r := s.file.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	out, ok := buf.([]float64)
	if !ok {
		return nil, fmt.Errorf("variable %q is not stored as float64", name)
	}
	return out, nil
}

// Profile returns the species profile for the latitude band nearest lat,
// resampled (by nearest-neighbour) to length if it differs from the
// stored level count. datetimeDays is accepted for interface symmetry with
// harp.ClimatologyLookup; this Source carries no seasonal variation.
func (s *Source) Profile(species string, lat, datetimeDays float64, length int) ([]float64, error) {
	rows, ok := s.profile[species]
	if !ok {
		return nil, fmt.Errorf("climatology: no profile for species %q", species)
	}
	band := nearestBand(s.bands, lat)
	row := rows[band]
	if len(row) == length {
		out := make([]float64, length)
		copy(out, row)
		return out, nil
	}
	return resample(row, length), nil
}

func nearestBand(bands []float64, lat float64) int {
	best, bestDist := 0, -1.0
	for i, b := range bands {
		d := b - lat
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// resample maps row onto a profile of length n using nearest-source-index
// selection; climatology profiles are coarse enough that linear
// interpolation would not materially change the result.
func resample(row []float64, n int) []float64 {
	out := make([]float64, n)
	if len(row) == 0 || n == 0 {
		return out
	}
	for i := range out {
		src := i * len(row) / n
		out[i] = row[src]
	}
	return out
}

// Species returns the sorted list of species this source has a profile
// for.
func (s *Source) Species() []string {
	names := make([]string, 0, len(s.profile))
	for k := range s.profile {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
