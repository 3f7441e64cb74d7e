// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils generates reproducible random unit points and alignment
// samples for tests and examples.

package utils

import (
	"math"
	"math/rand"

	"github.com/2dChan/s2align/alignfile"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// GenerateRandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	sites := make(s2.PointVector, cnt)

	for i := range cnt {
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle((random.Float64() - 0.5) * math.Pi),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}

	return sites
}

// GenerateRandomSamples generates alignment samples spread over the sky
// north of minDec, captured at local sidereal time lst. Telescope
// coordinates are offset from the catalog ones by at most maxError degrees.
func GenerateRandomSamples(cnt int, seed int64, lst, minDec, maxError float64) []alignfile.Sample {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	samples := make([]alignfile.Sample, cnt)

	for i := range cnt {
		ra := random.Float64() * 24
		dec := minDec + random.Float64()*(90-minDec)
		samples[i] = alignfile.Sample{
			SyncTime:     lst,
			CelestialRA:  ra,
			CelestialDec: dec,
			TelescopeRA:  math.Mod(ra+(random.Float64()*2-1)*maxError/15+24, 24),
			TelescopeDec: math.Max(-90, math.Min(90, dec+(random.Float64()*2-1)*maxError)),
		}
	}

	return samples
}
