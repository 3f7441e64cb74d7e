// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package astro

import (
	"github.com/golang/geo/s2"
)

// AngularDistance returns the great-circle separation in radians between two
// horizon directions given in degrees. It uses the haversine formula and
// lies in [0, π].
func AngularDistance(az1, alt1, az2, alt2 float64) float64 {
	// Canonical argument order keeps the result bit-for-bit symmetric.
	if alt2 < alt1 || (alt2 == alt1 && az2 < az1) {
		az1, alt1, az2, alt2 = az2, alt2, az1, alt1
	}
	a := s2.LatLngFromDegrees(alt1, az1)
	b := s2.LatLngFromDegrees(alt2, az2)
	return a.Distance(b).Radians()
}
