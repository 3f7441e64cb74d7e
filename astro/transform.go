// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package astro converts between equatorial and horizontal coordinates and
// projects horizon directions onto the unit sphere.

package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

var ErrInvalidObserver = errors.New("astro: invalid observer position")

// Observer is a geographic site. Longitude is east positive, in degrees.
// Elevation is in meters and does not affect the transforms.
type Observer struct {
	Latitude  float64
	Longitude float64
	Elevation float64
}

// Validate reports ErrInvalidObserver for non-finite coordinates or a
// latitude outside [-90, 90].
func (o Observer) Validate() error {
	if !finite(o.Latitude) || !finite(o.Longitude) || !finite(o.Elevation) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidObserver)
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90 90]", ErrInvalidObserver, o.Latitude)
	}
	return nil
}

// longitude folds values above 180 into (-180, 180].
func (o Observer) longitude() float64 {
	if o.Longitude > 180 {
		return o.Longitude - 360
	}
	return o.Longitude
}

// When is either an absolute instant or a precomputed local sidereal time.
type When struct {
	t        time.Time
	lst      float64
	sidereal bool
}

// At evaluates sidereal time from the instant t.
func At(t time.Time) When {
	return When{t: t}
}

// AtSiderealTime uses lst (hours) as the local sidereal time directly.
func AtSiderealTime(lst float64) When {
	return When{lst: lst, sidereal: true}
}

// IsSidereal reports whether w carries a local sidereal time instead of an
// instant.
func (w When) IsSidereal() bool {
	return w.sidereal
}

// Time returns the instant of w, zero for AtSiderealTime.
func (w When) Time() time.Time {
	return w.t
}

// LocalSiderealTime returns the local sidereal time in hours, [0, 24).
func (w When) LocalSiderealTime(longitude float64) float64 {
	if w.sidereal {
		return Range24(w.lst)
	}
	return LocalSiderealTime(w.t, longitude)
}

// HorizontalFromEquatorial converts ra (hours) and dec (degrees) into
// altitude and azimuth (degrees). Azimuth is measured from north through
// east, in [0, 360).
func HorizontalFromEquatorial(ra, dec float64, w When, obs Observer) (alt, az float64, err error) {
	if err := obs.Validate(); err != nil {
		return 0, 0, err
	}
	lst := w.LocalSiderealTime(obs.longitude())
	ha := toRad((lst - ra) * 15)
	lat := toRad(obs.Latitude)
	d := toRad(dec)

	sinAlt := math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(ha)
	// Rounding pushes sinAlt past 1 at the zenith.
	a := math.Asin(clamp(sinAlt))
	y := -math.Cos(d) * math.Sin(ha)
	x := math.Sin(d)*math.Cos(lat) - math.Cos(d)*math.Sin(lat)*math.Cos(ha)

	return toDeg(a), Range360(toDeg(math.Atan2(y, x))), nil
}

// EquatorialFromHorizontal is the inverse of HorizontalFromEquatorial.
// It returns ra in hours [0, 24) and dec in degrees.
func EquatorialFromHorizontal(alt, az float64, w When, obs Observer) (ra, dec float64, err error) {
	if err := obs.Validate(); err != nil {
		return 0, 0, err
	}
	lst := w.LocalSiderealTime(obs.longitude())
	lat := toRad(obs.Latitude)
	a := toRad(alt)
	z := toRad(az)

	sinDec := math.Sin(a)*math.Sin(lat) + math.Cos(a)*math.Cos(lat)*math.Cos(z)
	d := math.Asin(clamp(sinDec))
	y := -math.Sin(z) * math.Cos(a)
	x := math.Sin(a)*math.Cos(lat) - math.Cos(a)*math.Sin(lat)*math.Cos(z)
	ha := toDeg(math.Atan2(y, x)) / 15

	return Range24(lst - ha), toDeg(d), nil
}

// HorizonVector projects a horizon direction onto the unit sphere using the
// hour-angle-like convention h = 180 - az, so that x points south.
func HorizonVector(alt, az float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(alt, Range360(-180-az)))
}

// JulianDate returns the Julian Date of t.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// GreenwichSiderealTime returns the mean sidereal time at Greenwich in hours
// (IAU 1982).
func GreenwichSiderealTime(t time.Time) float64 {
	return Range24(sidereal.Mean(JulianDate(t)).Hour())
}

// LocalSiderealTime returns the local mean sidereal time in hours for an
// east-positive longitude in degrees.
func LocalSiderealTime(t time.Time, longitude float64) float64 {
	return Range24(GreenwichSiderealTime(t) + longitude/15)
}

func Range360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func Range24(h float64) float64 {
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	if h >= 24 {
		h = 0
	}
	return h
}

func toRad(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

func toDeg(rad float64) float64 {
	return s1.Angle(rad).Degrees()
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
