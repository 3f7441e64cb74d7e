// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2align

import (
	"math"
	"slices"
	"testing"

	"github.com/2dChan/s2align/astro"
	"github.com/2dChan/s2align/utils"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/google/go-cmp/cmp"
)

func TestPointSet_FindFace_Scenario(t *testing.T) {
	ps := mustNew(t, WithObserver(testSite))
	var keys []s2.CellID
	for _, s := range squareSamples() {
		keys = append(keys, mustAddPoint(t, ps, s).Key)
	}

	if got := ps.NumPoints(); got != 4 {
		t.Errorf("ps.NumPoints() = %v, want 4", got)
	}
	if got := ps.NumFaces(); got < 2 {
		t.Errorf("ps.NumFaces() = %v, want >= 2", got)
	}

	f, ok := ps.FindFace(3, 60, astro.AtSiderealTime(0), nil, Celestial)
	if !ok {
		t.Fatalf("ps.FindFace(3, 60, ...) ok = false, want true")
	}
	for _, k := range f {
		if !slices.Contains(keys, k) {
			t.Errorf("face %v references key %v not inserted", f, k)
		}
	}

	// Declination 45 at 3h lies on the circle through the points, outside
	// the chord between 0h and 6h.
	if f, ok := ps.FindFace(3, 45, astro.AtSiderealTime(0), nil, Celestial); ok {
		t.Errorf("ps.FindFace(3, 45, ...) = %v, true, want false", f)
	}
}

func TestPointSet_FindFace_Containment(t *testing.T) {
	ps := mustNew(t, WithObserver(testSite))
	for _, s := range squareSamples() {
		mustAddPoint(t, ps, s)
	}
	faces := ps.Faces()
	if len(faces) != 2 {
		t.Fatalf("len(ps.Faces()) = %v, want 2", len(faces))
	}

	var all r3.Vector
	for i, f := range faces {
		var c r3.Vector
		for _, k := range f {
			p, _ := ps.Point(k)
			c = c.Add(p.Celestial.Vector)
			all = all.Add(p.Celestial.Vector)
		}
		ra, dec := equatorialOf(t, s2.Point{Vector: c.Normalize()})
		got, ok := ps.FindFace(ra, dec, astro.AtSiderealTime(0), nil, Celestial)
		if !ok {
			t.Errorf("centroid of faces[%d]: ok = false, want true", i)
			continue
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Errorf("centroid of faces[%d] mismatch (-want +got):\n%s", i, diff)
		}
	}

	ra, dec := equatorialOf(t, s2.Point{Vector: all.Mul(-1).Normalize()})
	if f, ok := ps.FindFace(ra, dec, astro.AtSiderealTime(0), nil, Celestial); ok {
		t.Errorf("antipode: ps.FindFace(%v, %v, ...) = %v, true, want false", ra, dec, f)
	}
}

func TestPointSet_FindFace_SkyPatch(t *testing.T) {
	ps := mustNew(t, WithObserver(testSite))
	for _, s := range utils.GenerateRandomSamples(40, 7, 0, 10, 0.5) {
		mustAddPoint(t, ps, s)
	}
	if got, want := ps.NumFaces(), 2*ps.NumPoints()-4; got != want {
		t.Fatalf("ps.NumFaces() = %v, want %v", got, want)
	}

	var center r3.Vector
	for _, p := range ps.Points() {
		center = center.Add(p.Celestial.Vector)
	}
	center = center.Normalize()

	// Vertices sharing an outward face.
	adjacent := make(map[s2.CellID]map[s2.CellID]bool)
	for _, f := range ps.Faces() {
		if faceOrientation(ps, f) <= 0 {
			continue
		}
		for _, a := range f {
			if adjacent[a] == nil {
				adjacent[a] = make(map[s2.CellID]bool)
			}
			for _, b := range f {
				adjacent[a][b] = true
			}
		}
	}

	for _, p := range ps.Points() {
		v := p.Celestial.Vector
		target := s2.Point{Vector: v.Add(center.Sub(v).Mul(1e-3)).Normalize()}
		ra, dec := equatorialOf(t, target)

		f, ok := ps.FindFace(ra, dec, astro.AtSiderealTime(0), nil, Celestial)
		if !ok {
			t.Errorf("near point %d: ps.FindFace(%v, %v, ...) ok = false, want true", p.Index, ra, dec)
			continue
		}
		if o := faceOrientation(ps, f); o <= 0 {
			t.Errorf("near point %d: face %v orientation = %v, want > 0", p.Index, f, o)
		}
		local := false
		for _, k := range f {
			if adjacent[p.Key][k] {
				local = true
			}
		}
		if !local {
			t.Errorf("near point %d: face %v has no vertex sharing a face with %v", p.Index, f, p.Key)
		}
	}
}

func TestPointSet_FindFace_Cache(t *testing.T) {
	rec := &countingRecorder{}
	ps := mustNew(t, WithObserver(testSite), WithRecorder(rec))
	for _, s := range squareSamples() {
		mustAddPoint(t, ps, s)
	}
	when := astro.AtSiderealTime(0)

	first, ok := ps.FindFace(3, 60, when, nil, Celestial)
	if !ok {
		t.Fatalf("ps.FindFace(3, 60, ...) ok = false, want true")
	}
	second, ok := ps.FindFace(3.1, 61, when, nil, Celestial)
	if !ok {
		t.Fatalf("ps.FindFace(3.1, 61, ...) ok = false, want true")
	}
	if first != second {
		t.Errorf("successive faces = %v, %v, want equal", first, second)
	}
	if cur, ok := ps.CurrentFace(); !ok || cur != first {
		t.Errorf("ps.CurrentFace() = %v, %v, want %v, true", cur, ok, first)
	}

	if len(rec.lookups) != 2 {
		t.Fatalf("len(lookups) = %v, want 2", len(rec.lookups))
	}
	if got := rec.lookups[0]; got.outcome != LookupScan || got.scanned < 1 {
		t.Errorf("lookups[0] = %+v, want scan of at least one face", got)
	}
	if diff := cmp.Diff(lookup{LookupCache, 0}, rec.lookups[1], cmp.AllowUnexported(lookup{})); diff != "" {
		t.Errorf("lookups[1] mismatch (-want +got):\n%s", diff)
	}

	other, ok := ps.FindFace(15, 60, when, nil, Celestial)
	if !ok || other == first {
		t.Errorf("ps.FindFace(15, 60, ...) = %v, %v, want a face other than %v", other, ok, first)
	}
	if got := rec.lookups[2].outcome; got != LookupScan {
		t.Errorf("lookups[2].outcome = %v, want %v", got, LookupScan)
	}

	if _, ok := ps.FindFace(3, 45, when, nil, Celestial); ok {
		t.Errorf("ps.FindFace(3, 45, ...) ok = true, want false")
	}
	if diff := cmp.Diff(lookup{LookupMiss, 2}, rec.lookups[3], cmp.AllowUnexported(lookup{})); diff != "" {
		t.Errorf("lookups[3] mismatch (-want +got):\n%s", diff)
	}
	if _, ok := ps.CurrentFace(); ok {
		t.Errorf("ps.CurrentFace() ok = true after miss, want false")
	}
}

func TestPointSet_FindFace_CacheClearedByAddPoint(t *testing.T) {
	ps := mustNew(t, WithObserver(testSite))
	for _, s := range squareSamples() {
		mustAddPoint(t, ps, s)
	}
	if _, ok := ps.FindFace(3, 60, astro.AtSiderealTime(0), nil, Celestial); !ok {
		t.Fatalf("ps.FindFace(3, 60, ...) ok = false, want true")
	}
	mustAddPoint(t, ps, sample(3, 10))
	if _, ok := ps.CurrentFace(); ok {
		t.Errorf("ps.CurrentFace() ok = true after AddPoint, want false")
	}
}

func TestPointSet_FindFace_FewPoints(t *testing.T) {
	rec := &countingRecorder{}
	ps := mustNew(t, WithObserver(testSite), WithRecorder(rec))
	mustAddPoint(t, ps, sample(0, 45))
	mustAddPoint(t, ps, sample(6, 45))

	if f, ok := ps.FindFace(3, 60, astro.AtSiderealTime(0), nil, Celestial); ok {
		t.Errorf("ps.FindFace(...) = %v, true, want false", f)
	}
	if diff := cmp.Diff([]lookup{{LookupMiss, 0}}, rec.lookups, cmp.AllowUnexported(lookup{})); diff != "" {
		t.Errorf("lookups mismatch (-want +got):\n%s", diff)
	}
}

func TestPointSet_FindFace_NoObserver(t *testing.T) {
	ps := mustNew(t)
	if f, ok := ps.FindFace(3, 60, astro.AtSiderealTime(0), nil, Celestial); ok {
		t.Errorf("ps.FindFace(...) = %v, true, want false", f)
	}
}

func TestPointSet_FindFace_Frame(t *testing.T) {
	ps := mustNew(t, WithObserver(testSite))
	for _, s := range squareSamples() {
		s.TelescopeRA = math.Mod(s.CelestialRA+3, 24)
		mustAddPoint(t, ps, s)
	}

	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"celestial", Celestial, true},
		{"telescope", Telescope, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ps.FindFace(0.5, 50, astro.AtSiderealTime(0), nil, tt.frame)
			if ok != tt.want {
				t.Errorf("ps.FindFace(0.5, 50, ..., %v) ok = %v, want %v", tt.frame, ok, tt.want)
			}
		})
	}
}

func TestConeContains(t *testing.T) {
	a := r3.Vector{X: 1}
	b := r3.Vector{Y: 1}
	c := r3.Vector{Z: 1}
	tests := []struct {
		name   string
		target r3.Vector
		face   [3]r3.Vector
		want   bool
	}{
		{"inside", r3.Vector{X: 1, Y: 1, Z: 1}, [3]r3.Vector{a, b, c}, true},
		{"inward face", r3.Vector{X: 1, Y: 1, Z: 1}, [3]r3.Vector{a, c, b}, false},
		{"antipode", r3.Vector{X: -1, Y: -1, Z: -1}, [3]r3.Vector{a, b, c}, false},
		{"antipode inward face", r3.Vector{X: -1, Y: -1, Z: -1}, [3]r3.Vector{a, c, b}, false},
		{"outside", r3.Vector{X: 1, Y: -1, Z: 0.1}, [3]r3.Vector{a, b, c}, false},
		{"vertex", a, [3]r3.Vector{a, b, c}, true},
		{"edge", r3.Vector{X: 1, Y: 1}, [3]r3.Vector{a, b, c}, true},
		{"degenerate face", r3.Vector{X: 1, Y: 1}, [3]r3.Vector{a, a, b}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coneContains(tt.target, tt.face); got != tt.want {
				t.Errorf("coneContains(%v, %v) = %v, want %v", tt.target, tt.face, got, tt.want)
			}
		})
	}
}

// Helpers

type lookup struct {
	outcome string
	scanned int
}

type countingRecorder struct {
	points, faces int
	lookups       []lookup
}

func (r *countingRecorder) RecordPoints(points, faces int) {
	r.points, r.faces = points, faces
}

func (r *countingRecorder) RecordLookup(outcome string, scanned int) {
	r.lookups = append(r.lookups, lookup{outcome, scanned})
}

func faceOrientation(ps *PointSet, f Face) float64 {
	var e [3]r3.Vector
	for i, k := range f {
		p, _ := ps.Point(k)
		e[i] = p.Celestial.Vector
	}
	return scalarTripleProduct(e[0], e[1], e[2])
}

// equatorialOf returns the ra and dec seen in direction p by testSite at
// local sidereal time 0.
func equatorialOf(t *testing.T, p s2.Point) (ra, dec float64) {
	t.Helper()
	ll := s2.LatLngFromPoint(p)
	alt := ll.Lat.Degrees()
	az := astro.Range360(-180 - ll.Lng.Degrees())
	ra, dec, err := astro.EquatorialFromHorizontal(alt, az, astro.AtSiderealTime(0), testSite)
	if err != nil {
		t.Fatalf("astro.EquatorialFromHorizontal(...) error = %v, want nil", err)
	}
	return ra, dec
}
