// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2align

import (
	"log/slog"

	"github.com/2dChan/s2align/astro"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// FindFace returns the face whose cone contains the direction of (ra, dec)
// at when. The target is always taken in the celestial frame; frame selects
// which vertex directions the faces are tested against.
//
// The last face found is tested first. A target outside the triangulated
// region, fewer than three points or an unresolvable observer all report
// false.
func (ps *PointSet) FindFace(ra, dec float64, when astro.When, obs *astro.Observer, frame Frame) (Face, bool) {
	o, err := ps.resolveObserver(obs)
	if err != nil {
		ps.log.Warn("align: find face", slog.Any("error", err))
		ps.clearCurrent()
		ps.recorder.RecordLookup(LookupMiss, 0)
		return Face{}, false
	}
	alt, az, err := astro.HorizontalFromEquatorial(ra, dec, when, o)
	if err != nil {
		ps.log.Warn("align: find face", slog.Any("error", err))
		ps.clearCurrent()
		ps.recorder.RecordLookup(LookupMiss, 0)
		return Face{}, false
	}
	return ps.findFace(astro.HorizonVector(alt, az), frame)
}

func (ps *PointSet) findFace(target s2.Point, frame Frame) (Face, bool) {
	if ps.hasCurrent && ps.isPointInside(target, ps.current, frame) {
		ps.recorder.RecordLookup(LookupCache, 0)
		return ps.current, true
	}

	faces := ps.mesh.Faces()
	for i, f := range faces {
		if ps.isPointInside(target, f, frame) {
			ps.recorder.RecordLookup(LookupScan, i+1)
			ps.setCurrent(f)
			return f, true
		}
	}
	ps.recorder.RecordLookup(LookupMiss, len(faces))
	ps.clearCurrent()
	return Face{}, false
}

// CurrentFace returns the face found by the last successful FindFace.
func (ps *PointSet) CurrentFace() (Face, bool) {
	return ps.current, ps.hasCurrent
}

func (ps *PointSet) setCurrent(f Face) {
	if ps.hasCurrent && ps.current == f {
		return
	}
	ps.current, ps.hasCurrent = f, true
	ps.log.Info("align: current face changed",
		slog.String("v0", f[0].ToToken()),
		slog.String("v1", f[1].ToToken()),
		slog.String("v2", f[2].ToToken()))
}

func (ps *PointSet) clearCurrent() {
	if !ps.hasCurrent {
		return
	}
	ps.current, ps.hasCurrent = Face{}, false
	ps.log.Info("align: current face cleared")
}

// isPointInside reports whether target lies in the cone spanned by the face
// vertices in frame. A triple product of zero agrees with either sign, so
// points on an edge or a vertex of the face count as inside.
func (ps *PointSet) isPointInside(target s2.Point, f Face, frame Frame) bool {
	var e [3]r3.Vector
	for i, k := range f {
		p, ok := ps.points[k]
		if !ok {
			return false
		}
		e[i] = p.Vector(frame).Vector
	}
	return coneContains(target.Vector, e)
}

// coneContains evaluates the triple products of target with the edges
// (e2, e0), (e0, e1), (e1, e2); none of them may be negative. Only faces
// counterclockwise seen from outside the sphere are candidates: a hull over
// a patch of sky also has inward-facing faces, chords under the patch whose
// cones overlap the outward ones.
func coneContains(target r3.Vector, e [3]r3.Vector) bool {
	if scalarTripleProduct(e[0], e[1], e[2]) <= 0 {
		return false
	}
	for i := range 3 {
		if scalarTripleProduct(target, e[(i+2)%3], e[i]) < 0 {
			return false
		}
	}
	return true
}

func scalarTripleProduct(a, b, c r3.Vector) float64 {
	return a.Dot(b.Cross(c))
}
