// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2hull triangulates sets of unit vectors by their 3D convex hull.
// Triangulation is a one-shot quickhull result, Mesh is an incrementally
// maintained hull keyed by S2 cell IDs.

package s2hull

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var ErrInsufficientVertices = errors.New("s2hull: insufficient vertices for triangulation (minimum 4 required)")

type Triangulation struct {
	Vertices s2.PointVector
	// NOTE: Sort in CCW per triangle(look out of hull)
	Triangles [][3]int
}

func (dt *Triangulation) TriangleVertices(tIdx int) (s2.Point, s2.Point, s2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	return dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]
}

type Options struct {
	Eps float64
}

type Option func(*Options) error

func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

func newOptions(setters []Option) (Options, error) {
	opts := Options{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

// NewTriangulation computes the convex hull of vertices with quickhull.
// Vertices must lie on the unit sphere and must not all be coplanar; every
// vertex is then a hull vertex and the hull has exactly 2n-4 triangles.
func NewTriangulation(vertices s2.PointVector, setters ...Option) (*Triangulation, error) {
	opts, err := newOptions(setters)
	if err != nil {
		return nil, err
	}

	numVertices := len(vertices)
	if numVertices < 4 {
		return nil, ErrInsufficientVertices
	}
	numTriangles := 2 * (numVertices - 2)
	dt := &Triangulation{
		Vertices:  vertices,
		Triangles: make([][3]int, numTriangles),
	}

	r3vertices := make([]r3.Vector, numVertices)
	var centroid r3.Vector
	for i, p := range vertices {
		r3vertices[i] = p.Vector
		centroid = centroid.Add(p.Vector)
	}
	centroid = centroid.Mul(1 / float64(numVertices))

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(r3vertices, true, true, opts.Eps)
	if len(ch.Indices) != numTriangles*3 {
		return nil, fmt.Errorf("s2hull: inconsistent number of indices returned from QuickHull: got %d, want %d",
			len(ch.Indices), numTriangles*3)
	}

	for i := range numTriangles {
		base := i * 3
		for j := range 3 {
			v := ch.Indices[base+j]
			if v < 0 || v >= numVertices {
				return nil, fmt.Errorf("s2hull: QuickHull index %d out of range [0 %d)", v, numVertices)
			}
			dt.Triangles[i][j] = v
		}
		sortTriangleVerticesCCW(&dt.Triangles[i], dt.Vertices, centroid)
	}

	return dt, nil
}

// sortTriangleVerticesCCW orients t so its normal points away from interior.
func sortTriangleVerticesCCW(t *[3]int, v s2.PointVector, interior r3.Vector) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	norm := p1.Sub(p0.Vector).Cross(p2.Sub(p0.Vector))
	if norm.Dot(p0.Sub(interior)) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}
