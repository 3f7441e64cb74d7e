// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2hull

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Face is a mesh triangle identified by the keys of its three vertices.
type Face [3]s2.CellID

// Contains reports whether key is one of the face vertices.
func (f Face) Contains(key s2.CellID) bool {
	return f[0] == key || f[1] == key || f[2] == key
}

// Mesh is a triangulation of the convex hull of a growing set of unit
// vectors. Vertices are identified by key, never by position.
//
// Fewer than three vertices produce no faces. While every vertex lies in one
// plane the mesh is a fan over the planar convex polygon. Once the set spans
// three dimensions the mesh is a closed hull updated incrementally.
type Mesh struct {
	eps    float64
	keys   []s2.CellID
	points map[s2.CellID]r3.Vector
	faces  []Face
	solid  bool
}

func NewMesh(setters ...Option) (*Mesh, error) {
	opts, err := newOptions(setters)
	if err != nil {
		return nil, err
	}
	return &Mesh{
		eps:    opts.Eps,
		points: make(map[s2.CellID]r3.Vector),
	}, nil
}

func (m *Mesh) NumVertices() int {
	return len(m.keys)
}

func (m *Mesh) NumFaces() int {
	return len(m.faces)
}

// Faces returns a copy of the current face list.
func (m *Mesh) Faces() []Face {
	return slices.Clone(m.faces)
}

func (m *Mesh) Vertex(key s2.CellID) (s2.Point, bool) {
	v, ok := m.points[key]
	return s2.Point{Vector: v}, ok
}

// AddVertex inserts p under key. Adding a key that is already present moves
// that vertex and recomputes the mesh.
func (m *Mesh) AddVertex(key s2.CellID, p s2.Point) {
	if _, ok := m.points[key]; ok {
		m.points[key] = p.Vector
		m.Rebuild()
		return
	}
	m.keys = append(m.keys, key)
	m.points[key] = p.Vector
	if m.solid {
		m.insert(key)
		return
	}
	m.Rebuild()
}

// Reset drops all vertices and faces.
func (m *Mesh) Reset() {
	m.keys = nil
	m.points = make(map[s2.CellID]r3.Vector)
	m.faces = nil
	m.solid = false
}

// Rebuild recomputes the mesh from scratch.
func (m *Mesh) Rebuild() {
	m.faces = nil
	m.solid = false
	if len(m.keys) < 3 {
		return
	}
	if m.coplanar() {
		m.faces = m.planarFaces()
		return
	}

	m.solid = true
	vertices := make(s2.PointVector, len(m.keys))
	for i, k := range m.keys {
		vertices[i] = s2.Point{Vector: m.points[k]}
	}
	dt, err := NewTriangulation(vertices, WithEps(m.eps))
	if err == nil {
		m.faces = make([]Face, len(dt.Triangles))
		for i, t := range dt.Triangles {
			m.faces[i] = Face{m.keys[t[0]], m.keys[t[1]], m.keys[t[2]]}
		}
		return
	}

	// QuickHull drops vertices lying on a facet plane; grow the hull one
	// vertex at a time instead.
	seed := m.seedTetrahedron()
	for _, k := range m.keys {
		if !slices.Contains(seed[:], k) {
			m.insert(k)
		}
	}
}

// basis returns the first three keys spanning a plane.
func (m *Mesh) basis() ([3]s2.CellID, bool) {
	var b [3]s2.CellID
	if len(m.keys) < 3 {
		return b, false
	}
	b[0] = m.keys[0]
	a := m.points[b[0]]
	i := 1
	for ; i < len(m.keys); i++ {
		if m.points[m.keys[i]].Sub(a).Norm() > m.eps {
			b[1] = m.keys[i]
			break
		}
	}
	if i == len(m.keys) {
		return b, false
	}
	for i++; i < len(m.keys); i++ {
		if normal(a, m.points[b[1]], m.points[m.keys[i]]).Norm() > m.eps {
			b[2] = m.keys[i]
			return b, true
		}
	}
	return b, false
}

func (m *Mesh) coplanar() bool {
	b, ok := m.basis()
	if !ok {
		return true
	}
	a := m.points[b[0]]
	n := normal(a, m.points[b[1]], m.points[b[2]]).Normalize()
	for _, k := range m.keys {
		if math.Abs(n.Dot(m.points[k].Sub(a))) > m.eps {
			return false
		}
	}
	return true
}

// planarFaces fans the convex polygon of coplanar vertices. Faces are CCW
// around the plane normal pointing away from the origin.
func (m *Mesh) planarFaces() []Face {
	b, ok := m.basis()
	if !ok {
		return nil
	}
	var c r3.Vector
	for _, k := range m.keys {
		c = c.Add(m.points[k])
	}
	c = c.Mul(1 / float64(len(m.keys)))

	n := normal(m.points[b[0]], m.points[b[1]], m.points[b[2]]).Normalize()
	if n.Dot(c) < 0 {
		n = n.Mul(-1)
	}
	u := m.points[b[0]].Sub(c).Normalize()
	w := n.Cross(u)

	order := slices.Clone(m.keys)
	angle := make(map[s2.CellID]float64, len(order))
	for _, k := range order {
		d := m.points[k].Sub(c)
		angle[k] = math.Atan2(w.Dot(d), u.Dot(d))
	}
	slices.SortStableFunc(order, func(x, y s2.CellID) int {
		switch {
		case angle[x] < angle[y]:
			return -1
		case angle[x] > angle[y]:
			return 1
		}
		return 0
	})

	faces := make([]Face, 0, len(order)-2)
	for i := 1; i+1 < len(order); i++ {
		faces = append(faces, Face{order[0], order[i], order[i+1]})
	}
	return faces
}

// seedTetrahedron replaces the faces with a tetrahedron over four
// non-coplanar vertices and returns their keys.
func (m *Mesh) seedTetrahedron() [4]s2.CellID {
	var seed [4]s2.CellID
	b, _ := m.basis()
	copy(seed[:], b[:])
	a := m.points[b[0]]
	n := normal(a, m.points[b[1]], m.points[b[2]]).Normalize()
	for _, k := range m.keys {
		if math.Abs(n.Dot(m.points[k].Sub(a))) > m.eps {
			seed[3] = k
			break
		}
	}

	var interior r3.Vector
	for _, k := range seed {
		interior = interior.Add(m.points[k])
	}
	interior = interior.Mul(0.25)

	m.faces = m.faces[:0]
	for _, f := range []Face{
		{seed[0], seed[1], seed[2]},
		{seed[0], seed[1], seed[3]},
		{seed[0], seed[2], seed[3]},
		{seed[1], seed[2], seed[3]},
	} {
		if normal(m.points[f[0]], m.points[f[1]], m.points[f[2]]).Dot(m.points[f[0]].Sub(interior)) < 0 {
			f[1], f[2] = f[2], f[1]
		}
		m.faces = append(m.faces, f)
	}
	return seed
}

// insert adds key to a closed hull by removing every face it can see and
// closing the hole with a fan to the horizon. It reports false when the
// vertex lies inside the hull.
func (m *Mesh) insert(key s2.CellID) bool {
	p := m.points[key]
	visible := m.visibleFaces(p, m.eps)
	if len(visible) == 0 {
		visible = m.visibleFaces(p, 0)
	}
	if len(visible) == 0 {
		return false
	}

	isVisible := make([]bool, len(m.faces))
	edges := make(map[[2]s2.CellID]struct{}, 3*len(visible))
	for _, i := range visible {
		isVisible[i] = true
		f := m.faces[i]
		for j := range 3 {
			edges[[2]s2.CellID{f[j], f[(j+1)%3]}] = struct{}{}
		}
	}

	faces := make([]Face, 0, len(m.faces)+2)
	for i, f := range m.faces {
		if !isVisible[i] {
			faces = append(faces, f)
		}
	}
	for _, i := range visible {
		f := m.faces[i]
		for j := range 3 {
			u, v := f[j], f[(j+1)%3]
			if _, ok := edges[[2]s2.CellID{v, u}]; !ok {
				faces = append(faces, Face{u, v, key})
			}
		}
	}
	m.faces = faces
	return true
}

func (m *Mesh) visibleFaces(p r3.Vector, threshold float64) []int {
	var visible []int
	for i, f := range m.faces {
		if m.signedDistance(f, p) > threshold {
			visible = append(visible, i)
		}
	}
	return visible
}

func (m *Mesh) signedDistance(f Face, p r3.Vector) float64 {
	a := m.points[f[0]]
	n := normal(a, m.points[f[1]], m.points[f[2]])
	l := n.Norm()
	if l == 0 {
		return 0
	}
	return n.Dot(p.Sub(a)) / l
}

func normal(a, b, c r3.Vector) r3.Vector {
	return b.Sub(a).Cross(c.Sub(a))
}
