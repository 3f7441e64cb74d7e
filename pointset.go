// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2align keeps a set of telescope sync points, triangulates their
// directions on the sky and finds the triangle that contains a target.

package s2align

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/2dChan/s2align/alignfile"
	"github.com/2dChan/s2align/astro"
	"github.com/2dChan/s2align/s2hull"
	"github.com/golang/geo/s2"
)

const (
	// KeyLevel is the S2 cell level of point keys, about half an arcsecond.
	KeyLevel = 19

	defaultEps           = 1e-12
	defaultSiteTolerance = 1e-4
)

var ErrDuplicatePoint = errors.New("s2align: a point with the same spatial key already exists")

type (
	Sample = alignfile.Sample
	Site   = alignfile.Site
	Face   = s2hull.Face
)

// Frame selects which direction of a point a query is measured against.
type Frame int

const (
	// Celestial uses the catalog direction of each point.
	Celestial Frame = iota
	// Telescope uses the direction reported by the mount encoders.
	Telescope
)

func (f Frame) String() string {
	switch f {
	case Celestial:
		return "celestial"
	case Telescope:
		return "telescope"
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// Point is a registered sync point. Altitudes and azimuths are in degrees,
// azimuth north-based.
type Point struct {
	Key    s2.CellID
	Index  int
	Sample Sample

	CelestialAlt float64
	CelestialAz  float64
	TelescopeAlt float64
	TelescopeAz  float64

	Celestial s2.Point
	Telescope s2.Point
}

// Name returns the textual form of the point key.
func (p Point) Name() string {
	return p.Key.ToToken()
}

func (p Point) Vector(frame Frame) s2.Point {
	if frame == Telescope {
		return p.Telescope
	}
	return p.Celestial
}

func (p Point) AltAz(frame Frame) (alt, az float64) {
	if frame == Telescope {
		return p.TelescopeAlt, p.TelescopeAz
	}
	return p.CelestialAlt, p.CelestialAz
}

// Key returns the spatial key of a horizon direction in degrees.
func Key(alt, az float64) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(alt, az)).Parent(KeyLevel)
}

// Distance is one entry of NearestPoints.
type Distance struct {
	Key   s2.CellID
	Index int
	// Value is the angular separation in radians.
	Value float64
}

// Recorder receives point-set statistics.
type Recorder interface {
	RecordPoints(points, faces int)
	// RecordLookup is called once per FindFace with the outcome and the
	// number of faces tested during the linear scan.
	RecordLookup(outcome string, scanned int)
}

const (
	LookupCache = "cache"
	LookupScan  = "scan"
	LookupMiss  = "miss"
)

type nopRecorder struct{}

func (nopRecorder) RecordPoints(int, int) {}
func (nopRecorder) RecordLookup(string, int) {}

type Options struct {
	Observer      *astro.Observer
	Logger        *slog.Logger
	Recorder      Recorder
	Eps           float64
	SiteTolerance float64
	Clock         func() time.Time
}

type Option func(*Options) error

// WithObserver sets the configured observer position used when AddPoint or
// FindFace get none.
func WithObserver(obs astro.Observer) Option {
	return func(o *Options) error {
		if err := obs.Validate(); err != nil {
			return fmt.Errorf("WithObserver: %w", err)
		}
		o.Observer = &obs
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			return errors.New("WithLogger: logger must not be nil")
		}
		o.Logger = l
		return nil
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Options) error {
		if r == nil {
			return errors.New("WithRecorder: recorder must not be nil")
		}
		o.Recorder = r
		return nil
	}
}

// WithEps sets the geometric tolerance of the triangulation.
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps must be positive, got %v", eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithSiteTolerance sets how far, in degrees, the configured observer may be
// from the active site before Save refuses to write.
func WithSiteTolerance(deg float64) Option {
	return func(o *Options) error {
		if deg <= 0 {
			return fmt.Errorf("WithSiteTolerance: tolerance must be positive, got %v", deg)
		}
		o.SiteTolerance = deg
		return nil
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) error {
		if now == nil {
			return errors.New("WithClock: clock must not be nil")
		}
		o.Clock = now
		return nil
	}
}

// PointSet holds sync points keyed by spatial key and the triangulation of
// their celestial directions.
//
// A PointSet is not safe for concurrent use; callers serialize access.
type PointSet struct {
	log      *slog.Logger
	recorder Recorder
	observer *astro.Observer
	siteTol  float64
	now      func() time.Time

	points map[s2.CellID]*Point
	order  []s2.CellID
	mesh   *s2hull.Mesh
	site   *Site

	current    Face
	hasCurrent bool
}

func New(setters ...Option) (*PointSet, error) {
	opts := Options{
		Logger:        slog.New(slog.DiscardHandler),
		Recorder:      nopRecorder{},
		Eps:           defaultEps,
		SiteTolerance: defaultSiteTolerance,
		Clock:         time.Now,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	mesh, err := s2hull.NewMesh(s2hull.WithEps(opts.Eps))
	if err != nil {
		return nil, err
	}
	return &PointSet{
		log:      opts.Logger,
		recorder: opts.Recorder,
		observer: opts.Observer,
		siteTol:  opts.SiteTolerance,
		now:      opts.Clock,
		points:   make(map[s2.CellID]*Point),
		mesh:     mesh,
	}, nil
}

// SetObserver replaces the configured observer position.
func (ps *PointSet) SetObserver(obs astro.Observer) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	ps.observer = &obs
	return nil
}

func (ps *PointSet) Observer() (astro.Observer, bool) {
	if ps.observer == nil {
		return astro.Observer{}, false
	}
	return *ps.observer, true
}

// Site returns the site of the loaded alignment file, if any.
func (ps *PointSet) Site() (Site, bool) {
	if ps.site == nil {
		return Site{}, false
	}
	return *ps.site, true
}

// resolveObserver picks the explicit observer, then the configured one,
// then the active site.
func (ps *PointSet) resolveObserver(obs *astro.Observer) (astro.Observer, error) {
	var o astro.Observer
	switch {
	case obs != nil:
		o = *obs
	case ps.observer != nil:
		o = *ps.observer
	case ps.site != nil:
		o = ps.site.Observer()
	default:
		return astro.Observer{}, fmt.Errorf("%w: no observer configured", astro.ErrInvalidObserver)
	}
	if err := o.Validate(); err != nil {
		return astro.Observer{}, err
	}
	return o, nil
}

// AddPoint registers a sync sample and adds its celestial direction to the
// triangulation. It fails with ErrDuplicatePoint when the sample falls in
// the key cell of an existing point.
func (ps *PointSet) AddPoint(sample Sample, obs *astro.Observer) (Point, error) {
	o, err := ps.resolveObserver(obs)
	if err != nil {
		return Point{}, err
	}
	when := sample.When()

	p := Point{Sample: sample}
	p.CelestialAlt, p.CelestialAz, err = astro.HorizontalFromEquatorial(sample.CelestialRA, sample.CelestialDec, when, o)
	if err != nil {
		return Point{}, err
	}
	p.TelescopeAlt, p.TelescopeAz, err = astro.HorizontalFromEquatorial(sample.TelescopeRA, sample.TelescopeDec, when, o)
	if err != nil {
		return Point{}, err
	}
	p.Celestial = astro.HorizonVector(p.CelestialAlt, p.CelestialAz)
	p.Telescope = astro.HorizonVector(p.TelescopeAlt, p.TelescopeAz)
	p.Key = Key(p.CelestialAlt, p.CelestialAz)

	if existing, ok := ps.points[p.Key]; ok {
		return Point{}, fmt.Errorf("%w: %s (point %d)", ErrDuplicatePoint, p.Name(), existing.Index)
	}
	p.Index = len(ps.order)

	ps.points[p.Key] = &p
	ps.order = append(ps.order, p.Key)
	ps.mesh.AddVertex(p.Key, p.Celestial)
	ps.clearCurrent()
	ps.recorder.RecordPoints(ps.NumPoints(), ps.NumFaces())

	ps.log.Info("align: added point",
		slog.Int("index", p.Index),
		slog.String("key", p.Name()),
		slog.Float64("alt", p.CelestialAlt),
		slog.Float64("az", p.CelestialAz),
		slog.Int("faces", ps.NumFaces()))
	return p, nil
}

func (ps *PointSet) NumPoints() int {
	return len(ps.order)
}

func (ps *PointSet) NumFaces() int {
	return ps.mesh.NumFaces()
}

func (ps *PointSet) Point(key s2.CellID) (Point, bool) {
	p, ok := ps.points[key]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// Points returns all points in insertion order.
func (ps *PointSet) Points() []Point {
	points := make([]Point, len(ps.order))
	for i, k := range ps.order {
		points[i] = *ps.points[k]
	}
	return points
}

// Faces returns the current triangulation.
func (ps *PointSet) Faces() []Face {
	return ps.mesh.Faces()
}

// NearestPoints returns every point ordered by angular distance from the
// horizon direction (az, alt), measured in frame. Equal distances are
// ordered by insertion.
func (ps *PointSet) NearestPoints(az, alt float64, frame Frame) []Distance {
	distances := make([]Distance, len(ps.order))
	for i, k := range ps.order {
		p := ps.points[k]
		pAlt, pAz := p.AltAz(frame)
		distances[i] = Distance{
			Key:   k,
			Index: p.Index,
			Value: astro.AngularDistance(az, alt, pAz, pAlt),
		}
	}
	slices.SortStableFunc(distances, func(a, b Distance) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return a.Index - b.Index
	})
	return distances
}

// Reset drops all points, the triangulation, the active site and the
// current face.
func (ps *PointSet) Reset() {
	ps.points = make(map[s2.CellID]*Point)
	ps.order = nil
	ps.mesh.Reset()
	ps.site = nil
	ps.clearCurrent()
	ps.recorder.RecordPoints(0, 0)
}
