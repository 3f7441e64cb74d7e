// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2align

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/2dChan/s2align/alignfile"
	"github.com/2dChan/s2align/astro"
)

const (
	siteNameLayout = "2006-01-02@15:04:05"

	// elevationTolerance is the largest elevation difference, in meters,
	// still considered the same site.
	elevationTolerance = 1.0
)

// SiteMismatchError is returned by Save when the configured observer is not
// at the site the loaded points were collected at.
type SiteMismatchError struct {
	Active     Site
	Configured astro.Observer
	Tolerance  float64
}

func (e *SiteMismatchError) Error() string {
	return fmt.Sprintf("s2align: configured observer (lat %v, lon %v, elev %v) does not match site %q (lat %v, lon %v, elev %v) within %v°",
		e.Configured.Latitude, e.Configured.Longitude, e.Configured.Elevation,
		e.Active.Name, e.Active.Latitude, e.Active.Longitude, e.Active.Elevation, e.Tolerance)
}

// Load replaces the content of the point set with the alignment data file
// in text. The file's site becomes the active site and every sample is
// placed at it. Samples falling on an already loaded key are skipped.
//
// On a parse error the point set is left untouched.
func (ps *PointSet) Load(text []byte) error {
	doc, err := alignfile.Unmarshal(text)
	if err != nil {
		return err
	}
	obs := doc.Site.Observer()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("s2align: load site %q: %w", doc.Site.Name, err)
	}

	ps.Reset()
	site := doc.Site
	ps.site = &site

	for i, s := range doc.Samples {
		_, err := ps.AddPoint(s, &obs)
		if errors.Is(err, ErrDuplicatePoint) {
			ps.log.Warn("align: skipped duplicate point", slog.Int("record", i), slog.Any("error", err))
			continue
		}
		if err != nil {
			return fmt.Errorf("s2align: load point %d: %w", i, err)
		}
	}

	ps.log.Info("align: loaded",
		slog.String("site", site.Name),
		slog.Int("points", ps.NumPoints()),
		slog.Int("faces", ps.NumFaces()))
	return nil
}

// Save writes the site and points as an alignment data file. Without an
// active site the configured observer is written under a name taken from
// the clock.
func (ps *PointSet) Save() ([]byte, error) {
	site, err := ps.saveSite()
	if err != nil {
		return nil, err
	}
	doc := alignfile.Document{
		Site:    site,
		Samples: make([]Sample, len(ps.order)),
	}
	for i, k := range ps.order {
		doc.Samples[i] = ps.points[k].Sample
	}
	return alignfile.Marshal(doc)
}

func (ps *PointSet) saveSite() (Site, error) {
	if ps.site != nil {
		if ps.observer != nil && !ps.sameSite(*ps.site, *ps.observer) {
			return Site{}, &SiteMismatchError{
				Active:     *ps.site,
				Configured: *ps.observer,
				Tolerance:  ps.siteTol,
			}
		}
		return *ps.site, nil
	}

	if ps.observer == nil {
		return Site{}, fmt.Errorf("s2align: save: %w: no site or observer configured", astro.ErrInvalidObserver)
	}
	return Site{
		Name:      ps.now().Format(siteNameLayout),
		Latitude:  ps.observer.Latitude,
		Longitude: ps.observer.Longitude,
		Elevation: ps.observer.Elevation,
	}, nil
}

func (ps *PointSet) sameSite(site Site, obs astro.Observer) bool {
	dLon := astro.Range360(site.Longitude - obs.Longitude)
	if dLon > 180 {
		dLon = 360 - dLon
	}
	return math.Abs(site.Latitude-obs.Latitude) <= ps.siteTol &&
		dLon <= ps.siteTol &&
		math.Abs(site.Elevation-obs.Elevation) <= elevationTolerance
}

// PointListSnapshot returns the alignment data file as a transport blob.
func (ps *PointSet) PointListSnapshot() (alignfile.Blob, error) {
	data, err := ps.Save()
	if err != nil {
		return alignfile.Blob{}, err
	}
	return alignfile.NewBlob(data), nil
}

// TriangulationSnapshot returns the current face list as a transport blob.
func (ps *PointSet) TriangulationSnapshot() (alignfile.Blob, error) {
	faces := ps.mesh.Faces()
	doc := alignfile.TriangulationDocument{
		Points: ps.NumPoints(),
		Faces:  make([][3]alignfile.FaceVertex, len(faces)),
	}
	for i, f := range faces {
		for j, k := range f {
			p, ok := ps.points[k]
			if !ok {
				return alignfile.Blob{}, fmt.Errorf("s2align: face %d references unknown key %s", i, k.ToToken())
			}
			doc.Faces[i][j] = alignfile.FaceVertex{Index: p.Index, Key: k.ToToken()}
		}
	}
	data, err := alignfile.MarshalTriangulation(doc)
	if err != nil {
		return alignfile.Blob{}, err
	}
	return alignfile.NewBlob(data), nil
}
