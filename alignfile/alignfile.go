// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package alignfile reads and writes alignment data files: an observing site
// followed by the ordered sync points collected there.
//
// The format is XML. Numbers are written with strconv in the shortest form
// that parses back to the same float64, so files never depend on a locale's
// decimal separator and a Marshal/Unmarshal round trip is exact.

package alignfile

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/2dChan/s2align/astro"
)

const (
	FormatVersion = "1"
	BlobFormat    = ".xml"

	rootElement = "aligndata"
)

// Site is the observing location an alignment file was recorded at.
type Site struct {
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

func (s Site) Observer() astro.Observer {
	return astro.Observer{Latitude: s.Latitude, Longitude: s.Longitude, Elevation: s.Elevation}
}

// Sample is one sync observation: where the mount was told to point
// (celestial) and where its encoders said it pointed (telescope). RA is in
// hours, Dec in degrees.
//
// SyncTime is the local sidereal time of the sync in hours. When Time is
// set it takes precedence.
type Sample struct {
	SyncTime     float64
	Time         time.Time
	CelestialRA  float64
	CelestialDec float64
	TelescopeRA  float64
	TelescopeDec float64
}

func (s Sample) When() astro.When {
	if !s.Time.IsZero() {
		return astro.At(s.Time)
	}
	return astro.AtSiderealTime(s.SyncTime)
}

// Document is the content of an alignment data file.
type Document struct {
	Site    Site
	Samples []Sample
}

type xmlAlignData struct {
	XMLName       xml.Name
	FormatVersion string     `xml:"format-version,attr,omitempty"`
	SiteName      string     `xml:"site-name,attr"`
	SiteLongitude string     `xml:"site-longitude,attr"`
	SiteLatitude  string     `xml:"site-latitude,attr"`
	SiteElevation string     `xml:"site-elevation,attr,omitempty"`
	Points        []xmlPoint `xml:"point"`
}

type xmlPoint struct {
	Index        string  `xml:"index,attr,omitempty"`
	SyncTime     *string `xml:"sync-time"`
	CelestialRA  *string `xml:"celestial-ra"`
	CelestialDec *string `xml:"celestial-dec"`
	TelescopeRA  *string `xml:"telescope-ra"`
	TelescopeDec *string `xml:"telescope-dec"`
}

// Unmarshal parses an alignment data file. Errors are *FormatError,
// *SiteError or *FieldError.
func Unmarshal(data []byte) (Document, error) {
	var raw xmlAlignData
	if err := xml.Unmarshal(data, &raw); err != nil {
		return Document{}, &FormatError{Reason: "malformed XML", Err: err}
	}
	if raw.XMLName.Local != rootElement {
		return Document{}, &FormatError{Reason: fmt.Sprintf("root element <%s>, want <%s>", raw.XMLName.Local, rootElement)}
	}
	if raw.FormatVersion != "" && raw.FormatVersion != FormatVersion {
		return Document{}, &FormatError{Reason: fmt.Sprintf("unsupported format-version %q", raw.FormatVersion)}
	}

	site := Site{Name: raw.SiteName}
	var err error
	if site.Latitude, err = parseSiteField("site-latitude", raw.SiteLatitude, true); err != nil {
		return Document{}, err
	}
	if site.Longitude, err = parseSiteField("site-longitude", raw.SiteLongitude, true); err != nil {
		return Document{}, err
	}
	if site.Elevation, err = parseSiteField("site-elevation", raw.SiteElevation, false); err != nil {
		return Document{}, err
	}

	doc := Document{
		Site:    site,
		Samples: make([]Sample, 0, len(raw.Points)),
	}
	for i, p := range raw.Points {
		var s Sample
		fields := []struct {
			name string
			raw  *string
			dst  *float64
		}{
			{"sync-time", p.SyncTime, &s.SyncTime},
			{"celestial-ra", p.CelestialRA, &s.CelestialRA},
			{"celestial-dec", p.CelestialDec, &s.CelestialDec},
			{"telescope-ra", p.TelescopeRA, &s.TelescopeRA},
			{"telescope-dec", p.TelescopeDec, &s.TelescopeDec},
		}
		for _, f := range fields {
			if f.raw == nil {
				return Document{}, &FieldError{Record: i, Field: f.name}
			}
			v, err := parseFloat(*f.raw)
			if err != nil {
				return Document{}, &FieldError{Record: i, Field: f.name, Value: *f.raw, Err: err}
			}
			*f.dst = v
		}
		doc.Samples = append(doc.Samples, s)
	}
	return doc, nil
}

// Marshal writes doc as an alignment data file. Samples that carry an
// absolute Time are written with their local sidereal time at the site.
func Marshal(doc Document) ([]byte, error) {
	site := doc.Site
	if !finite(site.Latitude) {
		return nil, &SiteError{Field: "site-latitude", Value: formatFloat(site.Latitude)}
	}
	if !finite(site.Longitude) {
		return nil, &SiteError{Field: "site-longitude", Value: formatFloat(site.Longitude)}
	}
	if !finite(site.Elevation) {
		return nil, &SiteError{Field: "site-elevation", Value: formatFloat(site.Elevation)}
	}

	raw := xmlAlignData{
		XMLName:       xml.Name{Local: rootElement},
		FormatVersion: FormatVersion,
		SiteName:      site.Name,
		SiteLongitude: formatFloat(site.Longitude),
		SiteLatitude:  formatFloat(site.Latitude),
		SiteElevation: formatFloat(site.Elevation),
		Points:        make([]xmlPoint, len(doc.Samples)),
	}
	for i, s := range doc.Samples {
		syncTime := s.SyncTime
		if !s.Time.IsZero() {
			syncTime = astro.LocalSiderealTime(s.Time, site.Longitude)
		}
		fields := []struct {
			name string
			v    float64
			dst  **string
		}{
			{"sync-time", syncTime, &raw.Points[i].SyncTime},
			{"celestial-ra", s.CelestialRA, &raw.Points[i].CelestialRA},
			{"celestial-dec", s.CelestialDec, &raw.Points[i].CelestialDec},
			{"telescope-ra", s.TelescopeRA, &raw.Points[i].TelescopeRA},
			{"telescope-dec", s.TelescopeDec, &raw.Points[i].TelescopeDec},
		}
		for _, f := range fields {
			if !finite(f.v) {
				return nil, &FieldError{Record: i, Field: f.name, Value: formatFloat(f.v)}
			}
			str := formatFloat(f.v)
			*f.dst = &str
		}
		raw.Points[i].Index = strconv.Itoa(i)
	}

	return encode(raw)
}

func encode(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("alignfile: encode: %w", err)
	}
	return append(append([]byte(xml.Header), out...), '\n'), nil
}

func parseSiteField(name, value string, required bool) (float64, error) {
	if value == "" {
		if required {
			return 0, &SiteError{Field: name}
		}
		return 0, nil
	}
	v, err := parseFloat(value)
	if err != nil {
		return 0, &SiteError{Field: name, Value: value, Err: err}
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
