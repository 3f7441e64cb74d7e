// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package metrics exposes point-set statistics as Prometheus metrics.

package metrics

import (
	"fmt"
	"io"
	"net/http"

	"github.com/2dChan/s2align"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Collector bundles the alignment metrics. It implements s2align.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Points prometheus.Gauge
	Faces  prometheus.Gauge

	Lookups      *prometheus.CounterVec
	ScannedFaces prometheus.Histogram
}

var _ s2align.Recorder = (*Collector)(nil)

// NewCollector registers the alignment metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry returns the already registered metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "s2align_points",
		Help: "Current number of sync points in the point set.",
	}), "s2align_points")
	if err != nil {
		return nil, err
	}
	faces, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "s2align_faces",
		Help: "Current number of faces in the triangulation.",
	}), "s2align_faces")
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "s2align_face_lookups_total",
		Help: "Total number of face lookups, labeled by outcome (cache, scan, miss).",
	}, []string{"outcome"})
	lookups, err = registerCounterVec(reg, lookups, "s2align_face_lookups_total")
	if err != nil {
		return nil, err
	}

	scanned, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "s2align_face_lookup_scanned_faces",
		Help:    "Number of faces tested by the linear scan of a face lookup.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}), "s2align_face_lookup_scanned_faces")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Points:       points,
		Faces:        faces,
		Lookups:      lookups,
		ScannedFaces: scanned,
	}, nil
}

func (c *Collector) RecordPoints(points, faces int) {
	if c == nil {
		return
	}
	c.Points.Set(float64(points))
	c.Faces.Set(float64(faces))
}

// RecordLookup counts the lookup and, unless it was answered from the cache,
// observes the number of scanned faces.
func (c *Collector) RecordLookup(outcome string, scanned int) {
	if c == nil {
		return
	}
	c.Lookups.WithLabelValues(outcome).Inc()
	if outcome != s2align.LookupCache {
		c.ScannedFaces.Observe(float64(scanned))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
