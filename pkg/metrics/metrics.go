// Copyright © 2018 One Concern

// Package metrics declares opencensus measures from struct tags and
// exports the resulting views.
package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/oneconcern/assetsync/pkg/metrics/exporters/logexporter"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.uber.org/zap"
)

const unitBps = "bps"

// unitKind tells how measures of some unit are declared and aggregated by default
type unitKind struct {
	unit        string
	aggregation func() *view.Aggregation
	describe    string
}

var unitKinds = map[string]unitKind{
	"":             {unit: stats.UnitDimensionless, aggregation: view.Count, describe: "counter"},
	"count":        {unit: stats.UnitDimensionless, aggregation: view.Count, describe: "counter"},
	"milliseconds": {unit: stats.UnitMilliseconds, aggregation: durationBuckets, describe: "in milliseconds"},
	"bytes":        {unit: stats.UnitBytes, aggregation: sizeBuckets, describe: "in bytes"},
	"sumbytes":     {unit: stats.UnitBytes, aggregation: view.Sum, describe: "cumulated bytes"},
	"bytespersec":  {unit: unitBps, aggregation: throughputBuckets, describe: "in bytes per second"},
}

// aggregations which may be requested as extra views
var extraAggregations = map[string]func() *view.Aggregation{
	"count":     view.Count,
	"sum":       view.Sum,
	"lastvalue": view.LastValue,
}

func durationBuckets() *view.Aggregation {
	// milliseconds, from a cached bundle load to a slow download
	return view.Distribution(
		1, 5, 10, 50,
		100, 250, 500,
		1000, 2500, 5000,
		10000, 30000, 60000,
		300000,
	)
}

func sizeBuckets() *view.Aggregation {
	// bytes, from small assets to large bundles
	return view.Distribution(
		units.KiB, 16*units.KiB, 64*units.KiB, 256*units.KiB,
		units.MiB, 4*units.MiB, 16*units.MiB, 64*units.MiB,
		256*units.MiB, units.GiB,
	)
}

func throughputBuckets() *view.Aggregation {
	// bytes per second
	return view.Distribution(
		10*units.KiB, 100*units.KiB,
		units.MiB, 5*units.MiB, 10*units.MiB,
		50*units.MiB, 100*units.MiB,
	)
}

// registry holds all registered metrics and their views
type registry struct {
	basePath string
	exporter FlushExporter
	l        *zap.Logger
	period   time.Duration

	mx       sync.Mutex
	modules  map[string]interface{}
	measures []stats.Measure
	views    []*view.View
}

// DefaultExporter writes views to the log, tagged with service "assetsync"
func DefaultExporter(logger *zap.Logger, opts ...logexporter.Option) FlushExporter {
	return flusher(logexporter.New(logger,
		append([]logexporter.Option{
			logexporter.WithTags(map[string]string{"service": "assetsync"}),
		}, opts...)...,
	))
}

func newRegistry(opts ...Option) *registry {
	r := &registry{
		modules: make(map[string]interface{}),
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.exporter == nil {
		r.exporter = DefaultExporter(r.l)
	}

	view.RegisterExporter(r.exporter)
	if r.period >= time.Second {
		view.SetReportingPeriod(r.period)
	}
	return r
}

func (r *registry) EnsureMetrics(location string, m interface{}) interface{} {
	r.mx.Lock()
	defer r.mx.Unlock()

	location = path.Join(r.basePath, location)
	if existing, ok := r.modules[location]; ok {
		if !sameType(existing, m) {
			panic("metrics already registered at " + location + " with a different type")
		}
		return existing
	}
	scanStruct(location, r.addMetric, m)
	r.modules[location] = m
	return m
}

// Flush exports the current data of all registered views
func (r *registry) Flush() {
	r.mx.Lock()
	views := append([]*view.View(nil), r.views...)
	r.mx.Unlock()

	now := time.Now()
	for _, v := range views {
		rows, err := view.RetrieveData(v.Name)
		if err != nil {
			continue
		}
		r.exporter.Flush(&view.Data{View: v, Start: now, End: now, Rows: rows})
	}
}

// addMetric declares a measure, with a default view according to its unit:
//   - counters get a count
//   - bytes, timings and throughputs get a distribution
//   - sumbytes get a sum
//
// Extra views with other aggregations (count, sum, lastvalue) may be requested with the extraviews tag.
func (r *registry) addMetric(kind measureKind, group string, spec metricSpec) stats.Measure {
	name := path.Join(group, spec.name)
	unit, ok := unitKinds[spec.unit]
	if !ok {
		unit = unitKinds[""]
	}
	description := spec.description
	if description == "" {
		description = name + " " + unit.describe
	}

	var measure stats.Measure
	switch kind {
	case int64Measure:
		measure = stats.Int64(name, description, unit.unit)
	case float64Measure:
		measure = stats.Float64(name, description, unit.unit)
	default:
		return nil
	}
	r.measures = append(r.measures, measure)

	keys := make([]tag.Key, 0, len(spec.tags))
	for _, k := range spec.tags {
		keys = append(keys, tag.MustNewKey(k))
	}
	r.addView(&view.View{
		Name:        name,
		Description: description,
		Measure:     measure,
		Aggregation: unit.aggregation(),
		TagKeys:     keys,
	})

	for _, extra := range spec.extraViews {
		aggregation, ok := extraAggregations[extra]
		if !ok {
			continue
		}
		r.addView(&view.View{
			Name:        name + "[" + extra + "]",
			Description: description + " [" + extra + "]",
			Measure:     measure,
			Aggregation: aggregation(),
			TagKeys:     keys,
		})
	}
	return measure
}

func (r *registry) addView(v *view.View) {
	r.views = append(r.views, v)
	if err := view.Register(v); err != nil {
		r.l.Debug("view not registered", zap.String("view", v.Name), zap.Error(err))
	}
}

// FlushExporter is a view exporter which may also be flushed on demand,
// concurrently with the opencensus background worker.
type FlushExporter interface {
	view.Exporter
	Flush(*view.Data)
}

func flusher(e view.Exporter) FlushExporter {
	if f, ok := e.(FlushExporter); ok {
		return f
	}
	return &simpleFlusher{e: e}
}

type simpleFlusher struct {
	e  view.Exporter
	mx sync.RWMutex
}

func (f *simpleFlusher) ExportView(data *view.Data) {
	f.mx.RLock()
	f.e.ExportView(data)
	f.mx.RUnlock()
}

func (f *simpleFlusher) Flush(data *view.Data) {
	f.mx.Lock()
	f.e.ExportView(data)
	f.mx.Unlock()
}
