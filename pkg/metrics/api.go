// Copyright © 2018 One Concern

package metrics

import (
	"context"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

var (
	global   *registry
	initOnce sync.Once
)

// Init sets up the global registry of metrics, with its exporter.
//
// Only the first call matters: top-level packages such as a CLI call Init before
// any library registers its metrics. Recording measurements is a no-op until Init is called.
func Init(opts ...Option) {
	initOnce.Do(func() {
		global = newRegistry(opts...)
	})
}

// Initialized tells if Init has been called
func Initialized() bool {
	return global != nil
}

// Flush exports all views collected so far
func Flush() {
	if global == nil {
		return
	}
	global.Flush()
}

// EnsureMetrics registers a struct describing measures under some location of the metrics tree.
// Measures are allocated according to the struct tags, see scanStruct.
//
// Only the first registration for a location is retained, and returned by subsequent calls.
// Registering a different type at an existing location panics.
func EnsureMetrics(location string, m interface{}) interface{} {
	Init()
	return global.EnsureMetrics(location, m)
}

// Inc increments a counter
func Inc(counter *stats.Int64Measure, tags ...map[string]string) {
	if counter == nil {
		return
	}
	record(tags, counter.M(1))
}

// Int64 records a value
func Int64(measure *stats.Int64Measure, value int64, tags ...map[string]string) {
	if measure == nil {
		return
	}
	record(tags, measure.M(value))
}

// Float64 records a value
func Float64(measure *stats.Float64Measure, value float64, tags ...map[string]string) {
	if measure == nil {
		return
	}
	record(tags, measure.M(value))
}

// Since records the milliseconds elapsed since start
func Since(start time.Time, measure *stats.Float64Measure, tags ...map[string]string) {
	Duration(start, time.Now(), measure, tags...)
}

// Duration records the milliseconds elapsed between start and end
func Duration(start, end time.Time, measure *stats.Float64Measure, tags ...map[string]string) {
	Float64(measure, float64(end.Sub(start))/float64(time.Millisecond), tags...)
}

func record(extras []map[string]string, measurement stats.Measurement) {
	if global == nil {
		return
	}
	mutators := make([]tag.Mutator, 0, 4)
	for _, extra := range extras {
		for k, v := range extra {
			mutators = append(mutators, tag.Upsert(tag.MustNewKey(k), v))
		}
	}
	_ = stats.RecordWithTags(context.Background(), mutators, measurement)
}

// Enable equips a type with switchable metrics collection.
//
// Sample usage:
//
//	type Downloader struct {
//	  metrics.Enable
//	  m *M
//	}
//
//	type M struct {
//	  Volume struct {
//	    Bundles metrics.BundlesMetrics `group:"bundles" description:"downloaded bundles"`
//	  } `group:"volumetry"`
//	}
//
//	func NewDownloader(enabled bool) *Downloader {
//	  d := &Downloader{}
//	  d.EnableMetrics(enabled)
//	  if d.MetricsEnabled() {
//	    d.m = d.EnsureMetrics("downloader", &M{}).(*M)
//	  }
//	  return d
//	}
type Enable struct {
	metricsEnabled bool
}

// MetricsEnabled tells whether metrics are enabled or not
func (e Enable) MetricsEnabled() bool {
	return e.metricsEnabled
}

// EnableMetrics toggles metrics collection
func (e *Enable) EnableMetrics(enabled bool) {
	e.metricsEnabled = enabled
}

// EnsureMetrics registers m to the global registry, under name
func (e *Enable) EnsureMetrics(name string, m interface{}) interface{} {
	return EnsureMetrics(name, m)
}
