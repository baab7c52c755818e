// Copyright © 2018 One Concern

package metrics

import (
	"time"

	"go.opencensus.io/stats"
)

// BundlesMetrics counts and sizes bundles, by operation (e.g. download)
type BundlesMetrics struct {
	BundleCount *stats.Int64Measure `metric:"bundleCount" description:"number of bundles" extraviews:"sum" tags:"kind,operation"`
	BundleSize  *stats.Int64Measure `metric:"bundleSize" unit:"bytes" description:"size of bundles" extraviews:"sum" tags:"kind,operation"`
}

func (b *BundlesMetrics) tags(operation string) map[string]string {
	return map[string]string{"kind": "bundle", "operation": operation}
}

// Inc counts one bundle
func (b *BundlesMetrics) Inc(operation string) {
	Inc(b.BundleCount, b.tags(operation))
}

// Size records the size of a bundle
func (b *BundlesMetrics) Size(size int64, operation string) {
	Int64(b.BundleSize, size, b.tags(operation))
}

// IOMetrics reports about reads and writes on stores
type IOMetrics struct {
	Count        *stats.Int64Measure   `metric:"ioCount" description:"number of IO requests" tags:"kind,operation"`
	Timing       *stats.Float64Measure `metric:"timing" unit:"milliseconds" description:"response time in milliseconds" tags:"kind,operation"`
	Failures     *stats.Int64Measure   `metric:"ioFailures" description:"number of failed IOs" tags:"kind,operation"`
	IOSize       *stats.Int64Measure   `metric:"ioSize" unit:"bytes" description:"IO size in bytes" extraviews:"sum" tags:"kind,operation"`
	IOThroughput *stats.Float64Measure `metric:"throughput" unit:"bytespersec" description:"throughput of a single IO in bytes per second" tags:"kind,operation"`
}

func (n *IOMetrics) tags(operation string) map[string]string {
	return map[string]string{"kind": "io", "operation": operation}
}

// IORecord records an IO operation in a single deferred call:
// its timing, then its size and throughput on success, or a failure.
//
// Example:
//
//	defer func(start time.Time) {
//	  m.IO.IORecord(start, "download")(size, err)
//	}(time.Now())
func (n *IOMetrics) IORecord(start time.Time, operation string) func(int64, error) {
	return func(size int64, err error) {
		end := time.Now()
		tags := n.tags(operation)
		Duration(start, end, n.Timing, tags)
		Inc(n.Count, tags)
		if err != nil {
			n.Failed(operation)
			return
		}
		if size == 0 {
			return
		}
		Int64(n.IOSize, size, tags)
		if elapsed := end.Sub(start); elapsed > 0 {
			Float64(n.IOThroughput, float64(size)/elapsed.Seconds(), tags)
		}
	}
}

// Failed counts a failed IO
func (n *IOMetrics) Failed(operation string) {
	Inc(n.Failures, n.tags(operation))
}

// UsageMetrics reports about calls to some entry points
type UsageMetrics struct {
	Count    *stats.Int64Measure   `metric:"usageCount" description:"number of calls" tags:"kind,method"`
	Failures *stats.Int64Measure   `metric:"usageFailures" description:"number of failed calls" tags:"kind,method"`
	Timing   *stats.Float64Measure `metric:"timing" unit:"milliseconds" description:"duration of a call" tags:"kind,method"`
}

func (u *UsageMetrics) tags(method string) map[string]string {
	return map[string]string{"kind": "usage", "method": method}
}

// Used records a call and its duration.
//
// Example:
//
//	defer m.Usage.Used(time.Now(), "Load")
func (u *UsageMetrics) Used(start time.Time, method string) {
	Since(start, u.Timing, u.tags(method))
	Inc(u.Count, u.tags(method))
}

// UsedAll records a call, its duration and its failure if any, in one go.
//
// Example:
//
//	defer func(start time.Time) {
//	  m.Usage.UsedAll(start, "DownloadUpdated")(err)
//	}(time.Now())
func (u *UsageMetrics) UsedAll(start time.Time, method string) func(error) {
	return func(err error) {
		u.Used(start, method)
		if err != nil {
			Inc(u.Failures, u.tags(method))
		}
	}
}
