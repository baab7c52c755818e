// Copyright © 2018 One Concern

package metrics

import (
	"go.opencensus.io/stats"
)

type exampleMetrics struct {
	Telemetry struct {
		Ignored   []BundlesMetrics    `group:"ignored"`
		TestCount *stats.Int64Measure `metric:"testCount" description:"number of tests" extraviews:"sum,unknown"`
	} `group:"telemetry"`
	Volumetry struct {
		Bundles BundlesMetrics `group:"bundles"`
	} `group:"volumetry"`
	Network *struct {
		Requests IOMetrics `group:"requests"`
	} `group:"network"`
	Usage UsageMetrics `group:"usage"`
}

func (e *exampleMetrics) IncTest() {
	Inc(e.Telemetry.TestCount, map[string]string{"kind": "test"})
}

// measures and views declared by exampleMetrics
const (
	exampleMeasures = 1 + 2 + 5 + 3
	exampleViews    = 2 + 4 + 6 + 3
)
