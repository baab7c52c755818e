// Copyright © 2018 One Concern

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
)

func TestStructTags(t *testing.T) {
	r := newRegistry()
	m := &exampleMetrics{}

	scanStruct("parent", r.addMetric, m)

	assert.Nil(t, m.Telemetry.Ignored)
	assert.NotNil(t, m.Telemetry.TestCount)
	assert.NotNil(t, m.Volumetry.Bundles.BundleCount)
	assert.NotNil(t, m.Volumetry.Bundles.BundleSize)

	require.NotNil(t, m.Network, "pointers to structs are allocated")
	assert.NotNil(t, m.Network.Requests.Count)
	assert.NotNil(t, m.Network.Requests.Timing)
	assert.NotNil(t, m.Network.Requests.Failures)
	assert.NotNil(t, m.Network.Requests.IOSize)
	require.NotNil(t, m.Network.Requests.IOThroughput)
	assert.IsType(t, &stats.Float64Measure{}, m.Network.Requests.IOThroughput)

	assert.Equal(t, "parent/network/requests/throughput", m.Network.Requests.IOThroughput.Name())
	assert.Equal(t, stats.UnitBytes, m.Volumetry.Bundles.BundleSize.Unit())
	assert.Len(t, r.measures, exampleMeasures)
	assert.Len(t, r.views, exampleViews)
}

func TestScanStructPanics(t *testing.T) {
	r := newRegistry()
	assert.Panics(t, func() { scanStruct("x", r.addMetric, exampleMetrics{}) })
	assert.Panics(t, func() { scanStruct("x", r.addMetric, (*exampleMetrics)(nil)) })
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"kind", "operation"}, splitList("kind, operation,"))
	assert.Nil(t, splitList(""))
}
