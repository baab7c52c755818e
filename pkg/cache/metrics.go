// Copyright © 2018 One Concern

package cache

import (
	"github.com/oneconcern/assetsync/pkg/metrics"
	"go.opencensus.io/stats"
)

// M describes metrics for the cache package
type M struct {
	Volume struct {
		Bundles bundleUsage       `group:"bundles" description:"metrics about bundle residency"`
		IO      metrics.IOMetrics `group:"io" description:"metrics about bundle fetches"`
	} `group:"volumetry" description:""`
	Usage metrics.UsageMetrics `group:"telemetry" description:"usage stats for the cache package"`
}

type bundleUsage struct {
	Loads    *stats.Int64Measure `metric:"loads" extraviews:"sum" tags:"kind,outcome" description:"number of bundle loads, by outcome (hit, coalesced, fetched)"`
	Releases *stats.Int64Measure `metric:"releases" extraviews:"sum" tags:"kind" description:"number of bundles released"`
	Resident *stats.Int64Measure `metric:"resident" extraviews:"lastvalue" tags:"kind" description:"number of resident bundles"`
}

func (*bundleUsage) tags(outcome string) map[string]string {
	if outcome == "" {
		return map[string]string{"kind": "bundle"}
	}
	return map[string]string{"kind": "bundle", "outcome": outcome}
}

func (u *bundleUsage) Load(outcome string) {
	metrics.Inc(u.Loads, u.tags(outcome))
}

func (u *bundleUsage) Release(resident int) {
	metrics.Inc(u.Releases, u.tags(""))
	metrics.Int64(u.Resident, int64(resident), u.tags(""))
}
