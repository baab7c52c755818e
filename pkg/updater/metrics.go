// Copyright © 2018 One Concern

package updater

import "github.com/oneconcern/assetsync/pkg/metrics"

// M describes metrics for the updater package
type M struct {
	Volume struct {
		Bundles metrics.BundlesMetrics `group:"bundles" description:"metrics about downloaded bundles"`
		IO      metrics.IOMetrics      `group:"io" description:"metrics about downloads"`
	} `group:"volumetry" description:""`
	Usage metrics.UsageMetrics `group:"telemetry" description:"usage stats for the updater package"`
}
