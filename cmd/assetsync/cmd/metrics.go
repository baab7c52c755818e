// Copyright © 2018 One Concern

package cmd

import (
	"time"

	"github.com/oneconcern/assetsync/pkg/metrics"
)

// M describes metrics for the cmd package
type M struct {
	Usage metrics.UsageMetrics `group:"telemetry" description:"usage stats for the assetsync CLI"`
}

var cliMetrics *M

// cliUsage records a usage metric in the CLI context in a single go.
// This is intended to be used in some defer statement.
//
// Metrics are flushed as soon as the command is done.
func cliUsage(t0 time.Time, command string, err error) {
	if cliMetrics == nil {
		return
	}
	cliMetrics.Usage.UsedAll(t0, command)(err)
	metrics.Flush()
}
