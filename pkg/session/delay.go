// Copyright © 2018 One Concern

package session

import (
	"context"
	"time"
)

// Delay builds a hook which waits for some duration, or until its context is done.
//
// It returns nil for a non-positive duration.
func Delay(d time.Duration) func(context.Context, string) error {
	if d <= 0 {
		return nil
	}
	return func(ctx context.Context, _ string) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
