// Copyright © 2018 One Concern

package locator

import "go.uber.org/zap"

// Option is a functor to pass optional parameters to the resolver
type Option func(*Resolver)

// Logger specifies a logger for the resolver
func Logger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.l = l
		}
	}
}
