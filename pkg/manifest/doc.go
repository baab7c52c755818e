// Copyright © 2018 One Concern

// Package manifest holds the metadata describing a content package:
//
//   - the version manifest, recording the hash, size and timestamp of every bundle on a tier
//   - the contents table, an immutable index from asset path to owning bundle
//   - the root manifest, enumerating bundles and their direct dependencies, from which
//     the dependency graph is built
//
// Loaders in this package read these documents from a storage tier. A tier which does not hold
// the requested document reports status.ErrTierAbsent, so callers may fall back to the next tier.
package manifest
