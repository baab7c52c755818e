// Copyright © 2018 One Concern

// Package updater keeps the overlay tier of a package current with its remote source.
//
// The set of bundles to download is the difference between the local version manifest
// (the overlay manifest when present, otherwise the base one) and the remote manifest.
// Bundles are downloaded one at a time. The local manifest records each bundle as soon as it has landed,
// and it is saved to the overlay tier whatever the outcome of the pass, so progress is never lost.
//
// Failed downloads are retried with an exponential backoff, up to the configured number of attempts.
// A cancelled download is never retried.
//
// Bundles which are no longer part of the remote package are never deleted by an update:
// this requires wiping the overlay tier, then downloading the whole package again.
package updater
