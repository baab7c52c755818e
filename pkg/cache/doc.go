// Copyright © 2018 One Concern

// Package cache keeps bundles resident exactly as long as something needs them.
//
// Every bundle holds a reference count: one for each direct Load, plus one for each resident bundle
// depending on it. Loading a bundle loads its dependencies first. Concurrent loads of the same
// bundle are coalesced into a single fetch. Unload reverses the accounting, and releases a bundle
// as soon as its count drops to zero.
//
// Fetches run under a cache-wide context: UnloadAll cancels it, drops all bundles regardless of
// their count, and starts over with a fresh context.
package cache
