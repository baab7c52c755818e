// Copyright © 2018 One Concern

// Package bundle exposes the container format holding assets.
//
// A bundle is an opaque capability: it enumerates the assets it contains, loads
// one of them by name, and releases its resources on Close. Asset names are case-normalized.
//
// The default container is a zip archive (see ZipOpener and Pack).
package bundle
