// Copyright © 2018 One Concern

package updater

import (
	"github.com/oneconcern/assetsync/pkg/manifest"
)

// ComputeUpdateSet lists the remote versions of all bundles which should be downloaded, sorted by identifier.
//
// A bundle is part of the update set if it is unknown to the local manifest, or if its remote version
// has a different hash and a strictly greater timestamp. Bundles only known locally are ignored.
func ComputeUpdateSet(local, remote *manifest.VersionManifest) []manifest.VersionEntry {
	// entries are sorted
	updates := make([]manifest.VersionEntry, 0, remote.Len())
	for _, remoteVersion := range remote.Entries() {
		localVersion, isLocal := local.Get(remoteVersion.FilePath)
		if isLocal && !remoteVersion.IsNewerThan(localVersion) {
			continue
		}
		updates = append(updates, remoteVersion)
	}
	return updates
}

// DownloadSize sums the byte sizes of a set of versions
func DownloadSize(updates []manifest.VersionEntry) int64 {
	var size int64
	for _, u := range updates {
		size += u.ByteSize
	}
	return size
}
