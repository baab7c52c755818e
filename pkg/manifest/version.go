// Copyright © 2018 One Concern

package manifest

import (
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/assetsync/pkg/status"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// VersionEntry describes the current version of one bundle
type VersionEntry struct {
	FilePath      string `json:"filePath" yaml:"filePath"`
	Hash          string `json:"hash" yaml:"hash"`
	ByteSize      int64  `json:"byteSize" yaml:"byteSize"`
	LastWriteTime int64  `json:"lastWriteTime" yaml:"lastWriteTime"`
}

// IsNewerThan tells if this entry supersedes some other version of the same bundle.
//
// A bundle is newer when its content differs and its timestamp is strictly greater.
// A changed hash with an older or equal timestamp does not qualify.
func (v VersionEntry) IsNewerThan(other VersionEntry) bool {
	return other.LastWriteTime < v.LastWriteTime && other.Hash != v.Hash
}

// VersionManifest maps bundle identifiers to their version.
//
// It is safe for concurrent use.
type VersionManifest struct {
	mx      sync.RWMutex
	entries map[string]VersionEntry
}

// New version manifest. Entries sharing an identifier collapse: the last one wins.
func New(entries ...VersionEntry) *VersionManifest {
	m := &VersionManifest{
		entries: make(map[string]VersionEntry, len(entries)),
	}
	for _, e := range entries {
		m.entries[e.FilePath] = e
	}
	return m
}

// Empty version manifest
func Empty() *VersionManifest {
	return New()
}

// Get the version of a bundle
func (m *VersionManifest) Get(id string) (VersionEntry, bool) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

// Set the version of a bundle, replacing any former entry
func (m *VersionManifest) Set(id string, entry VersionEntry) {
	entry.FilePath = id
	m.mx.Lock()
	m.entries[id] = entry
	m.mx.Unlock()
}

// Remove a bundle from the manifest
func (m *VersionManifest) Remove(id string) {
	m.mx.Lock()
	delete(m.entries, id)
	m.mx.Unlock()
}

// Len yields the number of bundles in the manifest
func (m *VersionManifest) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.entries)
}

// Entries returns all entries, sorted by bundle identifier
func (m *VersionManifest) Entries() []VersionEntry {
	m.mx.RLock()
	res := make([]VersionEntry, 0, len(m.entries))
	for _, e := range m.entries {
		res = append(res, e)
	}
	m.mx.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].FilePath < res[j].FilePath })
	return res
}

// Clone makes an independent copy of the manifest
func (m *VersionManifest) Clone() *VersionManifest {
	return New(m.Entries()...)
}

// Encode the manifest as a flat JSON list of entries
func (m *VersionManifest) Encode() ([]byte, error) {
	return json.Marshal(m.Entries())
}

// DecodeVersionManifest decodes a flat JSON list of entries.
//
// Field names are matched case-insensitively, so manifests written with capitalized
// field names (e.g. "FilePath") are accepted.
func DecodeVersionManifest(data []byte) (*VersionManifest, error) {
	var entries []VersionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, status.ErrDecode.WrapMessage("version manifest").Wrap(err)
	}
	for _, e := range entries {
		if e.FilePath == "" {
			return nil, status.ErrDecode.WrapMessage("version manifest entry without file path")
		}
	}
	return New(entries...), nil
}
