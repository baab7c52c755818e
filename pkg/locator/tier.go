// Copyright © 2018 One Concern

// Package locator decides which storage tier holds the authoritative copy of each bundle.
package locator

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/oneconcern/assetsync/pkg/storage"
)

// Tier identifies a storage tier
type Tier uint8

// Storage tiers, from the read-only installation to the network source
const (
	Base Tier = iota
	Overlay
	Remote
)

func (t Tier) String() string {
	switch t {
	case Base:
		return "base"
	case Overlay:
		return "overlay"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// Layout holds the root of every tier: a local directory or a URL
type Layout struct {
	Base    string
	Overlay string
	Remote  string
}

// URI resolves a file name on some tier.
//
// Local directories resolve to file:// URIs, URLs are joined with the file name.
func (l Layout) URI(tier Tier, fileName string) string {
	var root string
	switch tier {
	case Base:
		root = l.Base
	case Overlay:
		root = l.Overlay
	case Remote:
		root = l.Remote
	}
	fileName = strings.TrimPrefix(fileName, "/")

	if u, err := url.Parse(root); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		u.Path = path.Join("/", u.Path, fileName)
		return u.String()
	}
	return (&url.URL{Scheme: "file", Path: path.Join("/", root, fileName)}).String()
}

// Location tells where the current copy of a bundle lives
type Location struct {
	Tier Tier
	Name string
	URI  string
}

func (l Location) String() string {
	return l.URI
}

// Stores gives access to the storage backing every tier
type Stores struct {
	Base    storage.Store
	Overlay storage.Store
	Remote  storage.Store
}

// For returns the store backing a tier
func (s Stores) For(tier Tier) storage.Store {
	switch tier {
	case Base:
		return s.Base
	case Overlay:
		return s.Overlay
	case Remote:
		return s.Remote
	default:
		return nil
	}
}
