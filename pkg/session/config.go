// Copyright © 2018 One Concern

package session

import (
	"net/url"
	"path"
	"time"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/oneconcern/assetsync/pkg/updater"
	"gopkg.in/yaml.v2"
)

// Default settings
const (
	DefaultRootName            = "AssetBundles"
	DefaultContentsTableName   = "ContentsTable.json"
	DefaultVersionManifestName = "VersionManifest.json"
	DefaultDownloadTimeout     = 300 * time.Second
	DefaultMaxAttempts         = 1
	DefaultRetryInterval       = 500 * time.Millisecond
)

// ErrInvalidConfig indicates that a session cannot be built from some configuration
var ErrInvalidConfig = errors.New("invalid session configuration")

// Config describes a session over a content package.
//
// Field names match their serialized form (case-insensitive), so a Config may be unmarshalled by viper.
type Config struct {
	// Package is the name of the remote package, appended to RemoteURL
	Package string `json:"package" yaml:"package"`

	// BasePath is the read-only directory shipped with the installation
	BasePath string `json:"basePath" yaml:"basePath"`

	// OverlayPath is the writable cache directory populated by updates
	OverlayPath string `json:"overlayPath" yaml:"overlayPath"`

	// RemoteURL is the root of remote packages: a directory, or a http(s)://, gs:// or s3:// URL
	RemoteURL string `json:"remoteURL" yaml:"remoteURL"`

	RootName            string `json:"rootName" yaml:"rootName"`
	ContentsTableName   string `json:"contentsTableName" yaml:"contentsTableName"`
	VersionManifestName string `json:"versionManifestName" yaml:"versionManifestName"`

	DownloadTimeout time.Duration `json:"downloadTimeout" yaml:"downloadTimeout"`
	MaxAttempts     int           `json:"maxAttempts" yaml:"maxAttempts"`
	RetryInterval   time.Duration `json:"retryInterval" yaml:"retryInterval"`

	// AssetCacheSize is the number of decoded assets kept in memory per bundle. Zero disables caching.
	AssetCacheSize int `json:"assetCacheSize" yaml:"assetCacheSize"`

	// Emulated latencies, for testing purpose
	BundleLoadDelay time.Duration `json:"bundleLoadDelay,omitempty" yaml:"bundleLoadDelay,omitempty"`
	AssetLoadDelay  time.Duration `json:"assetLoadDelay,omitempty" yaml:"assetLoadDelay,omitempty"`
	DownloadDelay   time.Duration `json:"downloadDelay,omitempty" yaml:"downloadDelay,omitempty"`

	Metrics bool `json:"metrics" yaml:"metrics"`
}

// DefaultConfig is a configuration with all defaults set
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills all unset settings with their default value
func (c Config) WithDefaults() Config {
	if c.RootName == "" {
		c.RootName = DefaultRootName
	}
	if c.ContentsTableName == "" {
		c.ContentsTableName = DefaultContentsTableName
	}
	if c.VersionManifestName == "" {
		c.VersionManifestName = DefaultVersionManifestName
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = DefaultDownloadTimeout
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}

// Validate a configuration
func (c Config) Validate() error {
	switch {
	case c.BasePath == "":
		return ErrInvalidConfig.WrapMessage("a base path is required")
	case c.OverlayPath == "":
		return ErrInvalidConfig.WrapMessage("an overlay path is required")
	case c.AssetCacheSize < 0:
		return ErrInvalidConfig.WrapMessage("asset cache size must not be negative")
	case c.DownloadTimeout < 0:
		return ErrInvalidConfig.WrapMessage("download timeout must not be negative")
	}
	if c.RemoteURL != "" {
		if _, err := url.Parse(c.RemoteURL); err != nil {
			return ErrInvalidConfig.WrapMessage("remote URL %q", c.RemoteURL).Wrap(err)
		}
	}
	return nil
}

// Names of the package files
func (c Config) Names() updater.Names {
	return updater.Names{
		Root:            c.RootName,
		ContentsTable:   c.ContentsTableName,
		VersionManifest: c.VersionManifestName,
	}
}

// RemoteRoot is the root of the remote package: RemoteURL joined with the package name
func (c Config) RemoteRoot() string {
	if c.RemoteURL == "" || c.Package == "" {
		return c.RemoteURL
	}
	u, err := url.Parse(c.RemoteURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return path.Join(c.RemoteURL, c.Package)
	}
	u.Path = path.Join(u.Path, c.Package)
	return u.String()
}

// Layout of the tiers
func (c Config) Layout() locator.Layout {
	return locator.Layout{
		Base:    c.BasePath,
		Overlay: c.OverlayPath,
		Remote:  c.RemoteRoot(),
	}
}

// String renders the configuration as YAML
func (c Config) String() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
