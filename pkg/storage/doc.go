// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// Content packages are laid out on storage tiers, each one exposed as a Store.
//
// This package supports the following backends:
//   - local file system (read-only base tier, writable overlay tier)
//   - HTTP(S) origins (GET only)
//   - GCS (Google)
//   - S3 (AWS)
package storage
