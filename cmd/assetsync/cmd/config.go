// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nightlyone/lockfile"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/session"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrLocked indicates that another process is already modifying the overlay directory
var ErrLocked = errors.New("overlay directory is locked by another process")

// newConfig builds a session configuration from the config file, the environment and the command line
func newConfig() (session.Config, error) {
	var cfg session.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.Metrics = params.root.metrics
	return cfg.WithDefaults(), nil
}

// commandContext is cancelled when the process is interrupted
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openSession opens a session and calls fn with it. The session is set up first when setup is true.
func openSession(ctx context.Context, setup bool, fn func(*session.Session) error) error {
	cfg, err := newConfig()
	if err != nil {
		return err
	}
	return withSession(ctx, cfg, setup, fn)
}

// openExclusiveSession is like openSession, but holds a lock on the overlay directory while fn runs.
// Commands writing to the overlay use it, so concurrent syncs and purges do not step on each other.
func openExclusiveSession(ctx context.Context, fn func(*session.Session) error) (err error) {
	cfg, err := newConfig()
	if err != nil {
		return err
	}
	unlock, err := lockOverlay(cfg.OverlayPath)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return withSession(ctx, cfg, false, fn)
}

func withSession(ctx context.Context, cfg session.Config, setup bool, fn func(*session.Session) error) error {
	s, err := session.Open(ctx, cfg, session.Logger(logger))
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	if setup {
		if err := s.Setup(ctx); err != nil {
			return err
		}
	}
	return fn(s)
}

// overlayLockPath is a sibling of the overlay directory, so purging the overlay leaves the lock alone
func overlayLockPath(overlay string) (string, error) {
	if overlay == "" {
		return "", session.ErrInvalidConfig.WrapMessage("an overlay path is required")
	}
	abs, err := filepath.Abs(filepath.Clean(overlay))
	if err != nil {
		return "", err
	}
	return abs + ".lock", nil
}

func lockOverlay(overlay string) (func() error, error) {
	lockPath, err := overlayLockPath(overlay)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(lockPath), 0700); err != nil {
		return nil, err
	}
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, err
	}
	if err = lock.TryLock(); err != nil {
		return nil, ErrLocked.WrapMessage("lock file %s", lockPath).Wrap(err)
	}
	logger.Debug("overlay locked", zap.String("lock", lockPath))
	return lock.Unlock, nil
}
