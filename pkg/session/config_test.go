// Copyright © 2018 One Concern

package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/assetsync/pkg/locator"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v2"
)

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultRootName, cfg.RootName)
	assert.Equal(t, DefaultContentsTableName, cfg.ContentsTableName)
	assert.Equal(t, DefaultVersionManifestName, cfg.VersionManifestName)
	assert.Equal(t, DefaultDownloadTimeout, cfg.DownloadTimeout)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)

	custom := Config{MaxAttempts: 3, RootName: "Root"}.WithDefaults()
	assert.Equal(t, 3, custom.MaxAttempts)
	assert.Equal(t, "Root", custom.RootName)
	assert.Equal(t, "Root.manifest", custom.Names().Companion())
}

func TestConfigValidate(t *testing.T) {
	for _, toPin := range []struct {
		Name  string
		Cfg   Config
		Valid bool
	}{
		{Name: "valid", Cfg: testConfig(), Valid: true},
		{Name: "no remote", Cfg: Config{BasePath: "/a", OverlayPath: "/b"}, Valid: true},
		{Name: "no base", Cfg: Config{OverlayPath: "/b"}},
		{Name: "no overlay", Cfg: Config{BasePath: "/a"}},
		{Name: "negative cache size", Cfg: Config{BasePath: "/a", OverlayPath: "/b", AssetCacheSize: -1}},
		{Name: "invalid remote", Cfg: Config{BasePath: "/a", OverlayPath: "/b", RemoteURL: "http://[::1"}},
	} {
		testCase := toPin
		t.Run(testCase.Name, func(t *testing.T) {
			err := testCase.Cfg.Validate()
			if testCase.Valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestRemoteRoot(t *testing.T) {
	for _, toPin := range []struct {
		RemoteURL string
		Package   string
		Expected  string
	}{
		{RemoteURL: "", Package: "v1", Expected: ""},
		{RemoteURL: "/srv/cdn", Package: "", Expected: "/srv/cdn"},
		{RemoteURL: "/srv/cdn", Package: "v1", Expected: "/srv/cdn/v1"},
		{RemoteURL: "https://cdn.example.com/packages/", Package: "v1", Expected: "https://cdn.example.com/packages/v1"},
		{RemoteURL: "gs://bucket", Package: "v1", Expected: "gs://bucket/v1"},
		{RemoteURL: "s3://bucket/prefix", Package: "v1", Expected: "s3://bucket/prefix/v1"},
	} {
		testCase := toPin
		cfg := Config{RemoteURL: testCase.RemoteURL, Package: testCase.Package}
		assert.Equal(t, testCase.Expected, cfg.RemoteRoot(), testCase.RemoteURL)
	}
}

func TestConfigYAML(t *testing.T) {
	cfg := testConfig().WithDefaults()
	cfg.AssetCacheSize = 16

	var decoded Config
	require.NoError(t, yaml.Unmarshal([]byte(cfg.String()), &decoded))
	assert.Equal(t, cfg, decoded)
	assert.True(t, strings.Contains(cfg.String(), "basePath: "+basePath))
}

func TestRemoteStores(t *testing.T) {
	s := newSession(testConfig(),
		Fs(afero.NewMemMapFs()),
		Logger(zap.NewNop()),
		GCSOptions(option.WithoutAuthentication()),
		AWSConfig(&aws.Config{Region: aws.String("us-west-2")}),
	)
	ctx := context.Background()

	for _, toPin := range []struct {
		Root     string
		Contains string
	}{
		{Root: "/srv/cdn/v1", Contains: "/srv/cdn/v1"},
		{Root: "file:///srv/cdn/v1", Contains: "/srv/cdn/v1"},
		{Root: "https://cdn.example.com/v1", Contains: "https://cdn.example.com/v1/"},
		{Root: "gs://bucket/packages/v1", Contains: "bucket"},
		{Root: "s3://bucket/packages/v1", Contains: "bucket"},
	} {
		testCase := toPin
		store, err := s.remoteStore(ctx, testCase.Root)
		require.NoError(t, err, testCase.Root)
		assert.Contains(t, store.String(), testCase.Contains)
	}

	_, err := s.remoteStore(ctx, "ftp://example.com/v1")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestOpenInvalid(t *testing.T) {
	_, err := Open(context.Background(), Config{}, Fs(afero.NewMemMapFs()))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = New(Config{}, locator.Stores{})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDelay(t *testing.T) {
	assert.Nil(t, Delay(0))

	hook := Delay(5 * time.Millisecond)
	start := time.Now()
	require.NoError(t, hook(context.Background(), "x"))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Delay(time.Hour)(ctx, "x")
	assert.True(t, errors.Is(err, context.Canceled))
}
