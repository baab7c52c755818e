// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/assetsync/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type paramsT struct {
	root struct {
		config   string
		logLevel string
		metrics  bool
		cpuProf  bool
	}
	asset struct {
		Path   string
		Output string
		Prefix string
		Glob   string
	}
	size struct {
		Bytes bool
	}
}

var params = paramsT{}

// settings which may be set from the config file, the environment or the command line
var configFlags = map[string]string{
	"package":        "package",
	"base":           "basePath",
	"overlay":        "overlayPath",
	"remote":         "remoteURL",
	"timeout":        "downloadTimeout",
	"max-attempts":   "maxAttempts",
	"retry-interval": "retryInterval",
}

func addConfigFileFlag(cmd *cobra.Command) string {
	const config = "config"
	cmd.PersistentFlags().StringVar(&params.root.config, config, "", "The configuration file. Defaults to $ASSETSYNC_CONFIG, then assetsync.yaml in ., $HOME/.assetsync or /etc/assetsync")
	return config
}

func addLogLevelFlag(cmd *cobra.Command) string {
	const logLevel = "loglevel"
	cmd.PersistentFlags().StringVar(&params.root.logLevel, logLevel, dlogger.LogLevelInfo, "The logging level: debug, info, warn, error or none")
	return logLevel
}

func addMetricsFlag(cmd *cobra.Command) string {
	const metrics = "metrics"
	cmd.PersistentFlags().BoolVar(&params.root.metrics, metrics, false, "Log metrics collected while running the command")
	return metrics
}

func addCPUProfFlag(cmd *cobra.Command) string {
	const cpuProf = "cpuprof"
	cmd.PersistentFlags().BoolVar(&params.root.cpuProf, cpuProf, false, "Toggle runtime profiling, written to cpu.prof")
	return cpuProf
}

// addConfigFlags declares flags overriding the configuration file
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("package", "", "The name of the remote package")
	flags.String("base", "", "The read-only directory shipped with the installation")
	flags.String("overlay", "", "The writable directory holding downloaded bundles")
	flags.String("remote", "", "The root of remote packages: a directory, or a http(s)://, gs:// or s3:// URL")
	flags.Duration("timeout", 0, "The timeout of every download attempt")
	flags.Int("max-attempts", 0, "The number of attempts to download each file")
	flags.Duration("retry-interval", 0, "The wait before the first retry of a failed download. Waits grow exponentially")

	bindConfigFlags(flags)
}

// bindConfigFlags binds flags to viper keys, so they take precedence over the config file and the environment
func bindConfigFlags(flags *pflag.FlagSet) {
	for flag, key := range configFlags {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logFatalln(err)
		}
	}
}

func addAssetFlag(cmd *cobra.Command) string {
	const asset = "asset"
	cmd.Flags().StringVar(&params.asset.Path, asset, "", "The path of the asset")
	return asset
}

func addOutputFlag(cmd *cobra.Command) string {
	const output = "output"
	cmd.Flags().StringVarP(&params.asset.Output, output, "o", "", "Write to this file instead of stdout")
	return output
}

func addPrefixFlag(cmd *cobra.Command) string {
	const prefix = "prefix"
	cmd.Flags().StringVar(&params.asset.Prefix, prefix, "", "List only assets under this path prefix")
	return prefix
}

func addGlobFlag(cmd *cobra.Command) string {
	const glob = "glob"
	cmd.Flags().StringVar(&params.asset.Glob, glob, "", `List only assets matching this pattern, e.g. "assets/**/*.json"`)
	return glob
}

func addBytesFlag(cmd *cobra.Command) string {
	const bytes = "bytes"
	cmd.Flags().BoolVar(&params.size.Bytes, bytes, false, "Print the size as a number of bytes")
	return bytes
}
