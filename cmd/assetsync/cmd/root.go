// Copyright © 2018 One Concern

package cmd

import (
	"log"
	"os"
	"runtime/pprof"

	"github.com/oneconcern/assetsync/pkg/dlogger"
	"github.com/oneconcern/assetsync/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetsync",
	Short: "assetsync keeps a local cache of asset bundles in sync with a remote package",
	Long: `assetsync keeps a local cache of asset bundles in sync with a remote package.

Bundles shipped with the installation (the base directory) are superseded by newer versions
downloaded into a writable overlay directory. Assets are served from whichever copy is newest.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if params.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				wrapFatalln("cannot create profile", err)
				return
			}
			_ = pprof.StartCPUProfile(f)
		}
		l, err := dlogger.GetLogger(params.root.logLevel)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		logger = l
		if params.root.metrics {
			metrics.Init(metrics.WithLogger(logger))
			cliMetrics = metrics.EnsureMetrics("assetsync", &M{}).(*M)
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if params.root.cpuProf {
			pprof.StopCPUProfile()
		}
		_ = logger.Sync()
	},
}

var logger = zap.NewNop()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		wrapFatalWithCodef(1, "%v", err)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addConfigFileFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addMetricsFlag(rootCmd)
	addCPUProfFlag(rootCmd)
	addConfigFlags(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	switch {
	case params.root.config != "":
		viper.SetConfigFile(params.root.config)
	case os.Getenv("ASSETSYNC_CONFIG") != "":
		viper.SetConfigFile(os.Getenv("ASSETSYNC_CONFIG"))
	default:
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.assetsync")
		viper.AddConfigPath("/etc/assetsync")
		viper.SetConfigName("assetsync")
	}

	viper.SetEnvPrefix("assetsync")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}
