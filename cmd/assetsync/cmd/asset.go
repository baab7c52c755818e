// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/oneconcern/assetsync/pkg/session"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Get an asset",
	Long: `Load an asset, along with the bundle holding it and all its dependencies,
then write its content to stdout or to some file.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "get", err)
		}(time.Now())

		ctx, cancel := commandContext()
		defer cancel()

		err = openSession(ctx, true, func(s *session.Session) error {
			handle, err := s.LoadAsset(ctx, params.asset.Path)
			if err != nil {
				return err
			}
			defer func() {
				_ = s.UnloadAsset(handle)
			}()

			if params.asset.Output == "" {
				_, err = cmd.OutOrStdout().Write(handle.Asset.Data)
				return err
			}
			return afero.WriteFile(outputFs, params.asset.Output, handle.Asset.Data, 0644)
		})
		if err != nil {
			wrapFatalln(fmt.Sprintf("cannot get asset %q", params.asset.Path), err)
			return
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	Long: `List the assets of the package, optionally restricted to some path prefix.

With --glob, only assets matching the pattern are listed. Patterns support "**"
to match any number of directories.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "list", err)
		}(time.Now())

		ctx, cancel := commandContext()
		defer cancel()

		err = openSession(ctx, true, func(s *session.Session) error {
			assets, err := s.Assets(params.asset.Prefix)
			if err != nil {
				return err
			}
			if assets, err = filterGlob(params.asset.Glob, assets); err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), assets)
		})
		if err != nil {
			wrapFatalln("cannot list assets", err)
			return
		}
	},
}

var outputFs = afero.NewOsFs()

// filterGlob keeps the asset paths matching pattern. An empty pattern keeps them all.
func filterGlob(pattern string, assets []string) ([]string, error) {
	if pattern == "" {
		return assets, nil
	}
	matching := make([]string, 0, len(assets))
	for _, asset := range assets {
		ok, err := doublestar.Match(pattern, asset)
		if err != nil {
			return nil, err
		}
		if ok {
			matching = append(matching, asset)
		}
	}
	return matching, nil
}

func printLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	requiredFlags := []string{addAssetFlag(getCmd)}
	addOutputFlag(getCmd)
	addPrefixFlag(listCmd)
	addGlobFlag(listCmd)

	for _, flag := range requiredFlags {
		err := getCmd.MarkFlagRequired(flag)
		if err != nil {
			logFatalln(err)
		}
	}

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}
