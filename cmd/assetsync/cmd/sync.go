// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/assetsync/pkg/manifest"
	"github.com/oneconcern/assetsync/pkg/session"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download updated bundles",
	Long: `Download all bundles of the remote package which are newer than the local copies.

Downloaded bundles go to the overlay directory. The manifest of the overlay is saved
even when the download is interrupted, so an interrupted sync resumes where it stopped.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "sync", err)
		}(time.Now())

		ctx, cancel := commandContext()
		defer cancel()

		out := cmd.OutOrStdout()
		bundleColor := color.New(color.FgGreen).SprintFunc()
		err = openExclusiveSession(ctx, func(s *session.Session) error {
			var count int
			var total int64
			err := s.DownloadPackage(ctx, func(v manifest.VersionEntry) {
				count++
				total += v.ByteSize
				fmt.Fprintf(out, "%s %s (%s)\n", color.CyanString("downloaded"), bundleColor(v.FilePath), units.HumanSize(float64(v.ByteSize)))
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d bundle(s) updated, %s downloaded\n", count, units.HumanSize(float64(total)))
			return nil
		})
		if err != nil {
			wrapFatalln("sync failed", err)
			return
		}
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the size of the next sync",
	Long:  "Print the total size of the bundles a sync would download",
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "size", err)
		}(time.Now())

		ctx, cancel := commandContext()
		defer cancel()

		var size int64
		err = openSession(ctx, false, func(s *session.Session) (e error) {
			size, e = s.CalculateDownloadSize(ctx)
			return
		})
		if err != nil {
			wrapFatalln("cannot compute download size", err)
			return
		}
		if params.size.Bytes {
			fmt.Fprintln(cmd.OutOrStdout(), size)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), units.HumanSize(float64(size)))
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete downloaded bundles",
	Long:  "Delete all bundles from the overlay directory. Assets are served from the base directory until the next sync.",
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "purge", err)
		}(time.Now())

		ctx, cancel := commandContext()
		defer cancel()

		err = openExclusiveSession(ctx, func(s *session.Session) error {
			return s.DeleteBundleCache(ctx)
		})
		if err != nil {
			wrapFatalln("purge failed", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("bundle cache deleted"))
	},
}

func init() {
	addBytesFlag(sizeCmd)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(purgeCmd)
}
