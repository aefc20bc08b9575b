package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=v1.2.3" in release builds.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the job-assistant build version",
	Run: func(cmd *cobra.Command, _ []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s (%s)\n", app, version, runtime.Version())
	if rev := vcsRevision(); rev != "" {
		fmt.Fprintf(w, "commit %s\n", rev)
	}
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
