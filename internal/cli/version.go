package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version and Commit are set at build time via -ldflags. Without them the
// module version and vcs.revision recorded by the Go toolchain are used.
//
//	go build -ldflags "-X github.com/scbrown/shelf/internal/cli.Version=v0.2.0
//	  -X github.com/scbrown/shelf/internal/cli.Commit=48cae1d"
var (
	Version = ""
	Commit  = ""
)

// buildVersion describes the running shelf binary.
type buildVersion struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
}

func (b buildVersion) String() string {
	if b.Commit == "" {
		return "shelf " + b.Version
	}
	return fmt.Sprintf("shelf %s (%s)", b.Version, b.Commit)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and commit hash",
	Long: `Print the shelf version string.

When built from a tagged release or installed with go install, shows that
version. Otherwise shows "dev". The git commit hash is included when known.
With --json the Go toolchain version is reported as well.

Examples:
  shelf v0.2.0 (48cae1d)
  shelf dev (48cae1d)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, _ := debug.ReadBuildInfo()
		v := resolveVersion(info)
		if jsonOutput {
			return writeIndentedJSON(cmd.OutOrStdout(), v)
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolveVersion prefers the -ldflags values and falls back to info, which
// may be nil.
func resolveVersion(info *debug.BuildInfo) buildVersion {
	v := buildVersion{Version: Version, Commit: shortCommit(Commit), GoVersion: runtime.Version()}
	if info != nil {
		if v.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v.Version = info.Main.Version
		}
		if v.Commit == "" {
			if rev := buildSetting(info, "vcs.revision"); rev != "" {
				v.Commit = shortCommit(rev)
				if buildSetting(info, "vcs.modified") == "true" {
					v.Commit += "-dirty"
				}
			}
		}
	}
	if v.Version == "" {
		v.Version = "dev"
	}
	return v
}

// buildSetting returns the value of key from the embedded build settings.
func buildSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// shortCommit returns the first 7 characters of a commit hash.
func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
