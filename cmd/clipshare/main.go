// clipshare: shared clipboard through a synchronized folder.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipshare/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipshare",
		Short: "Shared clipboard through a synchronized folder",
		Long: `clipshare mirrors the system clipboard into a folder that is kept in sync
between machines by something else (a cloud-sync client, a network share), and
mirrors changes in that folder back into the clipboard. Run "clipshare run" on
each machine, pointed at the same folder.

The folder holds two files, text.txt and img.png. Their names are fixed.

Config file search order (first found wins):
  /etc/clipshare/clipshare.toml
  $XDG_CONFIG_HOME/clipshare/clipshare.toml
  path supplied via --config

All flags can be set via CLIPSHARE_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipshare %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
