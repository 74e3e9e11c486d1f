package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshare/internal/bridge"
	"go.klb.dev/clipshare/internal/clip"
	"go.klb.dev/clipshare/internal/ipc"
	"go.klb.dev/clipshare/internal/shared"
	"go.klb.dev/clipshare/internal/watch"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Mirror the clipboard through the shared directory",
		Long: `Watches the system clipboard and the shared directory and keeps them in sync:
copied text goes to text.txt, copied images to img.png, and changes to either
file made by the other machine are put on this machine's clipboard.

The directory must exist. text.txt is created empty if absent.

Config file search order:
  /etc/clipshare/clipshare.toml
  $XDG_CONFIG_HOME/clipshare/clipshare.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSHARE_* env vars → flags`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), v, args)
		},
	}

	def := bridge.DefaultConfig()
	f := cmd.Flags()
	f.Int("text-debounce", def.TextDebounce, "raw notifications per logical change of text.txt")
	f.Int("image-debounce", def.ImageDebounce, "raw notifications per logical change of img.png")
	f.Duration("debounce-window", def.DebounceWindow, "restart a partial debounce count after this long (0 = never)")
	f.Int("image-confirm", def.ImageConfirmations, "identical clipboard notifications required before sharing an image")
	f.Bool("headless", false, "do not touch the system clipboard (files only)")
	f.Bool("no-ipc", false, "do not serve status on the local IPC socket")
	addDirFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runSync(ctx context.Context, v *viper.Viper, args []string) error {
	setupLogging(v)

	dir, err := shared.Init(sharedDir(v, args))
	if err != nil {
		return err
	}

	cfg := bridge.Config{
		TextDebounce:       v.GetInt("text-debounce"),
		ImageDebounce:      v.GetInt("image-debounce"),
		DebounceWindow:     v.GetDuration("debounce-window"),
		ImageConfirmations: v.GetInt("image-confirm"),
	}

	var backend clip.Backend
	if v.GetBool("headless") {
		backend = clip.NewHeadless()
	} else {
		backend = clip.Pinned(clip.New())
	}
	defer backend.Close()

	w, err := watch.New(dir.Root())
	if err != nil {
		return err
	}
	defer w.Close()

	ctrl := bridge.New(backend, dir, cfg)
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("clipshare starting",
		"version", Version,
		"dir", dir.Root(),
		"backend", backend.Name(),
		"text_debounce", cfg.TextDebounce,
		"image_confirm", cfg.ImageConfirmations,
	)

	if !v.GetBool("no-ipc") {
		serveStatus(ctx, dir, backend, ctrl)
	}

	err = ctrl.Run(ctx, clip.NewMonitor(backend), w)
	slog.Info("clipshare stopped")
	return err
}

// serveStatus exposes the controller's counters to `clipshare status`.
func serveStatus(ctx context.Context, dir *shared.Dir, backend clip.Backend, ctrl *bridge.Controller) {
	ln, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
		return
	}
	slog.Info("IPC socket listening", "path", ipc.SocketPath())

	started := time.Now()
	go ipc.Serve(ctx, ln, func() ipc.Status {
		return ipc.Status{
			Version:  Version,
			PID:      os.Getpid(),
			Dir:      dir.Root(),
			Backend:  backend.Name(),
			Started:  started,
			Channels: ctrl.Stats(),
		}
	})
}
