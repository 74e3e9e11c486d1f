package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshare/internal/codec"
	"go.klb.dev/clipshare/internal/shared"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy [dir]",
		Short: "Copy stdin to the shared directory (like pbcopy)",
		Long: `Reads stdin and writes it to the shared directory, where every running
clipshare instance picks it up. Text replaces text.txt; with --image, stdin must
be a PNG and replaces img.png.

  clipshare copy < notes.txt
  clipshare copy --image < screenshot.png`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd.InOrStdin(), v, args)
		},
	}

	cmd.Flags().Bool("image", false, "stdin is a PNG image")
	addDirFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runCopy(in io.Reader, v *viper.Viper, args []string) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	dir, err := shared.Init(sharedDir(v, args))
	if err != nil {
		return err
	}

	if v.GetBool("image") {
		p, err := codec.ImagePayload(data)
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		slog.Debug("copy: image", "size_bytes", p.Size())
		return dir.WriteImage(p.Data)
	}

	p, err := codec.DecodeText(data)
	if err != nil {
		return fmt.Errorf("stdin: %w", err)
	}
	b, err := codec.EncodeText(p)
	if err != nil {
		return err
	}
	return dir.WriteText(b)
}
