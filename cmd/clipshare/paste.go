package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshare/internal/codec"
	"go.klb.dev/clipshare/internal/shared"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste [dir]",
		Short: "Print the shared clipboard to stdout (like pbpaste)",
		Long: `Writes the content of the shared directory to stdout: text.txt by default,
img.png with --image. If nothing has been shared yet, nothing is printed
(exit 0).

  clipshare paste --image > screenshot.png`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaste(cmd.OutOrStdout(), v, args)
		},
	}

	cmd.Flags().Bool("image", false, "print img.png instead of text.txt")
	addDirFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runPaste(out io.Writer, v *viper.Viper, args []string) error {
	dir, err := shared.Open(sharedDir(v, args))
	if err != nil {
		return err
	}

	file := shared.TextFile
	if v.GetBool("image") {
		file = shared.ImageFile
	}

	raw, err := dir.Read(file)
	if errors.Is(err, fs.ErrNotExist) {
		// Nothing shared yet: exit 0, print nothing (pbpaste behaviour).
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", file.Name(), err)
	}

	if file == shared.ImageFile {
		p, err := codec.ImagePayload(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", file.Name(), err)
		}
		_, err = out.Write(p.Data)
		return err
	}

	p, err := codec.DecodeText(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", file.Name(), err)
	}
	_, err = out.Write(p.Data)
	return err
}
