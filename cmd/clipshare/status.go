package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipshare/internal/ipc"
	"go.klb.dev/clipshare/internal/shared"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show the shared files and the running daemon's sync counters",
		Long: `Displays the state of the shared directory. If a clipshare daemon is running
on this machine, its sync counters are fetched over the local IPC socket and
its directory is used when none is given.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), v, args)
		},
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addDirFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

type statusReport struct {
	Daemon *ipc.Status       `json:"daemon,omitempty"`
	Files  []shared.FileInfo `json:"files,omitempty"`
}

func runStatus(ctx context.Context, out io.Writer, v *viper.Viper, args []string) error {
	var rep statusReport

	if ipc.IsRunning() {
		st, err := ipc.Query(ctx, ipc.SocketPath())
		if err != nil {
			slog.Warn("daemon status unavailable", "err", err)
		} else {
			rep.Daemon = st
		}
	}

	path := sharedDir(v, args)
	if path == "" && rep.Daemon != nil {
		path = rep.Daemon.Dir
	}
	if path != "" {
		dir, err := shared.Open(path)
		if err != nil {
			return err
		}
		rep.Files = dir.Stat()
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	printStatus(out, rep)
	return nil
}

func printStatus(out io.Writer, rep statusReport) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	if d := rep.Daemon; d != nil {
		fmt.Fprintf(w, "Daemon:\trunning (pid %d, %s)\n", d.PID, d.Version)
		fmt.Fprintf(w, "Backend:\t%s\n", d.Backend)
		fmt.Fprintf(w, "Started:\t%s (%s)\n", d.Started.UTC().Format(time.RFC3339), fmtAge(d.Started))
	} else {
		fmt.Fprintf(w, "Daemon:\tnot running\n")
	}
	fmt.Fprintln(w)
	_ = w.Flush()

	if len(rep.Files) == 0 {
		fmt.Fprintln(out, "No shared directory given.")
		return
	}

	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "FILE\tSIZE\tMODIFIED\n")
	_, _ = fmt.Fprintf(tw, "----\t----\t--------\n")
	for _, f := range rep.Files {
		if !f.Exists {
			_, _ = fmt.Fprintf(tw, "%s\t-\t-\n", f.Name)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, fmtAge(f.ModTime))
	}
	_ = tw.Flush()

	if rep.Daemon == nil || len(rep.Daemon.Channels) == 0 {
		return
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "CHANNEL\tOUT\tIN\tSUPPRESSED\tECHOES\tDROPPED\n")
	_, _ = fmt.Fprintf(tw, "-------\t---\t--\t----------\t------\t-------\n")
	for _, c := range rep.Daemon.Channels {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			c.Channel, c.Outbound, c.Inbound, c.Suppressed, c.Echoes, c.Dropped)
	}
	_ = tw.Flush()
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("2006-01-02 15:04:05")
}
