package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jarvis/internal/ipc"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "jarvis-daemon not reachable:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		socket  string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "jarvis-ctl",
		Short:         "Control a running jarvis daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&socket, "socket", "s", ipc.DefaultSocketPath, "Daemon control socket")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Request timeout")

	send := func(cmd *cobra.Command, req ipc.Request) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		resp, err := ipc.Send(ctx, socket, req)
		if err != nil {
			return err
		}
		printResponse(cmd.OutOrStdout(), resp)
		return nil
	}

	simple := func(use, short, name string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return send(cmd, ipc.Request{Cmd: name})
			},
		}
	}
	withText := func(use, short, name string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, ipc.Request{Cmd: name, Text: strings.Join(args, " ")})
			},
		}
	}

	root.AddCommand(
		simple("trigger", "Start listening as if the hotword was heard", ipc.CmdTrigger),
		withText("say <command...>", "Run a typed command", ipc.CmdSay),
		simple("status", "Show session state and counters", ipc.CmdStatus),
		simple("history", "List recent commands", ipc.CmdHistory),
		withText("note <text...>", "Save a note; #words become tags", ipc.CmdNote),
		simple("notes", "List saved notes", ipc.CmdNotes),
	)
	return root
}

func printResponse(w io.Writer, resp ipc.Response) {
	if resp.Reply != "" {
		fmt.Fprintln(w, resp.Reply)
	}
	for _, l := range resp.Lines {
		fmt.Fprintln(w, l)
	}
	if resp.End {
		fmt.Fprintln(w, "(session ended)")
	}
}
