package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/pkg/harness"
)

const shutdownTimeout = 30 * time.Second

func newUpCmd() *cobra.Command {
	var (
		follow bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the configured services and keep them running",
		Long: `Start every service in the configuration, reusing servers this project
already has running, and wait until interrupted. Servers started by this
command are stopped on exit; reused servers are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var output io.Writer
			if follow {
				output = out
			}
			run, err := harness.NewFromConfig(configPath, output)
			if err != nil {
				return err
			}

			if len(run.Services()) == 0 {
				fmt.Fprintln(out, "No services configured")
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := startServices(ctx, cmd.ErrOrStderr(), run, quiet || follow); err != nil {
				stopServices(run)
				return err
			}

			printServices(out, run.Services())
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			<-ctx.Done()
			fmt.Fprintln(out, "Stopping services...")
			return stopServices(run)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Print the output of spawned servers")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress spinner")
	return cmd
}

func startServices(ctx context.Context, w io.Writer, run *harness.Run, quiet bool) error {
	if quiet {
		return run.Start(ctx)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = fmt.Sprintf(" Starting %d service(s)...", len(run.Services()))
	s.Start()
	defer s.Stop()

	if err := run.Start(ctx); err != nil {
		s.FinalMSG = text.FgRed.Sprint("Failed to start services") + "\n"
		return err
	}
	s.FinalMSG = text.FgGreen.Sprint("All services ready") + "\n"
	return nil
}

func stopServices(run *harness.Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return run.Stop(ctx)
}

func printServices(w io.Writer, services []harness.Status) {
	t := newTable(w, "SERVICE", "URL", "STATE", "PID", "COMMAND")
	for _, s := range services {
		state := s.State
		if state == "reusing" {
			state = "reused"
		}
		pid := "-"
		if s.PID != 0 {
			pid = fmt.Sprint(s.PID)
		}
		command := s.Command
		if command == "" {
			command = text.FgHiBlack.Sprint("(external)")
		}
		t.AppendRow([]interface{}{s.Name, s.URL, colorState(state), pid, truncate(command, 48)})
	}
	t.Render()
}
