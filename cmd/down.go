package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/internal/config"
	"github.com/TestFlowLabs/bridge/internal/marker"
	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

func newDownCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop dev servers left running by earlier runs",
		Long: `Stop the servers whose markers prove they were started for the configured
services of this project. With --all, stop every live server recorded in
the marker directory, whatever project it belongs to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := cfg.MarkerStore()
			out := cmd.OutOrStdout()

			targets, err := downTargets(cfg, store, all)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				fmt.Fprintln(out, "Nothing to stop")
				return nil
			}

			var failed int
			for _, rec := range targets {
				if err := orchestrator.TerminatePID(cmd.Context(), rec.PID, cfg.StopGracePeriod.D()); err != nil {
					logging.Error("Down", err, "Failed to stop pid %d on port %d", rec.PID, rec.Port)
					failed++
					continue
				}
				if err := store.Delete(rec.Port); err != nil {
					return err
				}
				fmt.Fprintf(out, "Stopped pid %d on port %d (%s)\n", rec.PID, rec.Port, rec.Cwd)
			}
			if failed > 0 {
				return fmt.Errorf("failed to stop %d server(s)", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Stop every live server in the marker directory")
	return cmd
}

// downTargets returns the live markers to stop.
func downTargets(cfg config.Config, store *marker.Store, all bool) ([]marker.Record, error) {
	if all {
		records, err := store.List()
		if err != nil {
			return nil, err
		}
		var live []marker.Record
		for _, rec := range records {
			if store.Alive(rec) {
				live = append(live, rec)
			}
		}
		return live, nil
	}

	var targets []marker.Record
	seen := make(map[int]bool)
	for _, def := range cfg.Definitions(config.BaseDir(configPath)) {
		if !def.Managed() {
			continue
		}
		port, err := def.Port()
		if err != nil || seen[port] {
			continue
		}
		seen[port] = true

		outcome, rec, err := store.Verify(port, def.Cwd())
		if err != nil {
			return nil, err
		}
		switch outcome {
		case marker.Match:
			targets = append(targets, *rec)
		case marker.Mismatch:
			logging.Warn("Down", "Port %d of %s belongs to %s, leaving it alone", port, def.Name(), rec.Cwd)
		}
	}
	return targets, nil
}
