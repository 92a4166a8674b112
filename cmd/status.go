package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/internal/config"
	"github.com/TestFlowLabs/bridge/internal/marker"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the dev servers recorded in the marker directory",
		Long: `List every port marker on this machine with the process that owns it,
whether that process is still alive and which configured service it
belongs to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := cfg.MarkerStore()

			records, err := store.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No markers in %s\n", store.Dir())
				return nil
			}

			owners := serviceOwners(cfg)
			t := newTable(out, "PORT", "SERVICE", "STATE", "PID", "CWD", "COMMAND", "STARTED")
			for _, rec := range records {
				state := "stale"
				if store.Alive(rec) {
					state = "live"
				}
				t.AppendRow([]interface{}{
					rec.Port,
					owners.describe(rec),
					colorState(state),
					rec.PID,
					rec.Cwd,
					truncate(rec.Command, 40),
					rec.StartedAt.Local().Format(time.DateTime),
				})
			}
			t.Render()
			return nil
		},
	}
}

type owner struct {
	name string
	cwd  string
}

type ownerIndex map[int][]owner

// serviceOwners indexes the configured managed services by port.
func serviceOwners(cfg config.Config) ownerIndex {
	index := make(ownerIndex)
	for _, def := range cfg.Definitions(config.BaseDir(configPath)) {
		if !def.Managed() {
			continue
		}
		port, err := def.Port()
		if err != nil {
			continue
		}
		index[port] = append(index[port], owner{name: def.Name(), cwd: marker.Canonical(def.Cwd())})
	}
	return index
}

func (idx ownerIndex) describe(rec marker.Record) string {
	var names []string
	for _, o := range idx[rec.Port] {
		if o.cwd == rec.Cwd {
			names = append(names, o.name)
		} else {
			names = append(names, o.name+" (other project)")
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
