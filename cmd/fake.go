package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/pkg/mockbridge"
)

func newFakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fake",
		Short: "Manage the backend fakes file",
		Long: `Manage the fakes file shared with backend processes. Servers that read
the file answer matching outgoing HTTP requests with the configured
response instead of reaching the real upstream.`,
	}

	cmd.AddCommand(newFakeSetCmd())
	cmd.AddCommand(newFakeShowCmd())
	cmd.AddCommand(newFakeClearCmd())
	return cmd
}

func newFakeSetCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the fakes with the rules from a YAML or JSON file",
		Example: `  bridge fake set -f fakes.yaml
  cat fakes.json | bridge fake set -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bridge := cfg.Bridge()
			if err := bridge.Fake(rules); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d fake(s) to %s\n", rules.Len(), bridge.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Rules file, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newFakeShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active fakes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bridge := cfg.Bridge()
			rules, err := bridge.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rules)
			}
			if rules.Len() == 0 {
				fmt.Fprintf(out, "No fakes in %s\n", bridge.Path())
				return nil
			}

			t := newTable(out, "PATTERN", "STATUS", "HEADERS", "BODY")
			for _, e := range rules.Entries() {
				body, _, err := e.Rule.EncodeBody()
				if err != nil {
					return fmt.Errorf("fake %q: %w", e.Pattern, err)
				}
				t.AppendRow([]interface{}{e.Pattern, e.Rule.StatusCode(), formatHeaders(e.Rule.Headers), truncate(string(body), 40)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the rules as JSON")
	return cmd
}

func newFakeClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the fakes file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bridge := cfg.Bridge()
			if err := bridge.ClearFakes(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", bridge.Path())
			return nil
		},
	}
}

// readRules parses the rules in file, reading stdin when file is "-".
func readRules(stdin io.Reader, file string) (*mockbridge.RuleSet, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	rules, err := mockbridge.ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules from %s: %w", file, err)
	}
	return rules, nil
}

func formatHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + headers[k]
	}
	return strings.Join(parts, "\n")
}
