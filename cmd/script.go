package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/internal/browsermock"
)

func newScriptCmd() *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Render the browser mock script for a rules file",
		Long: `Render the JavaScript that replaces fetch and XMLHttpRequest in a page so
that requests matching the rules are answered locally. Install the
output as an init script in the browser driving the tests.`,
		Example: `  bridge script -f mocks.yaml -o mocks.js`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			script, err := browsermock.Generate(browsermock.FromRuleSet(rules))
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), script)
				return err
			}
			if err := os.WriteFile(output, []byte(script), 0o644); err != nil {
				return fmt.Errorf("failed to write script: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rule(s) to %s\n", rules.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Rules file, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to this file instead of stdout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
