package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionTemplate renders `bridge --version`; `bridge version` prints the same line.
const versionTemplate = `{{printf "bridge version %s\n" .Version}}`

func versionLine() string {
	return fmt.Sprintf("bridge version %s\n", rootCmd.Version)
}

// newVersionCmd creates the Cobra command for displaying the application version.
// With --verbose it also reports the runtime and the shared paths the loaded
// configuration resolves to, which must agree between a test run and its
// backend processes.
func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bridge",
		Long: `Print the version number of bridge. With --verbose, also print the Go
runtime and the marker directory and fakes file the configuration uses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprint(out, versionLine())
			if !verbose {
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "go:          %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "marker dir:  %s\n", cfg.MarkerStore().Dir())
			fmt.Fprintf(out, "fakes file:  %s\n", cfg.Bridge().Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Also print runtime and shared file locations")
	return cmd
}
