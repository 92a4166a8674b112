package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/TestFlowLabs/bridge/internal/config"
	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodePortConflict indicates a service port is held by something bridge must not reuse.
	ExitCodePortConflict = 3
	// ExitCodeNotReady indicates a service was spawned but never became ready.
	ExitCodeNotReady = 4
)

var (
	configPath string
	logLevel   string
	debug      bool
)

// rootCmd represents the base command for the bridge application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Start and share the dev servers your browser tests need",
	Long: `bridge starts the frontend dev servers a browser test suite depends on,
reuses servers that an earlier run of the same project left behind, and
refuses to touch servers that belong to another project.

It also manages the shared fakes file that backend processes consult
for HTTP mocks, and renders the script that mocks requests in the browser.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		if debug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, orchestrator.ErrPortConflict):
		return ExitCodePortConflict
	case errors.Is(err, orchestrator.ErrNotReady):
		return ExitCodeNotReady
	default:
		return ExitCodeError
	}
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (config.Config, error) {
	return config.LoadConfig(configPath)
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (default ./"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level debug)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDownCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newFakeCmd())
	rootCmd.AddCommand(newScriptCmd())
}
