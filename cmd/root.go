package cmd

import (
	"errors"
	"os"

	"steward/internal/config"
	"steward/internal/project"
	"steward/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands. These follow common conventions so scripts
// can distinguish bad input from failed host operations.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (host operation failed).
	ExitCodeError = 1
	// ExitCodeValidation indicates invalid input: a bad descriptor field or
	// an unknown project.
	ExitCodeValidation = 2
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command for the steward application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Provision and reconcile per-project services on this host",
	Long: `steward drives this host from whatever state it is in to the state
declared by the project descriptors: system identity, supervised process,
reverse-proxy site, TLS certificate, log rotation and health watchdog per
project.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, os.Stderr)
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// loadConfig loads the global configuration, honoring --config.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigFile
	}
	return config.LoadConfig(path)
}

// Execute is the main entry point for the CLI application. It initializes
// and executes the root command, which in turn handles subcommands and
// flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "steward version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var invalid *project.InvalidDescriptorError
	if errors.As(err, &invalid) {
		return ExitCodeValidation
	}

	var notFound *project.NotFoundError
	if errors.As(err, &notFound) {
		return ExitCodeValidation
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default is "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newAddProjectCmd())
	rootCmd.AddCommand(newRemoveProjectCmd())
	rootCmd.AddCommand(newPauseProjectCmd())
	rootCmd.AddCommand(newResumeProjectCmd())
	rootCmd.AddCommand(newCreateEnvCmd())
	rootCmd.AddCommand(newAddUserCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
