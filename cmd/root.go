// Package cmd implements the webhookd CLI using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/webhookd/internal/config"
)

var (
	eventsDir string
	logLevel  string
	logFile   string
)

// rootCmd represents the base command; invoking it with no subcommand runs
// the daemon (equivalent to "webhookd run").
var rootCmd = &cobra.Command{
	Use:     "webhookd",
	Short:   "webhookd - declarative event-routing daemon",
	Version: "0.1.0",
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&eventsDir, "events-dir", "",
		"directory of event definitions (default: $WEBHOOK_EVENTS_DIR or \"events\")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"trace|debug|info|warn|error|off (default: $WEBHOOK_LOG_LEVEL or \"warn\")")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"rotate logs to this path in addition to stdout (default: $WEBHOOK_LOG_FILE or none)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// resolveSettings layers explicit CLI flags over the environment-derived
// defaults; an empty flag value means "use the environment/default".
func resolveSettings() config.Settings {
	s := config.LoadSettings()
	if eventsDir != "" {
		s.EventsDir = eventsDir
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	if logFile != "" {
		s.LogFile = logFile
	}
	return s
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
