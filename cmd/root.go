// Package cmd implements the mythos command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mythosai/mythos/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "mythos",
	Short: "mythos - multi-modal lesson generator",
	Long: `mythos generates educational lessons and stories: structured text,
an illustration, a spoken narration and optionally a short video clip.

Generated lessons are kept in a small local history and can be continued
interactively through the HTTP API (mythos serve).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment switches to
// debug level; logs go to stderr so stdout stays clean for rendered output.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, cfg)
}
