// Package main is chicc's entry point and command registration hub: a
// thin driver over the internal/parser -> internal/check ->
// internal/mir -> internal/layout -> internal/reflect pipeline, kept
// only as a smoke-test harness over the five subsystems (none of their
// semantics live here).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version info, set by ldflags during release builds.
	Version = "dev"
	Commit  = "unknown"

	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chicc",
	Short: "chicc - front end driver for the chic language compiler core",
	Long: `chicc drives the chic compiler front end: lexer, parser, type
checker, MIR builder, and type layout engine.

It exists as a smoke-test harness over those subsystems, not as a
production build tool: there is no back-end code generation, linking,
or incremental caching here.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(checkCmd, buildCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chicc %s (%s)\n", Version, Commit)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
