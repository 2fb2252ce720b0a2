// icelock-repl loads a YAML document into a guarded view and lets you poke
// at it interactively: read it, try to mutate it, freeze and thaw it.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phroun/icelock"
)

var (
	filePath string
	thawed   bool
	inherit  bool
	rewrap   bool
	verbose  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "icelock-repl",
	Short: "Interactive guarded-view explorer",
	Long: `icelock-repl guards a YAML document and starts an interactive session.

Reads always succeed. Mutations fail while the document is frozen;
use 'unfreeze' and 'freeze' to toggle, optionally on a single subtree.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		repl := NewREPL(cmd.OutOrStdout(), replOptions())
		if filePath != "" {
			if err := repl.load(filePath); err != nil {
				return err
			}
		}
		repl.Run(bufio.NewReader(cmd.InOrStdin()))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "YAML document to load")
	rootCmd.Flags().BoolVar(&thawed, "thawed", false, "start the top-level view thawed")
	rootCmd.Flags().BoolVar(&inherit, "inherit", false, "nested views start in the same state as the top level")
	rootCmd.Flags().BoolVar(&rewrap, "rewrap", false, "guard composite values inserted while thawed")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log guard events")
}

func replOptions() icelock.Options {
	opts := icelock.Options{
		InheritState:   inherit,
		RewrapInserted: rewrap,
		Logger:         logger,
	}
	if thawed {
		opts.Initial = icelock.Thawed
	}
	return opts
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
