// Command qdesigner drafts, validates and renders survey questionnaires.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qdesigner/internal/logging"
	"qdesigner/internal/settings"
)

var (
	workspace string
	logLevel  string
	verbose   bool

	// Set by the root command before any subcommand runs.
	logger *zap.Logger
	cfg    *settings.Settings
)

var rootCmd = &cobra.Command{
	Use:   "qdesigner",
	Short: "Questionnaire designer for market research",
	Long: `qdesigner drafts survey questionnaires with an LLM, validates them
against a strict schema, previews them in the terminal and renders
print-ready .docx documents.

Projects live under ~/.qdesigner/<project>/ ($QDESIGNER_HOME overrides).
Workspace settings are read from .qdesigner/settings.yaml and .env.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root, err := workspaceDir()
		if err != nil {
			return err
		}
		cfg, err = settings.Load(root)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(logging.Config{Level: level, Development: verbose})
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func workspaceDir() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory holding .qdesigner/ and .env (default: current)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// rootContext is the context of the running command, cancelled on SIGINT
// or SIGTERM.
func rootContext() context.Context {
	if ctx := rootCmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// commandContext is cmd's context, which cobra hands down from
// ExecuteContext, or the root context for commands run directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return rootContext()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "qdesigner: %v\n", err)
		stop()
		os.Exit(1)
	}
}
