package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdflinker/internal/config"
	applog "github.com/pyhub-apps/pdflinker/internal/log"
)

// NewRootCmd creates the root command for pdflinker.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdflinker",
		Short: "Link textbook problems to their solutions",
		Long: `pdflinker scans a textbook PDF for problems formatted as 'X. ' (a number
followed by a dot and a space), finds the matching solutions and adds
clickable links between them.

Configuration is read from --config, .pdflinker.yaml in the current
directory, or config.yaml in the XDG config directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewLinkCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewFeedbackCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger builds the redacting logger on stderr and makes it the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	asJSON, _ := cmd.Flags().GetBool("log-json")
	logger := applog.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), asJSON)
	slog.SetDefault(logger)
	return logger
}

// loadConfig resolves the configuration file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
