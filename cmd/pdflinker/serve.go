package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdflinker/internal/feedback"
	"github.com/pyhub-apps/pdflinker/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Serve starts the web interface: upload a textbook PDF, download the
linked copy, and leave feedback. Progress is also available over a
websocket at /ws/link.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (default from configuration)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := feedback.Open(cfg.Feedback.Backend, cfg.FeedbackPath())
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
