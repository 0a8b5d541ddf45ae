package main

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdflinker/internal/feedback"
)

// NewFeedbackCmd creates the feedback command.
func NewFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Leave feedback or list what was left",
		Example: `  pdflinker feedback --name Ada --email ada@example.com --message "Works great"
  pdflinker feedback --list`,
		Args: cobra.NoArgs,
		RunE: runFeedbackCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Your name")
	cmd.Flags().StringP("email", "e", "", "Your e-mail address")
	cmd.Flags().StringP("message", "m", "", "Your feedback")
	cmd.Flags().BoolP("list", "l", false, "Print stored feedback as CSV")

	return cmd
}

func runFeedbackCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cmd)

	store, err := feedback.Open(cfg.Feedback.Backend, cfg.FeedbackPath())
	if err != nil {
		return err
	}
	defer store.Close()

	if list, _ := cmd.Flags().GetBool("list"); list {
		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		w := csv.NewWriter(cmd.OutOrStdout())
		_ = w.Write([]string{"Name", "Email", "Feedback"})
		for _, e := range entries {
			_ = w.Write([]string{e.Name, e.Email, e.Message})
		}
		w.Flush()
		return w.Error()
	}

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	message, _ := cmd.Flags().GetString("message")

	entry := feedback.Entry{Name: name, Email: email, Message: message, Time: time.Now().UTC()}
	if err := store.Save(cmd.Context(), entry); err != nil {
		return err
	}

	logger.Debug("feedback saved", "path", cfg.FeedbackPath())
	fmt.Fprintln(cmd.OutOrStdout(), "Thank you for your feedback!")
	return nil
}
