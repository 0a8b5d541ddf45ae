package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdflinker/internal/config"
	"github.com/pyhub-apps/pdflinker/internal/progress"
	"github.com/pyhub-apps/pdflinker/internal/report"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
)

// defaultOutput is the file written when --output is not given.
const defaultOutput = "linked_textbook.pdf"

// NewLinkCmd creates the link command.
func NewLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <input.pdf>",
		Short: "Add problem and solution links to a PDF",
		Long: `Link scans the input PDF for problem markers, pairs every problem with
its solution and writes a copy with clickable links between them.

The solutions section starts at --solutions-page, at the first line
matching --solutions-heading, or, with --restart-after, when numbering
restarts after that many problems.`,
		Example: `  pdflinker link textbook.pdf -o linked_textbook.pdf
  pdflinker link textbook.pdf --solutions-heading '^Answers' --report report.md
  pdflinker link textbook.pdf --pattern numbered --pattern exercise --one-way`,
		Args: cobra.ExactArgs(1),
		RunE: runLinkCmd,
	}

	cmd.Flags().StringP("output", "o", defaultOutput, "Output PDF path")
	cmd.Flags().StringP("report", "r", "", "Write a Markdown report to this path")
	cmd.Flags().IntP("solutions-page", "s", 0, "1-based page on which solutions start")
	cmd.Flags().StringP("solutions-heading", "H", "", "Regular expression matching the solutions heading")
	cmd.Flags().Int("restart-after", 0, "Start solutions when numbering restarts after this many problems")
	cmd.Flags().StringSliceP("pattern", "p", nil, "Built-in marker pattern to enable (repeatable)")
	cmd.Flags().Bool("one-way", false, "Only link problems to solutions")
	cmd.Flags().Float64("padding", config.Default().Padding, "Padding around link rectangles in points")
	cmd.Flags().BoolP("quiet", "q", false, "Do not show progress")

	return cmd
}

func runLinkCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyLinkFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(logger)
	defer cancel()

	inputPath := args[0]
	input, err := os.ReadFile(inputPath) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	opts, err := cfg.LinkerOptions()
	if err != nil {
		return err
	}
	opts = append(opts, linker.WithLogger(logger))

	quiet, _ := cmd.Flags().GetBool("quiet")
	var bar *progress.Bar
	if !quiet {
		bar = progress.New(cmd.ErrOrStderr(), "Linking "+filepath.Base(inputPath))
		opts = append(opts, linker.WithProgress(bar.Update))
	}

	var out bytes.Buffer
	result, linkErr := linker.New(opts...).Link(ctx, input, &out)
	if bar != nil {
		bar.Done()
	}

	reportPath, _ := cmd.Flags().GetString("report")
	if reportPath != "" && result != nil {
		if err := writeReport(reportPath, inputPath, result); err != nil {
			return errors.Join(linkErr, err)
		}
	}

	if linkErr != nil {
		if errors.Is(linkErr, linker.ErrNoProblemsFound) {
			return fmt.Errorf("%s: %w (try --solutions-page or --solutions-heading)", inputPath, linkErr)
		}
		return fmt.Errorf("%s: %w", inputPath, linkErr)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if err := os.WriteFile(outputPath, out.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Linked %d of %d problems (%d links) -> %s\n",
		result.Resolved, result.Records, result.LinksAdded, outputPath)
	return nil
}

// applyLinkFlags overrides configuration values with explicitly set flags.
func applyLinkFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("solutions-page") {
		n, err := flags.GetInt("solutions-page")
		if err != nil {
			return err
		}
		cfg.Boundary.SolutionsFromPage = n
	}
	if flags.Changed("solutions-heading") {
		heading, err := flags.GetString("solutions-heading")
		if err != nil {
			return err
		}
		cfg.Boundary.SolutionsHeading = heading
	}
	if flags.Changed("restart-after") {
		n, err := flags.GetInt("restart-after")
		if err != nil {
			return err
		}
		cfg.Boundary.RestartAfter = n
	}
	if flags.Changed("pattern") {
		names, err := flags.GetStringSlice("pattern")
		if err != nil {
			return err
		}
		cfg.Patterns.Enabled = names
	}
	if flags.Changed("one-way") {
		oneWay, err := flags.GetBool("one-way")
		if err != nil {
			return err
		}
		cfg.Bidirectional = !oneWay
	}
	if flags.Changed("padding") {
		padding, err := flags.GetFloat64("padding")
		if err != nil {
			return err
		}
		cfg.Padding = padding
	}
	return nil
}

func writeReport(path, source string, result *linker.Result) error {
	f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, filepath.Base(source), result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
