package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdflinker/internal/config"
	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <input.pdf>",
		Short: "Show extracted lines and detected problems",
		Long: `Inspect prints the text lines pdflinker sees on each page and the
problems and solutions it would pair. Use it to pick --solutions-page or
--solutions-heading for a new book.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspectCmd,
	}

	cmd.Flags().StringP("backend", "b", "", "Text backend: ledongthuc or dslipak (default tries both)")
	cmd.Flags().IntP("page", "P", 0, "Only print lines of this 1-based page")
	cmd.Flags().Bool("words", false, "Print word boxes under each line")
	cmd.Flags().Float64("x-tolerance", config.DefaultTolerance, "X tolerance for word separation")
	cmd.Flags().Float64("y-tolerance", config.DefaultTolerance, "Y tolerance for line grouping")

	return cmd
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("x-tolerance") {
		cfg.Text.XTolerance, _ = cmd.Flags().GetFloat64("x-tolerance")
	}
	if cmd.Flags().Changed("y-tolerance") {
		cfg.Text.YTolerance, _ = cmd.Flags().GetFloat64("y-tolerance")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	scan, err := cfg.ScanOptions()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	scan.Logger = setupLogger(cmd)

	data, err := os.ReadFile(args[0]) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	backend, _ := cmd.Flags().GetString("backend")
	doc, err := openBackend(backend, data)
	if err != nil {
		return err
	}
	defer doc.Close()

	onlyPage, _ := cmd.Flags().GetInt("page")
	words, _ := cmd.Flags().GetBool("words")

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Backend: %s\nPages: %d\n", doc.Backend(), doc.PageCount())

	for _, page := range doc.GetPages() {
		if onlyPage > 0 && page.GetPageNumber() != onlyPage {
			continue
		}
		printPage(w, page, words, scan.TextOptions)
	}

	mapping, stats, err := extract.ScanContext(cmd.Context(), doc, scan, nil)
	if err != nil {
		return err
	}
	printMapping(w, mapping, stats)
	return nil
}

func openBackend(name string, data []byte) (pdf.Document, error) {
	r := bytes.NewReader(data)
	switch name {
	case "":
		return pdf.OpenBytes(data)
	case pdf.BackendLedongthuc:
		return pdf.OpenWithLedongthuc(r, int64(len(data)))
	case pdf.BackendDslipak:
		return pdf.OpenWithDslipak(r, int64(len(data)))
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func printPage(w io.Writer, page pdf.Page, words bool, opts []pdf.TextExtractionOption) {
	fmt.Fprintf(w, "\nPage %d (%.0fx%.0f, %d chars)\n",
		page.GetPageNumber(), page.GetWidth(), page.GetHeight(), len(page.GetChars()))
	if err := page.TextErr(); err != nil {
		fmt.Fprintf(w, "  no text: %v\n", err)
		return
	}

	for _, line := range page.ExtractLines(opts...) {
		fmt.Fprintf(w, "  %7.2f  %s\n", line.BBox.Y0, line.Text)
		if !words {
			continue
		}
		for _, word := range line.Words {
			fmt.Fprintf(w, "           [%.2f,%.2f,%.2f,%.2f] %q\n", word.X0, word.Y0, word.X1, word.Y1, word.Text)
		}
	}
}

func printMapping(w io.Writer, mapping extract.Mapping, stats extract.Stats) {
	fmt.Fprintf(w, "\nProblems: %d  Solutions: %d  Duplicates: %d  Orphans: %d\n",
		stats.Problems, stats.Solutions, stats.Duplicates, stats.Orphans)
	if stats.SectionPage >= 0 {
		fmt.Fprintf(w, "Solutions section starts on page %d\n", stats.SectionPage+1)
	} else {
		fmt.Fprintln(w, "No solutions section found")
	}

	for _, key := range mapping.Keys() {
		record := mapping[key]
		fmt.Fprintf(w, "  %-6s problem %s  solution %s\n", key, pageOf(record.Problem), pageOf(record.Solution))
	}
}

func pageOf(l *extract.Location) string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("p.%d", l.Page+1)
}
