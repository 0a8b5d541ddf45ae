// Package report renders a Markdown summary of a linking run.
package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/pyhub-apps/pdflinker/pkg/extract"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
)

// Write renders the summary of result for the document named source.
func Write(w io.Writer, source string, result *linker.Result) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, source, result)
	writeSummary(md, result)
	writePairs(md, result.Mapping)
	writeUnresolved(md, result.Mapping)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Run %s*", result.RunID)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, source string, result *linker.Result) {
	md.H1("pdflinker report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Document", "`" + source + "`"},
			{"Pages", strconv.Itoa(result.Pages)},
			{"Text backend", result.Backend},
			{"Solutions section", sectionText(result.Stats)},
		},
	})
	md.PlainText("")
}

func sectionText(stats extract.Stats) string {
	if stats.SectionPage < 0 {
		return "not detected"
	}
	return "from page " + strconv.Itoa(stats.SectionPage+1)
}

func writeSummary(md *markdown.Markdown, result *linker.Result) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Count"},
		Rows: [][]string{
			{"Problems found", strconv.Itoa(result.Records)},
			{"Pairs resolved", strconv.Itoa(result.Resolved)},
			{"Links added", strconv.Itoa(result.LinksAdded)},
			{"Links skipped", strconv.Itoa(result.Skipped)},
			{"Orphan solutions", strconv.Itoa(result.Orphans)},
			{"Duplicate markers", strconv.Itoa(result.Stats.Duplicates)},
			{"Pages without text", strconv.Itoa(result.Stats.TextlessPages)},
		},
	})
	md.PlainText("")

	switch {
	case result.Resolved == 0:
		md.Warningf("No problem could be paired with a solution; no output was written.")
	case result.Skipped > 0:
		md.Note(strconv.Itoa(result.Skipped) + " link(s) were skipped because a marker could not be located on its page.")
	default:
		md.Tip("Every resolved pair is linked.")
	}
	md.PlainText("")
}

func writePairs(md *markdown.Markdown, mapping extract.Mapping) {
	resolved := mapping.Resolved()
	if len(resolved) == 0 {
		return
	}

	md.H2("Linked problems")
	md.PlainText("")

	rows := make([][]string, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, []string{
			r.Key,
			strconv.Itoa(r.Problem.Page + 1),
			strconv.Itoa(r.Solution.Page + 1),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Problem", "Problem page", "Solution page"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeUnresolved(md *markdown.Markdown, mapping extract.Mapping) {
	unresolved := mapping.Unresolved()
	if len(unresolved) == 0 {
		return
	}

	md.H2("Problems without a solution")
	md.PlainText("")

	items := make([]string, 0, len(unresolved))
	for _, r := range unresolved {
		items = append(items, r.Key+" (page "+strconv.Itoa(r.Problem.Page+1)+")")
	}
	md.BulletList(items...)
	md.PlainText("")
}
