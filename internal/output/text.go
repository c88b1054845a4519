package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/deltacheck/internal/review"
)

// TextWriter outputs a human-readable text report. Tables use the plain
// dashed layout: a rule of dashes per column above and below, columns two
// spaces apart, the header as the first row.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("%s: %s review of %s against %s\n", report.Tool, report.Mode, report.Repo.Branch, report.Repo.Target)
	if report.Repo.Root != "" {
		ew.printf("Repository: %s\n", report.Repo.Root)
	}
	ew.printf("Files: %d code, %d test\n", len(report.Files.Code), len(report.Files.Test))

	for _, sec := range report.Sections {
		ew.printf("\n%s...\n", sec.Title)
		if sec.Notice != "" {
			ew.println(sec.Notice)
		}
		if sec.Status != review.StatusOK {
			continue
		}
		if len(sec.Columns) > 0 {
			rows := [][]string{sec.Columns}
			for _, r := range sec.Rows {
				rows = append(rows, rowCells(r))
			}
			ew.printf("%s", Tabulate(rows))
			continue
		}
		for _, line := range sec.Text {
			ew.println(line)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Findings: %d", report.Summary.Findings)
	if report.Summary.Skipped > 0 || report.Summary.Failed > 0 {
		ew.printf(" (%d skipped, %d failed)", report.Summary.Skipped, report.Summary.Failed)
	}
	ew.println("")
	ew.printf("Completed in %dms (git: %dms, checks: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ChecksMs)

	return ew.err
}

// Tabulate renders rows as a plain text table. Every row is padded to the
// widest cell of each column; trailing spaces are trimmed.
func Tabulate(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	ncol := 0
	for _, r := range rows {
		if len(r) > ncol {
			ncol = len(r)
		}
	}
	widths := make([]int, ncol)
	for _, r := range rows {
		for i, cell := range r {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	rule := make([]string, ncol)
	for i, wd := range widths {
		rule[i] = strings.Repeat("-", wd)
	}

	var b strings.Builder
	line := func(cells []string) {
		padded := make([]string, ncol)
		for i := range padded {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = cell + strings.Repeat(" ", widths[i]-len([]rune(cell)))
		}
		b.WriteString(strings.TrimRight(strings.Join(padded, "  "), " "))
		b.WriteString("\n")
	}
	line(rule)
	for _, r := range rows {
		line(r)
	}
	line(rule)
	return b.String()
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
