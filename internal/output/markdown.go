package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/deltacheck/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## deltacheck review\n\n")
	ew.printf("`%s` against `%s` (%s mode)\n\n", report.Repo.Branch, report.Repo.Target, report.Mode)

	// Summary table
	ew.printf("| Check | Status | Findings |\n")
	ew.printf("|-------|--------|----------|\n")
	for _, sec := range report.Sections {
		ew.printf("| %s | %s %s | %d |\n", sec.Check, mdStatusIcon(sec.Status), sec.Status, sec.Findings)
	}
	ew.printf("| **Total** | | **%d** |\n\n", report.Summary.Findings)

	if report.Summary.Findings == 0 && report.Summary.Failed == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	for _, sec := range report.Sections {
		if sec.Findings == 0 && sec.Status != review.StatusFailed {
			continue
		}
		ew.printf("<details>\n<summary>%s (%d)</summary>\n\n", sec.Title, sec.Findings)
		if sec.Notice != "" {
			ew.printf("> %s\n\n", sec.Notice)
		}
		switch {
		case len(sec.Columns) > 0:
			ew.printf("| %s |\n", strings.Join(sec.Columns, " | "))
			ew.printf("|%s\n", strings.Repeat("---|", len(sec.Columns)))
			for _, r := range sec.Rows {
				path := "`" + r.Path + "`"
				if r.Link != "" {
					path = fmt.Sprintf("[%s](%s)", r.Path, r.Link)
				}
				ew.printf("| %s | %s |\n", path, FormatLines(r.Lines))
			}
			ew.println("")
		case len(sec.Text) > 0:
			ew.printf("```\n%s\n```\n\n", strings.Join(sec.Text, "\n"))
		}
		ew.printf("</details>\n\n")
	}

	ew.printf("*Checked in %dms (git: %dms, checks: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ChecksMs)

	return ew.err
}

func mdStatusIcon(s review.Status) string {
	switch s {
	case review.StatusOK:
		return ":white_check_mark:"
	case review.StatusSkipped:
		return ":fast_forward:"
	case review.StatusFailed:
		return ":x:"
	default:
		return ":grey_question:"
	}
}
