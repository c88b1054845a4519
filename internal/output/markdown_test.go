package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/review"
)

func TestMarkdownWriter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## deltacheck review") {
		t.Error("missing heading")
	}
	if !strings.Contains(out, "| debug | :white_check_mark: ok | 0 |") {
		t.Errorf("missing summary row:\n%s", out)
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("should say no issues found")
	}
}

func TestMarkdownWriter_Sections(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"| mypy | :fast_forward: skipped | 0 |",
		"| **Total** | | **3** |",
		"<summary>CHECK FOR COMMENTED CODE (2)</summary>",
		"| `src/items.py` | [7, 8] |",
		"```\n************* Module src.items\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "CHECK FOR VULNERABILITIES (0)") {
		t.Error("sections without findings should not be expanded")
	}
}

func TestMarkdownWriter_LinkAndFailure(t *testing.T) {
	report := emptyReport()
	report.Sections = []review.Section{
		{
			Check:    "coverage",
			Title:    "CHECK FOR COVERAGE",
			Status:   review.StatusOK,
			Notice:   "The following files are not fully covered by tests:",
			Columns:  []string{"File link", "Line number"},
			Rows:     []review.Row{{Path: "src/items.py", Lines: changeset.NewLineSet(4), Link: "file://proj/cov_html/items_py.html"}},
			Findings: 1,
		},
		review.Failed("mypy", "CHECK FOR MYPY", "mypy exited with status 2"),
	}
	report.Summary = review.ComputeSummary(report.Sections)

	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"> The following files are not fully covered by tests:",
		"| [src/items.py](file://proj/cov_html/items_py.html) | [4] |",
		"<summary>CHECK FOR MYPY (0)</summary>",
		"> mypy exited with status 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
