package output

import (
	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/review"
)

func sampleReport() *review.Report {
	sections := []review.Section{
		{
			Check:    "comments",
			Title:    "CHECK FOR COMMENTED CODE",
			Status:   review.StatusOK,
			Columns:  []string{"File", "Line number"},
			Rows:     []review.Row{{Path: "src/items.py", Lines: changeset.NewLineSet(7, 8)}},
			Findings: 2,
		},
		{
			Check:    "pylint",
			Title:    "CHECK FOR PYLINT",
			Status:   review.StatusOK,
			Text:     []string{"************* Module src.items", "src/items.py:27:0: C0116: Missing function docstring (missing-function-docstring)"},
			Findings: 1,
		},
		review.Skipped("mypy", "CHECK FOR MYPY", "mypy not installed; check skipped"),
		{
			Check:  "trivy",
			Title:  "CHECK FOR VULNERABILITIES",
			Status: review.StatusOK,
			Text:   []string{"Total: 0 (UNKNOWN: 0)"},
			Raw:    true,
		},
	}
	return &review.Report{
		Tool:    "deltacheck",
		Version: "1.0",
		RunID:   "run-1",
		Repo:    review.RepoInfo{Root: "/tmp/proj", Branch: "feature", Target: "master"},
		Mode:    "incremental",
		Files: review.FileSets{
			Code: changeset.FromLines(map[string][]int{"src/items.py": {7, 8, 27}}),
			Test: changeset.ChangeSet{},
		},
		Sections: sections,
		Summary:  review.ComputeSummary(sections),
		Timing:   review.Timing{GitMs: 4, ChecksMs: 120, TotalMs: 130},
	}
}

func emptyReport() *review.Report {
	sections := []review.Section{
		{Check: "debug", Title: "CHECK FOR PRINT DEBUG", Status: review.StatusOK, Columns: []string{"File", "Line number"}},
	}
	return &review.Report{
		Tool:     "deltacheck",
		Version:  "1.0",
		Repo:     review.RepoInfo{Branch: "feature", Target: "master"},
		Mode:     "full",
		Sections: sections,
		Summary:  review.ComputeSummary(sections),
	}
}
