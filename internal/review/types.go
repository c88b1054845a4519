package review

import "github.com/dshills/deltacheck/internal/changeset"

// Status is the outcome of a single check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Row is one file entry in a tabulated section.
type Row struct {
	Path  string            `json:"path"`
	Lines changeset.LineSet `json:"lines"`
	Link  string            `json:"link,omitempty"`
}

// Section is the result of one check. Table sections fill Rows, text
// sections fill Text with the surviving tool output lines.
type Section struct {
	Check   string   `json:"check"`
	Title   string   `json:"title"`
	Status  Status   `json:"status"`
	Notice  string   `json:"notice,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
	Text    []string `json:"text,omitempty"`
	// Raw marks Text as an unfiltered, repository-wide block.
	Raw bool `json:"raw,omitempty"`
	// Findings is the number of reported problems in this section.
	Findings int `json:"findings"`
}

// Skipped returns a section for a check that could not run.
func Skipped(check, title, notice string) Section {
	return Section{Check: check, Title: title, Status: StatusSkipped, Notice: notice}
}

// Failed returns a section for a check whose collaborator failed.
func Failed(check, title, notice string) Section {
	return Section{Check: check, Title: title, Status: StatusFailed, Notice: notice}
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch"`
	Target string `json:"target"`
}

// FileSets holds the code and test change-sets a run examined.
type FileSets struct {
	Code changeset.ChangeSet `json:"code"`
	Test changeset.ChangeSet `json:"test"`
}

// Summary provides an overview of the run.
type Summary struct {
	Findings int `json:"findings"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs    int64 `json:"gitMs"`
	ChecksMs int64 `json:"checksMs"`
	TotalMs  int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"runId"`
	Repo     RepoInfo  `json:"repo"`
	Mode     string    `json:"mode"`
	Files    FileSets  `json:"files"`
	Sections []Section `json:"sections"`
	Summary  Summary   `json:"summary"`
	Timing   Timing    `json:"timing"`
}

// ComputeSummary totals findings and counts skipped and failed sections.
func ComputeSummary(sections []Section) Summary {
	var s Summary
	for _, sec := range sections {
		s.Findings += sec.Findings
		switch sec.Status {
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
