package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/review"
)

// CoverageCheck runs the test suite under pytest-cov and reports changed
// lines the tests never executed.
type CoverageCheck struct {
	Runner  Runner
	Command Command
	Pip     Command
	// Requirements is installed with pip before the run when it exists.
	Requirements string
	JSONReport   string
	HTMLDir      string
	CodeDir      string
}

func (c *CoverageCheck) Name() string  { return "coverage" }
func (c *CoverageCheck) Title() string { return "CHECKING CODE COVERAGE" }

func (c *CoverageCheck) Run(ctx context.Context, t review.Target) review.Section {
	if avail, why := Detect(ctx, c.Runner, t.Root, c.Command); avail != Available {
		return unavailable(c, avail, why)
	}

	if c.Requirements != "" {
		if _, err := fs.Stat(t.FS, c.Requirements); err == nil {
			args := c.Pip.With("install", "--quiet", "--requirement", c.Requirements)
			if notice := c.step(ctx, t.Root, c.Pip, args); notice != "" {
				return review.Failed(c.Name(), c.Title(), notice)
			}
		}
	}

	args := c.Command.With(
		"--cov-report", "json:"+c.JSONReport,
		"--cov-report", "html:"+c.HTMLDir,
		"--cov="+c.CodeDir,
		".",
	)
	if notice := c.step(ctx, t.Root, c.Command, args); notice != "" {
		return review.Failed(c.Name(), c.Title(), notice)
	}

	data, err := fs.ReadFile(t.FS, c.JSONReport)
	if err != nil {
		return review.Failed(c.Name(), c.Title(), fmt.Sprintf("reading coverage report: %v", err))
	}
	report, err := ReadCoverageReport(bytes.NewReader(data))
	if err != nil {
		return review.Failed(c.Name(), c.Title(), err.Error())
	}

	uncovered := t.Correlator.Coverage(report)
	sec := review.Section{Status: review.StatusOK, Columns: []string{"File link", "Line number"}}
	for _, u := range uncovered {
		sec.Rows = append(sec.Rows, review.Row{
			Path:  u.Path,
			Lines: u.Lines,
			Link:  htmlLink(t.FS, t.Root, c.HTMLDir, u.Path),
		})
		sec.Findings += u.Lines.Len()
	}
	if len(sec.Rows) > 0 {
		sec.Notice = "The following files are not fully covered by tests:"
	}
	return sec
}

func (c *CoverageCheck) step(ctx context.Context, dir string, cmd Command, args []string) string {
	res, err := c.Runner.Run(ctx, dir, cmd.Name, args...)
	if err != nil {
		return err.Error()
	}
	if res.ExitCode != 0 {
		return fmt.Sprintf("%s exited with status %d", cmd, res.ExitCode)
	}
	return ""
}

type coverageJSON struct {
	Files map[string]struct {
		MissingLines []int `json:"missing_lines"`
	} `json:"files"`
}

// ReadCoverageReport decodes a coverage.py JSON report into per-file missing
// lines.
func ReadCoverageReport(r io.Reader) (correlate.CoverageReport, error) {
	var raw coverageJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding coverage report: %w", err)
	}
	if raw.Files == nil {
		return nil, errors.New("decoding coverage report: no files section")
	}
	out := make(correlate.CoverageReport, len(raw.Files))
	for p, f := range raw.Files {
		out[filepath.ToSlash(p)] = f.MissingLines
	}
	return out, nil
}

// htmlLink finds the coverage page for file: its name ends with the base
// name with dots turned into underscores plus ".html", and its content
// mentions the file path. Returns "" when no page matches.
func htmlLink(fsys fs.FS, root, dir, file string) string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return ""
	}
	suffix := strings.ReplaceAll(path.Base(file), ".", "_") + ".html"
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		page, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil || !bytes.Contains(page, []byte(file)) {
			continue
		}
		return "file://" + filepath.ToSlash(filepath.Join(root, dir, e.Name()))
	}
	return ""
}
