package checks

import (
	"bufio"
	"fmt"
	"io/fs"
	"sort"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/review"
)

var lineColumns = []string{"File", "Line number"}

// maxLineBytes bounds a single source line read by the line scanners.
const maxLineBytes = 1 << 20

// scanFile calls match for every 1-based line of path and returns a finding
// for each line it accepts.
func scanFile(fsys fs.FS, path string, match func(line string) bool) ([]correlate.Finding, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var findings []correlate.Finding
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		if match(sc.Text()) {
			findings = append(findings, correlate.Finding{Path: path, Line: n})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return findings, nil
}

// rows groups findings into one row per file, ordered by path.
func rows(findings []correlate.Finding) []review.Row {
	byPath := make(map[string][]int)
	for _, f := range findings {
		byPath[f.Path] = append(byPath[f.Path], f.Line)
	}
	out := make([]review.Row, 0, len(byPath))
	for p, lines := range byPath {
		out = append(out, review.Row{Path: p, Lines: changeset.NewLineSet(lines...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// lineCheck scans every file of the combined change-set with match and
// tabulates the findings that land on tracked lines.
func lineCheck(t review.Target, match func(line string) bool) (review.Section, error) {
	var found []correlate.Finding
	for _, path := range t.All().Paths() {
		fnd, err := scanFile(t.FS, path, match)
		if err != nil {
			return review.Section{}, err
		}
		found = append(found, fnd...)
	}
	kept := t.Correlator.Filter(found)
	return review.Section{
		Status:   review.StatusOK,
		Columns:  lineColumns,
		Rows:     rows(kept),
		Findings: len(kept),
	}, nil
}
