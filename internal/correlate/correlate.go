package correlate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/deltacheck/internal/changeset"
)

// Finding is one line-addressed result reported by an external tool.
type Finding struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Message string `json:"message,omitempty"`
}

var locationRe = regexp.MustCompile(`^([^:\s][^:]*):(\d+):(.*)$`)

// ParseFinding reads a "path:line:message" output line. The path is taken
// verbatim.
func ParseFinding(line string) (Finding, bool) {
	m := locationRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return Finding{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return Finding{}, false
	}
	return Finding{Path: m[1], Line: n, Message: strings.TrimSpace(m[3])}, true
}

// Options configures a Correlator.
type Options struct {
	// Banners lists line prefixes that mark tool section headers. Banner
	// lines carry no location and always survive text filtering.
	Banners []string
}

// Correlator restricts tool findings to the lines of a change-set.
type Correlator struct {
	cs      changeset.ChangeSet
	banners []string
}

// New returns a Correlator over cs. The change-set is not copied and must not
// be modified afterwards.
func New(cs changeset.ChangeSet, opts Options) *Correlator {
	return &Correlator{cs: cs, banners: opts.Banners}
}

// WithBanners returns a Correlator over the same change-set that treats the
// given prefixes as section banners.
func (c *Correlator) WithBanners(banners ...string) *Correlator {
	return &Correlator{cs: c.cs, banners: banners}
}

// ChangeSet returns the change-set findings are matched against.
func (c *Correlator) ChangeSet() changeset.ChangeSet { return c.cs }

// Keep reports whether f's file and line are both in the change-set.
func (c *Correlator) Keep(f Finding) bool {
	return c.cs.Contains(f.Path, f.Line)
}

// Filter returns the findings Keep accepts, preserving order.
func (c *Correlator) Filter(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if c.Keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// FilterText filters raw tool output line by line. Banner lines are kept,
// "path:line:" lines are kept when inside the change-set, everything else is
// dropped.
func (c *Correlator) FilterText(output string) []string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if c.isBanner(line) {
			kept = append(kept, line)
			continue
		}
		f, ok := ParseFinding(line)
		if ok && c.Keep(f) {
			kept = append(kept, line)
		}
	}
	return kept
}

func (c *Correlator) isBanner(line string) bool {
	for _, b := range c.banners {
		if b != "" && strings.HasPrefix(line, b) {
			return true
		}
	}
	return false
}

// CoverageReport maps a file path to the lines a coverage run did not execute.
type CoverageReport map[string][]int

// Uncovered is a tracked file with changed lines that were not executed.
type Uncovered struct {
	Path  string            `json:"path"`
	Lines changeset.LineSet `json:"lines"`
	Link  string            `json:"link,omitempty"`
}

// Coverage intersects every file's missing lines with the change-set and
// returns, ordered by path, the files where the intersection is non-empty.
func (c *Correlator) Coverage(report CoverageReport) []Uncovered {
	var out []Uncovered
	for path, missing := range report {
		tracked, ok := c.cs.Lines(path)
		if !ok {
			continue
		}
		hit := tracked.Intersect(changeset.NewLineSet(missing...))
		if hit.IsEmpty() {
			continue
		}
		out = append(out, Uncovered{Path: path, Lines: hit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
