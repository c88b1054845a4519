package checks

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dshills/deltacheck/internal/review"
)

// DefaultDebugPattern matches a python print call at the start of a line.
const DefaultDebugPattern = `^\s*print\(`

// DebugCheck reports leftover debug statements on changed lines.
type DebugCheck struct {
	pattern *regexp.Regexp
}

// NewDebugCheck compiles pattern, falling back to DefaultDebugPattern when it
// is empty.
func NewDebugCheck(pattern string) (*DebugCheck, error) {
	if pattern == "" {
		pattern = DefaultDebugPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid debug pattern %q: %w", pattern, err)
	}
	return &DebugCheck{pattern: re}, nil
}

func (c *DebugCheck) Name() string  { return "debug" }
func (c *DebugCheck) Title() string { return "CHECK FOR PRINT DEBUG" }

func (c *DebugCheck) Run(_ context.Context, t review.Target) review.Section {
	sec, err := lineCheck(t, c.pattern.MatchString)
	if err != nil {
		return review.Failed(c.Name(), c.Title(), err.Error())
	}
	return sec
}
