package checks

import (
	"context"
	"strings"

	"github.com/dshills/deltacheck/internal/review"
)

// CommentCheck reports stray comments on changed lines. A line containing
// the marker is stray unless its right-trimmed text ends with one of the
// accepted markers.
type CommentCheck struct {
	Marker   string
	Accepted []string
}

func (c *CommentCheck) Name() string  { return "comments" }
func (c *CommentCheck) Title() string { return "CHECK FOR COMMENTED CODE" }

// IsStray reports whether line is a comment that should be flagged.
func (c *CommentCheck) IsStray(line string) bool {
	marker := c.Marker
	if marker == "" {
		marker = "#"
	}
	if !strings.Contains(line, marker) {
		return false
	}
	trimmed := strings.TrimRight(line, " \t\r")
	for _, a := range c.Accepted {
		if a != "" && strings.HasSuffix(trimmed, a) {
			return false
		}
	}
	return true
}

func (c *CommentCheck) Run(_ context.Context, t review.Target) review.Section {
	sec, err := lineCheck(t, c.IsStray)
	if err != nil {
		return review.Failed(c.Name(), c.Title(), err.Error())
	}
	return sec
}
