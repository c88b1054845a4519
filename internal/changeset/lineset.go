package changeset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LineSet is a set of 1-based post-image line numbers, stored as a sorted,
// deduplicated slice. Non-positive numbers are never stored.
type LineSet struct {
	lines []int
}

// NewLineSet creates a LineSet from individual line numbers. Duplicates and
// non-positive values are dropped.
func NewLineSet(lines ...int) LineSet {
	return LineSet{lines: dedupSorted(lines)}
}

// FromRange creates a LineSet covering the half-open range [start, start+length).
// A zero or negative length yields an empty set.
func FromRange(start, length int) LineSet {
	if length <= 0 {
		return LineSet{}
	}
	if start < 1 {
		length -= 1 - start
		start = 1
		if length <= 0 {
			return LineSet{}
		}
	}
	lines := make([]int, 0, length)
	for i := start; i < start+length; i++ {
		lines = append(lines, i)
	}
	return LineSet{lines: lines}
}

// Len returns the number of lines in the set.
func (ls LineSet) Len() int { return len(ls.lines) }

// IsEmpty reports whether the set has no lines.
func (ls LineSet) IsEmpty() bool { return len(ls.lines) == 0 }

// Lines returns a copy of the sorted line numbers.
func (ls LineSet) Lines() []int {
	if len(ls.lines) == 0 {
		return nil
	}
	out := make([]int, len(ls.lines))
	copy(out, ls.lines)
	return out
}

// Contains reports whether line is in the set.
func (ls LineSet) Contains(line int) bool {
	i := sort.SearchInts(ls.lines, line)
	return i < len(ls.lines) && ls.lines[i] == line
}

// Union returns a new set holding the lines of both sets.
func (ls LineSet) Union(other LineSet) LineSet {
	if other.IsEmpty() {
		return ls
	}
	if ls.IsEmpty() {
		return other
	}
	merged := make([]int, 0, len(ls.lines)+len(other.lines))
	merged = append(merged, ls.lines...)
	merged = append(merged, other.lines...)
	return LineSet{lines: dedupSorted(merged)}
}

// Intersect returns the lines present in both sets.
func (ls LineSet) Intersect(other LineSet) LineSet {
	var out []int
	i, j := 0, 0
	for i < len(ls.lines) && j < len(other.lines) {
		switch {
		case ls.lines[i] == other.lines[j]:
			out = append(out, ls.lines[i])
			i++
			j++
		case ls.lines[i] < other.lines[j]:
			i++
		default:
			j++
		}
	}
	return LineSet{lines: out}
}

// String returns compact range notation such as "5,7-8,12".
func (ls LineSet) String() string {
	if len(ls.lines) == 0 {
		return ""
	}

	var parts []string
	start := ls.lines[0]
	prev := start
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, n := range ls.lines[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the set as a JSON array of line numbers.
func (ls LineSet) MarshalJSON() ([]byte, error) {
	if ls.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ls.lines)
}

// UnmarshalJSON decodes a JSON array of line numbers.
func (ls *LineSet) UnmarshalJSON(data []byte) error {
	var lines []int
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*ls = NewLineSet(lines...)
	return nil
}

func dedupSorted(lines []int) []int {
	if len(lines) == 0 {
		return nil
	}
	sorted := make([]int, 0, len(lines))
	for _, n := range lines {
		if n > 0 {
			sorted = append(sorted, n)
		}
	}
	sort.Ints(sorted)
	out := sorted[:0]
	for _, n := range sorted {
		if len(out) == 0 || n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
