package changeset

import (
	"regexp"
	"strconv"
	"strings"
)

// DiffHunk is the post-image half of one hunk header.
type DiffHunk struct {
	Path     string
	NewStart int
	NewLen   int
}

// Lines returns the post-image lines [NewStart, NewStart+NewLen). A pure
// deletion (NewLen == 0) contributes nothing.
func (h DiffHunk) Lines() []int {
	if h.NewLen <= 0 {
		return nil
	}
	lines := make([]int, 0, h.NewLen)
	for i := h.NewStart; i < h.NewStart+h.NewLen; i++ {
		lines = append(lines, i)
	}
	return lines
}

const fileHeaderPrefix = "diff --git "

// prefixLen is the length of the fixed diff prefix ("a/" or "b/").
const prefixLen = 2

var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks scans unified-diff text and returns every hunk that belongs to a
// file whose destination path ends in ext. An empty ext tracks every file.
// Malformed lines are skipped.
func ParseHunks(diff, ext string) []DiffHunk {
	var hunks []DiffHunk
	current := ""

	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, fileHeaderPrefix) {
			current = ""
			dest, ok := destinationPath(line)
			if ok && strings.HasSuffix(dest, ext) {
				current = dest
			}
			continue
		}

		if current == "" || !strings.HasPrefix(line, "@@") {
			continue
		}

		hunk, ok := parseHunkHeader(line)
		if !ok {
			continue
		}
		hunk.Path = current
		hunks = append(hunks, hunk)
	}

	return hunks
}

// ParseDiff turns unified-diff text into a change-set of post-image line
// numbers for every file whose destination path ends in ext. Files without
// contributed lines are absent from the result.
func ParseDiff(diff, ext string) ChangeSet {
	raw := make(map[string][]int)
	for _, h := range ParseHunks(diff, ext) {
		raw[h.Path] = append(raw[h.Path], h.Lines()...)
	}
	return FromLines(raw)
}

// destinationPath extracts the post-image path from a "diff --git a/x b/x"
// header, stripping only the fixed-length prefix.
func destinationPath(line string) (string, bool) {
	rest := strings.TrimPrefix(line, fileHeaderPrefix)
	var dest string
	if half := len(rest) / 2; len(rest)%2 == 1 && rest[half] == ' ' &&
		strings.HasPrefix(rest, "a/") && strings.HasPrefix(rest[half+1:], "b/") &&
		rest[prefixLen:half] == rest[half+1+prefixLen:] {
		// Unrenamed file: both sides are the same path, split at the middle.
		dest = rest[half+1:]
	} else if idx := strings.LastIndex(rest, " b/"); idx >= 0 {
		dest = rest[idx+1:]
	} else {
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return "", false
		}
		dest = fields[len(fields)-1]
	}
	if len(dest) <= prefixLen {
		return "", false
	}
	return dest[prefixLen:], true
}

func parseHunkHeader(line string) (DiffHunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return DiffHunk{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return DiffHunk{}, false
	}
	length := 1
	if m[2] != "" {
		length, err = strconv.Atoi(m[2])
		if err != nil {
			return DiffHunk{}, false
		}
	}
	return DiffHunk{NewStart: start, NewLen: length}, true
}
