package changeset

import "sort"

// ChangeSet maps a repository-relative, forward-slash file path to the lines
// of interest in that file. A path missing from the map is unchanged.
type ChangeSet map[string]LineSet

// FromLines builds a ChangeSet from raw per-file line lists, which may contain
// duplicates. Files left without lines are pruned.
func FromLines(raw map[string][]int) ChangeSet {
	cs := make(ChangeSet, len(raw))
	for path, lines := range raw {
		cs[path] = NewLineSet(lines...)
	}
	return cs.Pruned()
}

// Contains reports whether line of path is part of the change-set.
func (cs ChangeSet) Contains(path string, line int) bool {
	ls, ok := cs[path]
	return ok && ls.Contains(line)
}

// Lines returns the line set tracked for path and whether path is tracked.
func (cs ChangeSet) Lines(path string) (LineSet, bool) {
	ls, ok := cs[path]
	return ls, ok
}

// Paths returns the tracked file paths in lexical order.
func (cs ChangeSet) Paths() []string {
	paths := make([]string, 0, len(cs))
	for p := range cs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pruned returns a copy without entries whose line set is empty.
func (cs ChangeSet) Pruned() ChangeSet {
	out := make(ChangeSet, len(cs))
	for p, ls := range cs {
		if !ls.IsEmpty() {
			out[p] = ls
		}
	}
	return out
}

// Merge returns the union of cs and other. Lines of files present in both
// are merged.
func (cs ChangeSet) Merge(other ChangeSet) ChangeSet {
	out := make(ChangeSet, len(cs)+len(other))
	for p, ls := range cs {
		out[p] = ls
	}
	for p, ls := range other {
		out[p] = out[p].Union(ls)
	}
	return out
}

// LineCount returns the total number of tracked lines across all files.
func (cs ChangeSet) LineCount() int {
	n := 0
	for _, ls := range cs {
		n += ls.Len()
	}
	return n
}

// Without returns a copy of cs minus the paths drop reports true for.
func (cs ChangeSet) Without(drop func(path string) bool) ChangeSet {
	out := make(ChangeSet, len(cs))
	for p, ls := range cs {
		if drop == nil || !drop(p) {
			out[p] = ls
		}
	}
	return out
}
