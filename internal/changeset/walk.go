package changeset

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
)

// Walk visits every file under fsys whose name ends in ext and maps it to all
// of its lines, 1 through the file's line count. Directories whose name
// starts with a dot are skipped at any depth. Empty files are dropped.
func Walk(fsys fs.FS, ext string) (ChangeSet, error) {
	cs := ChangeSet{}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(path, ext) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if n := CountLines(data); n > 0 {
			cs[path] = FromRange(1, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source tree: %w", err)
	}
	return cs, nil
}

// CountLines returns the number of lines in data. A final line without a
// trailing newline still counts.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
