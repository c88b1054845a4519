package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport renders the report once and writes it to stdout and, when
// resultPath is set, to that file. The file is truncated on every run.
func WriteReport(report *review.Report, format string, stdout io.Writer, resultPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, report); err != nil {
		return err
	}

	if resultPath != "" {
		if err := os.WriteFile(resultPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing result file: %w", err)
		}
	}
	if stdout != nil {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

// FormatLines renders a line set the way the report tables show it,
// e.g. "[7, 8]".
func FormatLines(ls changeset.LineSet) string {
	lines := ls.Lines()
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// rowCells returns the printable cells of a table row. Rows with a link
// show the link in place of the path.
func rowCells(r review.Row) []string {
	first := r.Path
	if r.Link != "" {
		first = r.Link
	}
	return []string{first, FormatLines(r.Lines)}
}
