package checks

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/review"
)

const itemsSource = `import json
import os


def get_items() -> list[dict]:
    print("GETTING ITEMS...")
    # Dummy comment
    # Accepted comment fake
    # Accepted comment
    if not os.path.exists("items.json"):
        return []
    with open("items.json", "r", encoding="utf-8") as f:
        return json.load(f)


def update_item(name: str, description: str) -> None:
    items = get_items()
    for item in items:
        if item["name"] == name:
            item["description"] = description
            break
    with open("items.json", "w", encoding="utf-8") as f:
        json.dump(items, f)


def create_item(name: str, description: str) -> None:
    print("CREATING ITEM...")
    # Dummy comment
    items = get_items()
    items.append({"name": name, "description": description})
    with open("items.json", "w", encoding="utf-8") as f:
        json.dump(items, f)


def dummy_add(a: int, b:int) -> int:
    return a + b
`

const schemaSource = `from pydantic import BaseModel


class Item(BaseModel):
    name: str
    description: str
`

const testSource = `import json
import os

from src.items import create_item, get_items, update_item


def test_get_items():
    # Arrange
    data = [{"name": "test_name", "description": "test_description"}]
`

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// projectTarget mirrors a feature branch that edited src/items.py, added
// src/schema.py and updated the tests.
func projectTarget(fsys fstest.MapFS) review.Target {
	items := []int{2}
	items = append(items, seq(7, 11)...)
	items = append(items, seq(16, 25)...)
	items = append(items, 27)
	items = append(items, seq(32, 36)...)

	if fsys == nil {
		fsys = fstest.MapFS{}
	}
	fsys["src/items.py"] = &fstest.MapFile{Data: []byte(itemsSource)}
	fsys["src/schema.py"] = &fstest.MapFile{Data: []byte(schemaSource)}
	fsys["src/tests/test_items.py"] = &fstest.MapFile{Data: []byte(testSource)}

	res := changeset.Result{
		Code: changeset.FromLines(map[string][]int{
			"src/items.py":  items,
			"src/schema.py": seq(1, 6),
		}),
		Test: changeset.FromLines(map[string][]int{
			"src/tests/test_items.py": {2, 4},
		}),
	}
	return review.NewTarget("/proj", fsys, res)
}

type call struct {
	dir  string
	name string
	args []string
}

type fakeRunner struct {
	missing map[string]bool
	handle  func(name string, args []string) (Output, error)
	calls   []call
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (Output, error) {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	if len(args) > 0 && args[len(args)-1] == "--version" {
		return Output{Stdout: name + " 1.0"}, nil
	}
	if f.handle == nil {
		return Output{}, nil
	}
	return f.handle(name, args)
}

// work returns the calls that were not version checks.
func (f *fakeRunner) work() []call {
	var out []call
	for _, c := range f.calls {
		if len(c.args) > 0 && c.args[len(c.args)-1] == "--version" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func plainRows(rows []review.Row) map[string][]int {
	out := make(map[string][]int, len(rows))
	for _, r := range rows {
		out[r.Path] = r.Lines.Lines()
	}
	return out
}

func TestDebugCheck(t *testing.T) {
	c, err := NewDebugCheck("")
	require.NoError(t, err)

	sec := c.Run(context.Background(), projectTarget(nil))

	assert.Equal(t, review.StatusOK, sec.Status)
	assert.Equal(t, []string{"File", "Line number"}, sec.Columns)
	if d := cmp.Diff(map[string][]int{"src/items.py": {27}}, plainRows(sec.Rows)); d != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, 1, sec.Findings)
}

func TestNewDebugCheck_BadPattern(t *testing.T) {
	_, err := NewDebugCheck("print(")
	require.Error(t, err)
}

func TestDebugCheck_MissingFileFails(t *testing.T) {
	c, err := NewDebugCheck("")
	require.NoError(t, err)
	target := projectTarget(nil)
	target.Code = target.Code.Merge(changeset.FromLines(map[string][]int{"src/gone.py": {1}}))

	sec := c.Run(context.Background(), target)
	assert.Equal(t, review.StatusFailed, sec.Status)
	assert.Contains(t, sec.Notice, "src/gone.py")
}

func TestCommentCheck(t *testing.T) {
	c := &CommentCheck{Marker: "#", Accepted: []string{"# Accepted comment"}}
	sec := c.Run(context.Background(), projectTarget(nil))

	if d := cmp.Diff(map[string][]int{"src/items.py": {7, 8}}, plainRows(sec.Rows)); d != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, 2, sec.Findings)
}

func TestCommentCheck_IsStray(t *testing.T) {
	c := &CommentCheck{Accepted: []string{"# Arrange", "# Act", "# Assert"}}
	tests := []struct {
		line string
		want bool
	}{
		{"    # Arrange", false},
		{"    # Act   ", false},
		{"    # Assert\r", false},
		{"    # Arrange the data", true},
		{"x = 1  # trailing note", true},
		{"# old_code()", true},
		{"x = 1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.IsStray(tt.line); got != tt.want {
			t.Errorf("IsStray(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestCommentCheck_SuffixVersusContains(t *testing.T) {
	lines := map[int]string{
		7: "    # values.append(1)",
		8: "    # Accepted comment fake",
		9: "    # Accepted comment",
	}
	accepted := []string{"# Accepted comment"}

	suffix := &CommentCheck{Accepted: accepted}
	contains := func(line string) bool {
		if !strings.Contains(line, "#") {
			return false
		}
		for _, a := range accepted {
			if strings.Contains(line, a) {
				return false
			}
		}
		return true
	}

	var gotSuffix, gotContains []int
	for _, n := range []int{7, 8, 9} {
		if suffix.IsStray(lines[n]) {
			gotSuffix = append(gotSuffix, n)
		}
		if contains(lines[n]) {
			gotContains = append(gotContains, n)
		}
	}
	assert.Equal(t, []int{7, 8}, gotSuffix)
	assert.Equal(t, []int{7}, gotContains)
}

const pylintCodeOut = `************* Module src.items
src/items.py:1:0: C0114: Missing module docstring (missing-module-docstring)
src/items.py:5:0: C0116: Missing function or method docstring (missing-function-docstring)
src/items.py:16:0: C0116: Missing function or method docstring (missing-function-docstring)
src/items.py:26:0: C0116: Missing function or method docstring (missing-function-docstring)
************* Module src.schema
src/schema.py:1:0: C0114: Missing module docstring (missing-module-docstring)
src/schema.py:4:0: C0115: Missing class docstring (missing-class-docstring)`

const pylintTestOut = `************* Module src.tests.test_items
src/tests/test_items.py:1:0: C0114: Missing module docstring (missing-module-docstring)
src/tests/test_items.py:4:0: C0116: Missing function or method docstring (missing-function-docstring)
src/tests/test_items.py:31:0: C0116: Missing function or method docstring (missing-function-docstring)
`

func TestPylintCheck(t *testing.T) {
	r := &fakeRunner{handle: func(_ string, args []string) (Output, error) {
		for _, a := range args {
			if strings.Contains(a, "test") && strings.HasSuffix(a, ".py") {
				return Output{Stdout: pylintTestOut, ExitCode: 16}, nil
			}
		}
		return Output{Stdout: pylintCodeOut, ExitCode: 16}, nil
	}}
	c := &PylintCheck{
		Runner:      r,
		Command:     ParseCommand("pylint"),
		Disable:     []string{"line-too-long"},
		CodeDisable: []string{"too-few-public-methods"},
		TestDisable: []string{"unused-argument"},
	}

	sec := c.Run(context.Background(), projectTarget(nil))
	require.Equal(t, review.StatusOK, sec.Status, sec.Notice)

	want := []string{
		"************* Module src.items",
		"src/items.py:16:0: C0116: Missing function or method docstring (missing-function-docstring)",
		"************* Module src.schema",
		"src/schema.py:1:0: C0114: Missing module docstring (missing-module-docstring)",
		"src/schema.py:4:0: C0115: Missing class docstring (missing-class-docstring)",
		"************* Module src.tests.test_items",
		"src/tests/test_items.py:4:0: C0116: Missing function or method docstring (missing-function-docstring)",
	}
	if d := cmp.Diff(want, sec.Text); d != "" {
		t.Errorf("text mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, 4, sec.Findings)

	work := r.work()
	require.Len(t, work, 2)
	assert.Equal(t, []string{"--disable=line-too-long,too-few-public-methods", "src/items.py", "src/schema.py"}, work[0].args)
	assert.Equal(t, []string{"--disable=line-too-long,unused-argument", "src/tests/test_items.py"}, work[1].args)
	assert.Equal(t, "/proj", work[0].dir)
}

func TestPylintCheck_SkipsEmptyBucket(t *testing.T) {
	r := &fakeRunner{}
	c := &PylintCheck{Runner: r, Command: ParseCommand("python -m pylint")}
	target := projectTarget(nil)
	target.Test = changeset.ChangeSet{}

	c.Run(context.Background(), target)
	work := r.work()
	require.Len(t, work, 1)
	assert.Equal(t, "python", work[0].name)
	assert.Equal(t, []string{"-m", "pylint", "src/items.py", "src/schema.py"}, work[0].args)
}

func TestPylintCheck_NotInstalled(t *testing.T) {
	r := &fakeRunner{missing: map[string]bool{"pylint": true}}
	c := &PylintCheck{Runner: r, Command: ParseCommand("pylint")}

	sec := c.Run(context.Background(), projectTarget(nil))
	assert.Equal(t, review.StatusSkipped, sec.Status)
	assert.Equal(t, "pylint not installed; check skipped", sec.Notice)
	assert.Empty(t, r.calls)
}

func TestPylintCheck_UsageError(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string) (Output, error) {
		return Output{Stderr: "no such option: --bogus", ExitCode: 32}, nil
	}}
	c := &PylintCheck{Runner: r, Command: ParseCommand("pylint")}

	sec := c.Run(context.Background(), projectTarget(nil))
	assert.Equal(t, review.StatusFailed, sec.Status)
	assert.Contains(t, sec.Notice, "status 32")
	assert.Contains(t, sec.Notice, "no such option")
}

func TestDetect(t *testing.T) {
	ctx := context.Background()

	avail, _ := Detect(ctx, &fakeRunner{}, ".", ParseCommand("mypy"))
	assert.Equal(t, Available, avail)

	avail, why := Detect(ctx, &fakeRunner{missing: map[string]bool{"mypy": true}}, ".", ParseCommand("mypy"))
	assert.Equal(t, Unavailable, avail)
	assert.Equal(t, "mypy not installed", why)

	avail, _ = Detect(ctx, &fakeRunner{}, ".", Command{})
	assert.Equal(t, Unavailable, avail)

	broken := &brokenRunner{}
	avail, why = Detect(ctx, broken, ".", ParseCommand("mypy"))
	assert.Equal(t, Failed, avail)
	assert.Contains(t, why, "ImportError")

	avail, _ = Detect(ctx, &brokenRunner{err: errors.New("permission denied")}, ".", ParseCommand("mypy"))
	assert.Equal(t, Failed, avail)
}

type brokenRunner struct{ err error }

func (b *brokenRunner) LookPath(name string) (string, error) { return name, nil }
func (b *brokenRunner) Run(context.Context, string, string, ...string) (Output, error) {
	if b.err != nil {
		return Output{}, b.err
	}
	return Output{ExitCode: 1, Stderr: "ImportError: no module named mypy\n  trace"}, nil
}

func TestAvailability_String(t *testing.T) {
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "unavailable", Unavailable.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestBrokenToolFailsCheck(t *testing.T) {
	c := &MypyCheck{Runner: &brokenRunner{}, Command: ParseCommand("mypy")}
	sec := c.Run(context.Background(), projectTarget(nil))
	assert.Equal(t, review.StatusFailed, sec.Status)
}

func TestMypyCheck(t *testing.T) {
	r := &fakeRunner{handle: func(_ string, args []string) (Output, error) {
		if args[0] == "--install-types" {
			return Output{ExitCode: 2}, nil
		}
		return Output{
			Stdout: "src/items.py:27: error: Incompatible types\nsrc/items.py:3: error: Unused\nFound 2 errors in 1 file (checked 3 source files)\n",
			ExitCode: 1,
		}, nil
	}}
	c := &MypyCheck{Runner: r, Command: ParseCommand("mypy"), InstallTypes: true}

	sec := c.Run(context.Background(), projectTarget(nil))
	require.Equal(t, review.StatusOK, sec.Status, sec.Notice)
	assert.Equal(t, []string{"src/items.py:27: error: Incompatible types"}, sec.Text)
	assert.Equal(t, 1, sec.Findings)

	work := r.work()
	require.Len(t, work, 2)
	assert.Equal(t, []string{"--install-types", "--non-interactive"}, work[0].args)
	assert.Equal(t, []string{
		"--follow-imports=skip", "--ignore-missing-imports",
		"src/items.py", "src/schema.py", "src/tests/test_items.py",
	}, work[1].args)
}

func TestMypyCheck_Crash(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string) (Output, error) {
		return Output{Stderr: "INTERNAL ERROR", ExitCode: 2}, nil
	}}
	c := &MypyCheck{Runner: r, Command: ParseCommand("mypy")}

	sec := c.Run(context.Background(), projectTarget(nil))
	assert.Equal(t, review.StatusFailed, sec.Status)
	assert.Len(t, r.work(), 1, "no stub install unless configured")
}

const covJSON = `{
  "meta": {"version": "7.4.0"},
  "files": {
    "src/items.py": {"executed_lines": [1, 2], "missing_lines": [6, 13, 36]},
    "src/schema.py": {"executed_lines": [], "missing_lines": [1, 4, 5, 6]},
    "src/__init__.py": {"executed_lines": [], "missing_lines": []}
  }
}`

func coverageFS() fstest.MapFS {
	return fstest.MapFS{
		"requirements-dev.txt":                {Data: []byte("pytest-cov\n")},
		"cov.json":                            {Data: []byte(covJSON)},
		"cov_html/index.html":                 {Data: []byte("src/items.py src/schema.py")},
		"cov_html/d_5f5a_items_py.html":       {Data: []byte("<h1>Coverage for src/items.py</h1>")},
		"cov_html/d_9b1c_schema_py.html":      {Data: []byte("<h1>Coverage for src/schema.py</h1>")},
		"cov_html/d_0000_other_items_py.html": {Data: []byte("<h1>Coverage for lib/items.py</h1>")},
	}
}

func newCoverageCheck(r Runner) *CoverageCheck {
	return &CoverageCheck{
		Runner:       r,
		Command:      ParseCommand("pytest"),
		Pip:          ParseCommand("pip"),
		Requirements: "requirements-dev.txt",
		JSONReport:   "cov.json",
		HTMLDir:      "cov_html",
		CodeDir:      "src",
	}
}

func TestCoverageCheck(t *testing.T) {
	r := &fakeRunner{}
	sec := newCoverageCheck(r).Run(context.Background(), projectTarget(coverageFS()))
	require.Equal(t, review.StatusOK, sec.Status, sec.Notice)

	if d := cmp.Diff(map[string][]int{"src/items.py": {36}, "src/schema.py": {1, 4, 5, 6}}, plainRows(sec.Rows)); d != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", d)
	}
	require.Len(t, sec.Rows, 2)
	assert.Equal(t, "file:///proj/cov_html/d_5f5a_items_py.html", sec.Rows[0].Link)
	assert.Equal(t, "file:///proj/cov_html/d_9b1c_schema_py.html", sec.Rows[1].Link)
	assert.Equal(t, 5, sec.Findings)
	assert.NotEmpty(t, sec.Notice)

	work := r.work()
	require.Len(t, work, 2)
	assert.Equal(t, "pip", work[0].name)
	assert.Equal(t, []string{"install", "--quiet", "--requirement", "requirements-dev.txt"}, work[0].args)
	assert.Equal(t, "pytest", work[1].name)
	assert.Equal(t, []string{"--cov-report", "json:cov.json", "--cov-report", "html:cov_html", "--cov=src", "."}, work[1].args)
}

func TestCoverageCheck_NoRequirementsSkipsPip(t *testing.T) {
	fsys := coverageFS()
	delete(fsys, "requirements-dev.txt")
	r := &fakeRunner{}

	newCoverageCheck(r).Run(context.Background(), projectTarget(fsys))
	work := r.work()
	require.Len(t, work, 1)
	assert.Equal(t, "pytest", work[0].name)
}

func TestCoverageCheck_Failures(t *testing.T) {
	tests := []struct {
		name   string
		failOn string
		notice string
	}{
		{"pip install fails", "pip", "pip exited with status 1"},
		{"pytest fails", "pytest", "pytest exited with status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{handle: func(name string, _ []string) (Output, error) {
				if name == tt.failOn {
					return Output{ExitCode: 1}, nil
				}
				return Output{}, nil
			}}
			sec := newCoverageCheck(r).Run(context.Background(), projectTarget(coverageFS()))
			assert.Equal(t, review.StatusFailed, sec.Status)
			assert.Equal(t, tt.notice, sec.Notice)
		})
	}
}

func TestCoverageCheck_MissingReport(t *testing.T) {
	fsys := coverageFS()
	delete(fsys, "cov.json")
	sec := newCoverageCheck(&fakeRunner{}).Run(context.Background(), projectTarget(fsys))
	assert.Equal(t, review.StatusFailed, sec.Status)
	assert.Contains(t, sec.Notice, "reading coverage report")
}

func TestReadCoverageReport(t *testing.T) {
	report, err := ReadCoverageReport(strings.NewReader(covJSON))
	require.NoError(t, err)
	assert.Equal(t, correlate.CoverageReport{
		"src/items.py":    {6, 13, 36},
		"src/schema.py":   {1, 4, 5, 6},
		"src/__init__.py": {},
	}, report)

	_, err = ReadCoverageReport(strings.NewReader(`{"meta": {}}`))
	require.Error(t, err)
	_, err = ReadCoverageReport(strings.NewReader(`not json`))
	require.Error(t, err)
}

const trivyOut = `
requirements.txt (pip)
======================
Total: 2 (UNKNOWN: 0, LOW: 0, MEDIUM: 1, HIGH: 1, CRITICAL: 0)

app/settings.py (secrets)
=========================
Total: 1 (UNKNOWN: 0, LOW: 0, MEDIUM: 0, HIGH: 0, CRITICAL: 1)
`

func TestVulnerabilityCheck(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string) (Output, error) {
		return Output{Stdout: trivyOut}, nil
	}}
	c := &VulnerabilityCheck{Runner: r, Command: ParseCommand("trivy"), Scanners: []string{"vuln", "secret"}}

	sec := c.Run(context.Background(), projectTarget(nil))
	require.Equal(t, review.StatusOK, sec.Status, sec.Notice)
	assert.True(t, sec.Raw)
	assert.Equal(t, 3, sec.Findings)
	assert.Contains(t, sec.Text, "requirements.txt (pip)")

	work := r.work()
	require.Len(t, work, 1)
	assert.Equal(t, []string{"fs", "--scanners", "vuln,secret", "."}, work[0].args)
}

func TestVulnerabilityCheck_NonZeroExit(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string) (Output, error) {
		return Output{Stderr: "FATAL: db download failed", ExitCode: 1}, nil
	}}
	c := &VulnerabilityCheck{Runner: r, Command: ParseCommand("trivy")}
	sec := c.Run(context.Background(), projectTarget(nil))
	assert.Equal(t, review.StatusFailed, sec.Status)
	assert.Contains(t, sec.Notice, "db download failed")
}

func TestParseCommand(t *testing.T) {
	assert.Equal(t, Command{Name: "python", Args: []string{"-m", "pylint"}}, ParseCommand("  python -m  pylint "))
	assert.Equal(t, Command{}, ParseCommand(""))
	assert.Equal(t, "python -m pylint", ParseCommand("python -m pylint").String())
	assert.Equal(t, []string{"-m", "pylint", "a.py"}, ParseCommand("python -m pylint").With("a.py"))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	got, err := FromConfig(cfg, &fakeRunner{})
	require.NoError(t, err)

	var names []string
	for _, c := range got {
		names = append(names, c.Name())
	}
	assert.Equal(t, config.KnownChecks, names)

	cfg.Checks = []string{"comments", "bandit"}
	_, err = FromConfig(cfg, &fakeRunner{})
	require.Error(t, err)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	r := ExecRunner{}

	out, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo out; echo err >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Stderr)
	assert.Equal(t, 3, out.ExitCode)

	_, err = r.Run(context.Background(), "", "definitely-not-a-real-tool-xyz")
	require.Error(t, err)
}

func TestExecRunner_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not installed")
	}
	r := ExecRunner{Timeout: 50 * time.Millisecond}
	_, err := r.Run(context.Background(), "", "sleep", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
