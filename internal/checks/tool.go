package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output is what an external process produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner starts external processes. A non-zero exit is reported through
// Output.ExitCode; the error is reserved for processes that could not run.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	// Timeout bounds each process. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// LookPath resolves name on PATH.
func (r ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes name in dir and waits for it.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Str("cmd", name+" "+strings.Join(args, " ")).Msg("running")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out, fmt.Errorf("%s timed out after %s", name, r.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}

// Availability is the tri-state result of probing for a tool.
type Availability int

const (
	// Available means the tool is installed and answers.
	Available Availability = iota
	// Unavailable means the tool is not installed.
	Unavailable
	// Failed means the tool is installed but does not run.
	Failed
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Command is a configured tool invocation such as "python -m pylint".
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(s string) Command {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Name: fields[0], Args: fields[1:]}
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// With returns the full argument list for this command followed by args.
func (c Command) With(args ...string) []string {
	out := make([]string, 0, len(c.Args)+len(args))
	out = append(out, c.Args...)
	return append(out, args...)
}

// Detect checks that cmd is installed and that "cmd --version" succeeds.
func Detect(ctx context.Context, r Runner, dir string, cmd Command) (Availability, string) {
	if cmd.Name == "" {
		return Unavailable, "no command configured"
	}
	if _, err := r.LookPath(cmd.Name); err != nil {
		return Unavailable, fmt.Sprintf("%s not installed", cmd.Name)
	}
	out, err := r.Run(ctx, dir, cmd.Name, cmd.With("--version")...)
	if err != nil {
		return Failed, fmt.Sprintf("%s: %v", cmd, err)
	}
	if out.ExitCode != 0 {
		return Failed, fmt.Sprintf("%s --version exited with status %d: %s", cmd, out.ExitCode, firstLine(out.Stderr))
	}
	return Available, ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
