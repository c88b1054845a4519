package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/review"
)

// pylintBanner starts the per-module header lines pylint prints.
const pylintBanner = "*************"

// pylintUsageError is the exit status bit pylint sets on a usage error.
const pylintUsageError = 32

// PylintCheck lints code and test files with separate disable lists and
// keeps the messages that land on changed lines.
type PylintCheck struct {
	Runner      Runner
	Command     Command
	Disable     []string
	CodeDisable []string
	TestDisable []string
}

func (c *PylintCheck) Name() string  { return "pylint" }
func (c *PylintCheck) Title() string { return "CHECKING CODE USING pylint" }

func (c *PylintCheck) Run(ctx context.Context, t review.Target) review.Section {
	if avail, why := Detect(ctx, c.Runner, t.Root, c.Command); avail != Available {
		return unavailable(c, avail, why)
	}

	var out strings.Builder
	batches := []struct {
		files   changeset.ChangeSet
		disable []string
	}{
		{t.Code, join(c.Disable, c.CodeDisable)},
		{t.Test, join(c.Disable, c.TestDisable)},
	}
	for _, b := range batches {
		if len(b.files) == 0 {
			continue
		}
		var args []string
		if len(b.disable) > 0 {
			args = append(args, "--disable="+strings.Join(b.disable, ","))
		}
		args = append(args, b.files.Paths()...)

		res, err := c.Runner.Run(ctx, t.Root, c.Command.Name, c.Command.With(args...)...)
		if err != nil {
			return review.Failed(c.Name(), c.Title(), err.Error())
		}
		if res.ExitCode&pylintUsageError != 0 {
			return review.Failed(c.Name(), c.Title(),
				fmt.Sprintf("%s exited with status %d: %s", c.Command, res.ExitCode, firstLine(res.Stderr)))
		}
		zerolog.Ctx(ctx).Debug().Int("exit", res.ExitCode).Int("files", len(b.files)).Msg("pylint batch done")
		out.WriteString(res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			out.WriteString("\n")
		}
	}

	text := t.Correlator.WithBanners(pylintBanner).FilterText(out.String())
	return textSection(text)
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// textSection wraps filtered tool output; every line carrying a location
// counts as a finding.
func textSection(lines []string) review.Section {
	n := 0
	for _, l := range lines {
		if _, ok := correlate.ParseFinding(l); ok {
			n++
		}
	}
	return review.Section{Status: review.StatusOK, Text: lines, Findings: n}
}

func unavailable(c review.Check, avail Availability, why string) review.Section {
	if avail == Unavailable {
		return review.Skipped(c.Name(), c.Title(), why+"; check skipped")
	}
	return review.Failed(c.Name(), c.Title(), why)
}
