package checks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/deltacheck/internal/review"
)

// mypyFailure is the exit status mypy uses for crashes and bad invocations.
const mypyFailure = 2

// MypyCheck type-checks every changed file and keeps the errors on changed
// lines.
type MypyCheck struct {
	Runner  Runner
	Command Command
	// InstallTypes runs a best-effort stub install first.
	InstallTypes bool
}

func (c *MypyCheck) Name() string  { return "mypy" }
func (c *MypyCheck) Title() string { return "CHECKING CODE USING mypy" }

func (c *MypyCheck) Run(ctx context.Context, t review.Target) review.Section {
	if avail, why := Detect(ctx, c.Runner, t.Root, c.Command); avail != Available {
		return unavailable(c, avail, why)
	}
	log := zerolog.Ctx(ctx)

	if c.InstallTypes {
		res, err := c.Runner.Run(ctx, t.Root, c.Command.Name, c.Command.With("--install-types", "--non-interactive")...)
		if err != nil || res.ExitCode != 0 {
			log.Debug().Err(err).Int("exit", res.ExitCode).Msg("mypy --install-types did not succeed")
		}
	}

	args := append([]string{"--follow-imports=skip", "--ignore-missing-imports"}, t.All().Paths()...)
	res, err := c.Runner.Run(ctx, t.Root, c.Command.Name, c.Command.With(args...)...)
	if err != nil {
		return review.Failed(c.Name(), c.Title(), err.Error())
	}
	if res.ExitCode >= mypyFailure {
		return review.Failed(c.Name(), c.Title(),
			fmt.Sprintf("%s exited with status %d: %s", c.Command, res.ExitCode, firstLine(res.Stderr+res.Stdout)))
	}
	return textSection(t.Correlator.FilterText(res.Stdout))
}
