package checks

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/deltacheck/internal/review"
)

var trivyTotalRe = regexp.MustCompile(`(?m)^Total: (\d+)`)

// VulnerabilityCheck scans the whole project with trivy. Its output is not
// line-addressed and is reported as a raw block.
type VulnerabilityCheck struct {
	Runner   Runner
	Command  Command
	Scanners []string
}

func (c *VulnerabilityCheck) Name() string  { return "vulnerability" }
func (c *VulnerabilityCheck) Title() string { return "CHECKING VULNERABILITY" }

func (c *VulnerabilityCheck) Run(ctx context.Context, t review.Target) review.Section {
	if avail, why := Detect(ctx, c.Runner, t.Root, c.Command); avail != Available {
		return unavailable(c, avail, why)
	}

	args := []string{"fs"}
	if len(c.Scanners) > 0 {
		args = append(args, "--scanners", strings.Join(c.Scanners, ","))
	}
	args = append(args, ".")

	res, err := c.Runner.Run(ctx, t.Root, c.Command.Name, c.Command.With(args...)...)
	if err != nil {
		return review.Failed(c.Name(), c.Title(), err.Error())
	}
	if res.ExitCode != 0 {
		return review.Failed(c.Name(), c.Title(),
			fmt.Sprintf("%s exited with status %d: %s", c.Command, res.ExitCode, firstLine(res.Stderr)))
	}

	out := strings.TrimRight(res.Stdout, "\n")
	sec := review.Section{Status: review.StatusOK, Raw: true, Findings: trivyTotal(out)}
	if out != "" {
		sec.Text = strings.Split(out, "\n")
	}
	return sec
}

// trivyTotal sums the "Total: N" lines of trivy's table output.
func trivyTotal(out string) int {
	n := 0
	for _, m := range trivyTotalRe.FindAllStringSubmatch(out, -1) {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			n += v
		}
	}
	return n
}
