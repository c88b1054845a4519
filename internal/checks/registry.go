package checks

import (
	"fmt"

	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/review"
)

// FromConfig builds the configured checks in order, all sharing runner.
func FromConfig(cfg config.Config, runner Runner) ([]review.Check, error) {
	tools := cfg.Tools
	out := make([]review.Check, 0, len(cfg.Checks))
	for _, name := range cfg.Checks {
		var c review.Check
		switch name {
		case "debug":
			dc, err := NewDebugCheck(cfg.DebugPattern)
			if err != nil {
				return nil, err
			}
			c = dc
		case "comments":
			c = &CommentCheck{Marker: cfg.CommentMarker, Accepted: cfg.AcceptedComments}
		case "pylint":
			c = &PylintCheck{
				Runner:      runner,
				Command:     ParseCommand(tools.Pylint.Command),
				Disable:     tools.Pylint.Disable,
				CodeDisable: tools.Pylint.CodeDisable,
				TestDisable: tools.Pylint.TestDisable,
			}
		case "mypy":
			c = &MypyCheck{
				Runner:       runner,
				Command:      ParseCommand(tools.Mypy.Command),
				InstallTypes: tools.Mypy.InstallTypes,
			}
		case "coverage":
			c = &CoverageCheck{
				Runner:       runner,
				Command:      ParseCommand(tools.Coverage.Command),
				Pip:          ParseCommand(tools.Coverage.Pip),
				Requirements: tools.Coverage.Requirements,
				JSONReport:   tools.Coverage.JSONReport,
				HTMLDir:      tools.Coverage.HTMLDir,
				CodeDir:      cfg.CodeDir,
			}
		case "vulnerability":
			c = &VulnerabilityCheck{
				Runner:   runner,
				Command:  ParseCommand(tools.Trivy.Command),
				Scanners: tools.Trivy.Scanners,
			}
		default:
			return nil, fmt.Errorf("unknown check %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}
