package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/dshills/deltacheck/internal/checks"
	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/gitctx"
	"github.com/dshills/deltacheck/internal/output"
	"github.com/dshills/deltacheck/internal/redact"
	"github.com/dshills/deltacheck/internal/review"
	"github.com/dshills/deltacheck/internal/workdir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Run flags
var (
	flagFormat         string
	flagResultFile     string
	flagChecks         string
	flagTimeout        time.Duration
	flagNoRedact       bool
	flagFailOnFindings bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check the changed lines of the target project",
	Long: "Run every configured check. On the target branch the whole tree is checked; " +
		"on any other branch only lines changed relative to the target branch are reported.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup()
		if err != nil {
			return err
		}
		if flagNoRedact {
			cfg.Privacy.RedactSecrets = false
			zerolog.Ctx(ctx).Warn().Msg("secret redaction is disabled")
		}
		exitCode = runChecks(ctx, cfg, os.Stdout)
		return nil
	},
}

// runChecks performs one full run inside the target project and returns
// the exit code.
func runChecks(ctx context.Context, cfg config.Config, stdout io.Writer) int {
	log := zerolog.Ctx(ctx)
	code := ExitSuccess

	err := workdir.Within(cfg.TargetProject, func() error {
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		git := gitctx.New(".")
		meta, err := git.Meta(ctx)
		if err != nil {
			return err
		}

		res, gitDur, err := resolveChanges(ctx, cfg, git)
		if err != nil {
			return err
		}
		if res.Empty() {
			log.Info().Msgf("There is no %s file to check", cfg.Extension)
			return nil
		}

		list, err := checks.FromConfig(cfg, checks.ExecRunner{Timeout: cfg.ToolTimeout})
		if err != nil {
			return err
		}
		engine := &review.Engine{Tool: "deltacheck", Version: version, Checks: list}
		if cfg.Privacy.RedactSecrets {
			engine.Redact = redact.Secrets
		}

		repo := review.RepoInfo{Root: meta.Root, Head: meta.Head, Branch: res.Branch, Target: res.Target}
		report, err := engine.Run(ctx, review.NewTarget(root, os.DirFS("."), res), repo, res.Mode, gitDur.Milliseconds())
		if err != nil {
			return err
		}

		if err := output.WriteReport(report, cfg.Format, stdout, cfg.ResultFile); err != nil {
			return err
		}
		log.Info().
			Str("run_id", report.RunID).
			Int("findings", report.Summary.Findings).
			Str("result_file", cfg.ResultFile).
			Msg("run complete")

		if flagFailOnFindings && report.Summary.Findings > 0 {
			code = ExitFindings
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
		return ExitRuntimeError
	}
	return code
}

func init() {
	fs := runCmd.Flags()
	fs.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	fs.StringVar(&flagResultFile, "result-file", "", "Result file, relative to the project")
	fs.StringVar(&flagChecks, "checks", "", "Checks to run, in order (comma-separated)")
	fs.DurationVar(&flagTimeout, "timeout", 0, "Timeout for each external tool invocation")
	fs.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	fs.BoolVar(&flagFailOnFindings, "fail-on-findings", false, "Exit 1 when any finding is reported")
}
