package cli

import (
	"context"
	"os"
	"time"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/gitctx"
	"github.com/rs/zerolog"
)

// resolveChanges computes the change-sets for the working directory.
func resolveChanges(ctx context.Context, cfg config.Config, git *gitctx.Client) (changeset.Result, time.Duration, error) {
	start := time.Now()
	resolver := changeset.NewResolver(git, os.DirFS("."), changeset.Options{
		TargetBranch: cfg.TargetBranch,
		Extension:    cfg.Extension,
		CodeDir:      cfg.CodeDir,
		Exclude:      excluder(cfg.Exclude),
	})
	res, err := resolver.Resolve(ctx)
	if err != nil {
		return changeset.Result{}, 0, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("mode", string(res.Mode)).
		Str("branch", res.Branch).
		Int("code_files", len(res.Code)).
		Int("test_files", len(res.Test)).
		Msg("change-set resolved")
	return res, time.Since(start), nil
}

func excluder(patterns []string) func(string) bool {
	if len(patterns) == 0 {
		return nil
	}
	return func(path string) bool {
		return gitctx.MatchesAny(path, patterns)
	}
}
