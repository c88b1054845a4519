package review

import (
	"context"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/correlate"
)

// Check is one analyzer run against the change-set.
type Check interface {
	// Name is the configuration key of the check.
	Name() string
	// Title is the banner shown before the check's results.
	Title() string
	// Run never returns an error: collaborator problems are reported
	// through the section status.
	Run(ctx context.Context, t Target) Section
}

// Target is what a check examines.
type Target struct {
	// Root is the project directory external tools run in.
	Root string
	// FS reads the working tree relative to Root.
	FS         fs.FS
	Code       changeset.ChangeSet
	Test       changeset.ChangeSet
	Correlator *correlate.Correlator
}

// NewTarget builds a Target from a resolved change-set.
func NewTarget(root string, fsys fs.FS, res changeset.Result) Target {
	all := res.All()
	return Target{
		Root:       root,
		FS:         fsys,
		Code:       res.Code,
		Test:       res.Test,
		Correlator: correlate.New(all, correlate.Options{}),
	}
}

// All returns code and test change-sets combined.
func (t Target) All() changeset.ChangeSet {
	return t.Code.Merge(t.Test)
}

// Engine runs checks one after another and assembles the report.
type Engine struct {
	Tool    string
	Version string
	Checks  []Check
	// Redact, when set, is applied to raw text sections.
	Redact func(string) string
}

// Run executes every check in order. A cancelled context stops the run
// between checks and returns the context error.
func (e *Engine) Run(ctx context.Context, t Target, repo RepoInfo, mode changeset.Mode, gitMs int64) (*Report, error) {
	startTime := time.Now()
	log := zerolog.Ctx(ctx)

	sections := make([]Section, 0, len(e.Checks))
	for _, c := range e.Checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info().Msg(c.Title() + "...")
		checkStart := time.Now()

		sec := c.Run(ctx, t)
		if sec.Check == "" {
			sec.Check = c.Name()
		}
		if sec.Title == "" {
			sec.Title = c.Title()
		}
		if sec.Status == "" {
			sec.Status = StatusOK
		}
		if sec.Raw && e.Redact != nil && len(sec.Text) > 0 {
			// One pass over the whole block so multi-line secrets are caught.
			sec.Text = strings.Split(e.Redact(strings.Join(sec.Text, "\n")), "\n")
		}

		log.Debug().
			Str("check", sec.Check).
			Str("status", string(sec.Status)).
			Int("findings", sec.Findings).
			Dur("elapsed", time.Since(checkStart)).
			Msg("check finished")
		if sec.Notice != "" && sec.Status != StatusOK {
			log.Warn().Str("check", sec.Check).Msg(sec.Notice)
		}
		sections = append(sections, sec)
	}
	checksMs := time.Since(startTime).Milliseconds()

	return &Report{
		Tool:    e.Tool,
		Version: e.Version,
		RunID:   uuid.NewString(),
		Repo:    repo,
		Mode:    string(mode),
		Files: FileSets{
			Code: t.Code,
			Test: t.Test,
		},
		Sections: sections,
		Summary:  ComputeSummary(sections),
		Timing: Timing{
			GitMs:    gitMs,
			ChecksMs: checksMs,
			TotalMs:  gitMs + checksMs,
		},
	}, nil
}
