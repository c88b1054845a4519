package changeset

import (
	"context"
	"fmt"
	"io/fs"
)

// VCS is the version-control collaborator the resolver depends on.
type VCS interface {
	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// DiffAgainst returns zero-context unified-diff text between the working
	// tree and target.
	DiffAgainst(ctx context.Context, target string) (string, error)
}

// Mode identifies how a change-set was computed.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// Options configures a Resolver.
type Options struct {
	TargetBranch string
	Extension    string
	// CodeDir restricts incremental results to paths starting with it.
	CodeDir string
	// Classify overrides the default test/code substring rule.
	Classify func(path string) Bucket
	// Exclude drops matching paths in both modes.
	Exclude func(path string) bool
}

// Result is the resolved pair of change-sets.
type Result struct {
	Mode   Mode
	Branch string
	Target string
	Code   ChangeSet
	Test   ChangeSet
}

// All returns code and test change-sets combined.
func (r Result) All() ChangeSet {
	return r.Code.Merge(r.Test)
}

// Empty reports whether neither bucket holds a file.
func (r Result) Empty() bool {
	return len(r.Code) == 0 && len(r.Test) == 0
}

// Resolver decides between full-review and incremental mode and produces the
// code and test change-sets.
type Resolver struct {
	vcs  VCS
	fsys fs.FS
	opts Options
}

// NewResolver returns a Resolver reading the working tree through fsys.
func NewResolver(vcs VCS, fsys fs.FS, opts Options) *Resolver {
	return &Resolver{vcs: vcs, fsys: fsys, opts: opts}
}

// Resolve runs in full-review mode when the current branch is the target
// branch and in incremental mode otherwise. Version-control failures are
// returned as errors.
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	branch, err := r.vcs.CurrentBranch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("detecting current branch: %w", err)
	}

	res := Result{Branch: branch, Target: r.opts.TargetBranch}
	if branch == r.opts.TargetBranch {
		res.Mode = ModeFull
		res.Code, res.Test, err = r.full()
	} else {
		res.Mode = ModeIncremental
		res.Code, res.Test, err = r.incremental(ctx)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Resolver) full() (ChangeSet, ChangeSet, error) {
	cs, err := Walk(r.fsys, r.opts.Extension)
	if err != nil {
		return nil, nil, err
	}
	c := Classifier{Predicate: r.opts.Classify}
	code, test := c.Partition(cs.Without(r.opts.Exclude))
	return code, test, nil
}

func (r *Resolver) incremental(ctx context.Context) (ChangeSet, ChangeSet, error) {
	diff, err := r.vcs.DiffAgainst(ctx, r.opts.TargetBranch)
	if err != nil {
		return nil, nil, fmt.Errorf("diffing against %s: %w", r.opts.TargetBranch, err)
	}
	c := Classifier{Prefix: r.opts.CodeDir, Predicate: r.opts.Classify}
	code, test := c.Partition(ParseDiff(diff, r.opts.Extension).Without(r.opts.Exclude))
	return code, test, nil
}
