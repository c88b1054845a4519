package gitctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch"`
}

// Client runs git commands inside a working tree.
type Client struct {
	// Dir is the directory git runs in. Empty means the process directory.
	Dir string
}

// New returns a Client rooted at dir.
func New(dir string) *Client {
	return &Client{Dir: dir}
}

// Meta collects repository metadata from git.
func (c *Client) Meta(ctx context.Context) (RepoMeta, error) {
	root, err := c.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := c.output(ctx, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: branch,
	}, nil
}

// CurrentBranch returns the short name of the checked-out branch, or "HEAD"
// when detached.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --abbrev-ref HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DiffAgainst returns the zero-context diff between the working tree and
// target. External diff drivers and colour are disabled, the a/ and b/
// prefixes are fixed regardless of diff.noprefix or diff.mnemonicPrefix, and
// paths are relative to Dir so they match a walk of the project directory.
func (c *Client) DiffAgainst(ctx context.Context, target string) (string, error) {
	out, err := c.output(ctx, "diff", "--no-color", "--no-ext-diff", "--relative",
		"--src-prefix=a/", "--dst-prefix=b/", target, "-U0")
	if err != nil {
		return "", fmt.Errorf("git diff %s: %w", target, err)
	}
	return out, nil
}

// HooksDir returns the absolute path of the repository hooks directory,
// honouring core.hooksPath.
func (c *Client) HooksDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		base := c.Dir
		if base == "" {
			base = "."
		}
		dir = filepath.Join(base, dir)
	}
	return filepath.Abs(dir)
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A leading "**/" also matches at any depth and a trailing "/**" matches the
// whole subtree.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return string(out), nil
}
