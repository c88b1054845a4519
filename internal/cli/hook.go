package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/gitctx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> deltacheck pre-push hook >>>"
	hookMarkerEnd   = "# <<< deltacheck pre-push hook <<<"
)

var hookFormat string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-push hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Check changed lines before every git push",
	Long: "Install a pre-push hook that runs the configured checks whenever the checked-out " +
		"branch is pushed. The --project and --config flags given here are recorded in the hook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := currentHookOptions()
		if err != nil {
			return err
		}
		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := installHook(hookPath, generateHookScript(opts)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(os.Stdout, "Installed deltacheck pre-push hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the deltacheck pre-push hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		msg, err := uninstallHook(hookPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintln(os.Stdout, msg)
		return nil
	},
}

// hookPrePushCmd is what the installed hook calls. git passes the remote
// name and URL as arguments and one ref update per line on stdin.
var hookPrePushCmd = &cobra.Command{
	Use:    "pre-push [remote] [url]",
	Short:  "Run checks for a git push (called by the hook)",
	Hidden: true,
	Args:   cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := parsePushUpdates(cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading push updates: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		ctx, cfg, err := setup()
		if err != nil {
			return err
		}
		exitCode = prePush(ctx, cfg, updates, os.Stdout)
		return nil
	},
}

// prePush runs the checks when the checked-out branch is among the pushed
// updates. Findings block the push.
func prePush(ctx context.Context, cfg config.Config, updates []pushUpdate, stdout io.Writer) int {
	log := zerolog.Ctx(ctx)

	branch, err := gitctx.New(cfg.TargetProject).CurrentBranch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pre-push check aborted")
		return ExitRuntimeError
	}
	pushed, ok := pushedUpdate(updates, branch)
	if !ok {
		log.Info().Str("branch", branch).Msg("checked-out branch is not being pushed; nothing to check")
		return ExitSuccess
	}
	if remote := branchOf(pushed.RemoteRef); remote == cfg.TargetBranch && branch != cfg.TargetBranch {
		log.Warn().Str("branch", branch).Msgf("pushing directly to %s", remote)
	}

	flagFailOnFindings = true
	return runChecks(ctx, cfg, stdout)
}

// hookOptions are the flags recorded in the installed hook.
type hookOptions struct {
	Format  string
	Project string
	Config  string
}

func currentHookOptions() (hookOptions, error) {
	opts := hookOptions{Format: hookFormat}
	for _, p := range []struct {
		in  string
		out *string
	}{{flagProject, &opts.Project}, {flagConfig, &opts.Config}} {
		if p.in == "" {
			continue
		}
		abs, err := filepath.Abs(p.in)
		if err != nil {
			return hookOptions{}, err
		}
		*p.out = abs
	}
	return opts, nil
}

func getHookPath(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dir, err := gitctx.New(flagProject).HooksDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pre-push"), nil
}

// pushUpdate is one "<local ref> <local sha> <remote ref> <remote sha>"
// line git writes to a pre-push hook.
type pushUpdate struct {
	LocalRef  string
	LocalSHA  string
	RemoteRef string
	RemoteSHA string
}

// deletion reports whether the update deletes the remote ref.
func (u pushUpdate) deletion() bool {
	return strings.Trim(u.LocalSHA, "0") == ""
}

func parsePushUpdates(r io.Reader) ([]pushUpdate, error) {
	var updates []pushUpdate
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) != 4 {
			continue
		}
		updates = append(updates, pushUpdate{LocalRef: f[0], LocalSHA: f[1], RemoteRef: f[2], RemoteSHA: f[3]})
	}
	return updates, sc.Err()
}

// pushedUpdate returns the non-deleting update that pushes branch.
func pushedUpdate(updates []pushUpdate, branch string) (pushUpdate, bool) {
	for _, u := range updates {
		if !u.deletion() && branchOf(u.LocalRef) == branch {
			return u, true
		}
	}
	return pushUpdate{}, false
}

// branchOf returns the branch name of a refs/heads ref, or "" for any other
// ref.
func branchOf(ref string) string {
	name, ok := strings.CutPrefix(ref, "refs/heads/")
	if !ok {
		return ""
	}
	return name
}

func generateHookScript(opts hookOptions) string {
	args := []string{"deltacheck", "hook", "pre-push", "--format", shellQuote(opts.Format)}
	if opts.Project != "" {
		args = append(args, "--project", shellQuote(opts.Project))
	}
	if opts.Config != "" {
		args = append(args, "--config", shellQuote(opts.Config))
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(strings.Join(args, " ") + ` "$@"` + "\n")
	b.WriteString("DELTACHECK_EXIT=$?\n")
	b.WriteString("if [ $DELTACHECK_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"deltacheck: findings on changed lines, push blocked\" >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $DELTACHECK_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"deltacheck: run failed (exit $DELTACHECK_EXIT), allowing push\" >&2\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// installHook writes section into the hook file at path, replacing an
// earlier deltacheck section and keeping any other hook content.
func installHook(path, section string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading hook file: %w", err)
	}

	content := "#!/bin/sh\n" + section
	if len(existing) > 0 {
		content = spliceHookSection(string(existing), section)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

// uninstallHook removes the deltacheck section, deleting the file when
// nothing but a shebang is left.
func uninstallHook(path string) (string, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "No pre-push hook found.", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading hook file: %w", err)
	}

	content := spliceHookSection(string(existing), "")
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("removing hook file: %w", err)
		}
		return "Removed deltacheck pre-push hook at " + path, nil
	}
	if content == string(existing) {
		return "No deltacheck section in " + path, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("writing hook file: %w", err)
	}
	return "Removed deltacheck section from " + path, nil
}

// spliceHookSection replaces the marker-delimited section of existing with
// section. Without markers a non-empty section is appended.
func spliceHookSection(existing, section string) string {
	start := strings.Index(existing, hookMarkerStart)
	end := strings.Index(existing, hookMarkerEnd)
	if start == -1 || end < start {
		if section == "" {
			return existing
		}
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}
	after := strings.TrimPrefix(existing[end+len(hookMarkerEnd):], "\n")
	return existing[:start] + section + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookPrePushCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Report format used by the hook (text, json, markdown, sarif)")
	hookPrePushCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
}
