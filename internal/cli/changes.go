package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dshills/deltacheck/internal/changeset"
	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/gitctx"
	"github.com/dshills/deltacheck/internal/output"
	"github.com/dshills/deltacheck/internal/workdir"
	"github.com/spf13/cobra"
)

var flagChangesJSON bool

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show the code and test change-sets a run would check",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup()
		if err != nil {
			return err
		}
		res, err := resolveIn(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := writeChanges(os.Stdout, res, flagChangesJSON); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

type changesView struct {
	Mode   changeset.Mode      `json:"mode"`
	Branch string              `json:"branch"`
	Target string              `json:"target"`
	Code   changeset.ChangeSet `json:"code"`
	Test   changeset.ChangeSet `json:"test"`
}

func writeChanges(w io.Writer, res changeset.Result, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(changesView{
			Mode:   res.Mode,
			Branch: res.Branch,
			Target: res.Target,
			Code:   nonNil(res.Code),
			Test:   nonNil(res.Test),
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if _, err := fmt.Fprintf(w, "%s review of %s against %s\n", res.Mode, res.Branch, res.Target); err != nil {
		return err
	}
	rows := [][]string{{"Kind", "File", "Lines"}}
	for _, part := range []struct {
		kind string
		cs   changeset.ChangeSet
	}{{"code", res.Code}, {"test", res.Test}} {
		for _, path := range part.cs.Paths() {
			lines, _ := part.cs.Lines(path)
			rows = append(rows, []string{part.kind, path, lines.String()})
		}
	}
	_, err := io.WriteString(w, output.Tabulate(rows))
	return err
}

func nonNil(cs changeset.ChangeSet) changeset.ChangeSet {
	if cs == nil {
		return changeset.ChangeSet{}
	}
	return cs
}

// resolveIn resolves the change-set of the configured project.
func resolveIn(ctx context.Context, cfg config.Config) (changeset.Result, error) {
	var res changeset.Result
	err := workdir.Within(cfg.TargetProject, func() error {
		var err error
		res, _, err = resolveChanges(ctx, cfg, gitctx.New("."))
		return err
	})
	return res, err
}

func init() {
	changesCmd.Flags().BoolVar(&flagChangesJSON, "json", false, "Print change-sets as JSON")
}
