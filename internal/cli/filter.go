package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/deltacheck/internal/checks"
	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagCoverage string
	flagBanners  []string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep only tool output that falls on changed lines",
	Long: "Read analyzer output from stdin and print the lines whose path:line location is " +
		"in the current change-set. With --coverage, intersect a coverage JSON report instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var report correlate.CoverageReport
		var input []byte
		var err error
		if flagCoverage != "" {
			report, err = readCoverageFile(flagCoverage)
		} else {
			input, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

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
		corr := correlate.New(res.All(), correlate.Options{Banners: flagBanners})

		w := cmd.OutOrStdout()
		if flagCoverage != "" {
			err = writeUncovered(w, corr.Coverage(report))
		} else {
			for _, line := range corr.FilterText(string(input)) {
				if _, err = fmt.Fprintln(w, line); err != nil {
					break
				}
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func readCoverageFile(path string) (correlate.CoverageReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return checks.ReadCoverageReport(f)
}

func writeUncovered(w io.Writer, unc []correlate.Uncovered) error {
	rows := [][]string{{"File", "Line number"}}
	for _, u := range unc {
		rows = append(rows, []string{u.Path, output.FormatLines(u.Lines)})
	}
	_, err := io.WriteString(w, output.Tabulate(rows))
	return err
}

func init() {
	filterCmd.Flags().StringVar(&flagCoverage, "coverage", "", "Coverage JSON report to intersect with the change-set")
	filterCmd.Flags().StringArrayVar(&flagBanners, "banner", nil, "Line prefix always kept as a section banner (repeatable)")
}
