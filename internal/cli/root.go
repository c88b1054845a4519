package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/deltacheck/internal/config"
	"github.com/dshills/deltacheck/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// Global flags
var (
	flagConfig   string
	flagProject  string
	flagTarget   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "deltacheck",
	Short: "Run code checks on the lines a branch changed",
	Long: "deltacheck runs static-analysis, style and coverage checks over a Python project " +
		"and reports only the findings that fall on lines changed relative to a target branch.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print deltacheck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "deltacheck version %s\n", version)
	},
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Config file (replaces <dir>/.deltacheck.toml)")
	fs.StringVarP(&flagProject, "project", "C", "", "Target project directory")
	fs.StringVar(&flagTarget, "target", "", "Target branch to compare against")
	fs.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// buildOverrides returns config overrides for the flags that were set.
func buildOverrides() map[string]interface{} {
	m := make(map[string]interface{})
	if flagProject != "" {
		m["target_project"] = flagProject
	}
	if flagTarget != "" {
		m["target_branch"] = flagTarget
	}
	if flagLogLevel != "" {
		m["log_level"] = flagLogLevel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagResultFile != "" {
		m["result_file"] = flagResultFile
	}
	if flagChecks != "" {
		m["checks"] = splitComma(flagChecks)
	}
	if flagTimeout > 0 {
		m["tool_timeout"] = flagTimeout.String()
	}
	return m
}

// setup loads and validates the effective config and returns a context
// carrying the logger.
func setup() (context.Context, config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: flagConfig,
		Overrides:  buildOverrides(),
	})
	if err != nil {
		return nil, config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, config.Config{}, err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	return logger.WithContext(context.Background()), cfg, nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}
