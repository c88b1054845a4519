package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore marks
// nesting: DELTACHECK_TOOLS__PYLINT__COMMAND sets tools.pylint.command.
const EnvPrefix = "DELTACHECK_"

// ProjectFile is the per-project config file looked up in the working
// directory.
const ProjectFile = ".deltacheck.toml"

// Config represents the deltacheck configuration.
type Config struct {
	TargetProject    string        `koanf:"target_project"`
	TargetBranch     string        `koanf:"target_branch"`
	CodeDir          string        `koanf:"code_dir"`
	Extension        string        `koanf:"extension"`
	Exclude          []string      `koanf:"exclude"`
	AcceptedComments []string      `koanf:"accepted_comments"`
	CommentMarker    string        `koanf:"comment_marker"`
	DebugPattern     string        `koanf:"debug_pattern"`
	ResultFile       string        `koanf:"result_file"`
	Format           string        `koanf:"format"`
	LogLevel         string        `koanf:"log_level"`
	Checks           []string      `koanf:"checks"`
	ToolTimeout      time.Duration `koanf:"tool_timeout"`
	Privacy          PrivacyConfig `koanf:"privacy"`
	Tools            ToolsConfig   `koanf:"tools"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `koanf:"redact_secrets"`
}

// ToolsConfig holds per-analyzer settings.
type ToolsConfig struct {
	Pylint   PylintConfig   `koanf:"pylint"`
	Mypy     MypyConfig     `koanf:"mypy"`
	Coverage CoverageConfig `koanf:"coverage"`
	Trivy    TrivyConfig    `koanf:"trivy"`
}

type PylintConfig struct {
	Command     string   `koanf:"command"`
	Disable     []string `koanf:"disable"`
	CodeDisable []string `koanf:"code_disable"`
	TestDisable []string `koanf:"test_disable"`
}

type MypyConfig struct {
	Command      string `koanf:"command"`
	InstallTypes bool   `koanf:"install_types"`
}

type CoverageConfig struct {
	Command      string `koanf:"command"`
	Pip          string `koanf:"pip"`
	Requirements string `koanf:"requirements"`
	JSONReport   string `koanf:"json_report"`
	HTMLDir      string `koanf:"html_dir"`
}

type TrivyConfig struct {
	Command  string   `koanf:"command"`
	Scanners []string `koanf:"scanners"`
}

// KnownChecks lists every check name in its default run order.
var KnownChecks = []string{"debug", "comments", "pylint", "mypy", "coverage", "vulnerability"}

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "markdown", "sarif"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		TargetBranch:     "master",
		CodeDir:          "app",
		Extension:        ".py",
		Exclude:          []string{},
		AcceptedComments: []string{"# Arrange", "# Act", "# Assert"},
		CommentMarker:    "#",
		DebugPattern:     `^\s*print\(`,
		ResultFile:       "comments.txt",
		Format:           "text",
		LogLevel:         "info",
		Checks:           append([]string(nil), KnownChecks...),
		ToolTimeout:      10 * time.Minute,
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
		Tools: ToolsConfig{
			Pylint: PylintConfig{
				Command: "pylint",
				Disable: []string{
					"line-too-long", "missing-function-docstring", "missing-module-docstring",
					"invalid-name", "missing-class-docstring", "import-error",
				},
				CodeDisable: []string{"too-few-public-methods"},
				TestDisable: []string{
					"redefined-outer-name", "too-many-arguments", "unused-argument",
					"protected-access", "duplicate-code",
				},
			},
			Mypy: MypyConfig{
				Command:      "mypy",
				InstallTypes: true,
			},
			Coverage: CoverageConfig{
				Command:      "pytest",
				Pip:          "pip",
				Requirements: "requirements-dev.txt",
				JSONReport:   "cov.json",
				HTMLDir:      "cov_html",
			},
			Trivy: TrivyConfig{
				Command:  "trivy",
				Scanners: []string{"vuln", "secret", "config", "license"},
			},
		},
	}
}

// ToMap flattens cfg into dotted koanf keys.
func (c Config) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"target_project":              c.TargetProject,
		"target_branch":               c.TargetBranch,
		"code_dir":                    c.CodeDir,
		"extension":                   c.Extension,
		"exclude":                     c.Exclude,
		"accepted_comments":           c.AcceptedComments,
		"comment_marker":              c.CommentMarker,
		"debug_pattern":               c.DebugPattern,
		"result_file":                 c.ResultFile,
		"format":                      c.Format,
		"log_level":                   c.LogLevel,
		"checks":                      c.Checks,
		"tool_timeout":                c.ToolTimeout.String(),
		"privacy.redact_secrets":      c.Privacy.RedactSecrets,
		"tools.pylint.command":        c.Tools.Pylint.Command,
		"tools.pylint.disable":        c.Tools.Pylint.Disable,
		"tools.pylint.code_disable":   c.Tools.Pylint.CodeDisable,
		"tools.pylint.test_disable":   c.Tools.Pylint.TestDisable,
		"tools.mypy.command":          c.Tools.Mypy.Command,
		"tools.mypy.install_types":    c.Tools.Mypy.InstallTypes,
		"tools.coverage.command":      c.Tools.Coverage.Command,
		"tools.coverage.pip":          c.Tools.Coverage.Pip,
		"tools.coverage.requirements": c.Tools.Coverage.Requirements,
		"tools.coverage.json_report":  c.Tools.Coverage.JSONReport,
		"tools.coverage.html_dir":     c.Tools.Coverage.HTMLDir,
		"tools.trivy.command":         c.Tools.Trivy.Command,
		"tools.trivy.scanners":        c.Tools.Trivy.Scanners,
	}
}

// Keys returns every settable config key in lexical order.
func Keys() []string {
	m := Default().ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigDir returns the platform-appropriate config directory for deltacheck.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deltacheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "deltacheck"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "deltacheck"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "deltacheck"), nil
	default:
		return filepath.Join(home, ".config", "deltacheck"), nil
	}
}

// ConfigPath returns the full path to the user config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadOptions controls which layers Load reads.
type LoadOptions struct {
	// ConfigFile replaces the project file lookup when set. It must exist.
	ConfigFile string
	// Dir is searched for ProjectFile. Empty means the working directory.
	Dir string
	// Overrides come from CLI flags, keyed like the config file. Only
	// flags the user actually set should be present.
	Overrides map[string]interface{}
}

// Load builds the effective config by merging, lowest first: defaults, the
// user config file, the project file (or ConfigFile), DELTACHECK_*
// environment variables, and overrides.
func Load(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Default().ToMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	userPath, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	if err := loadIfExists(k, userPath); err != nil {
		return Config{}, err
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	} else if err := loadIfExists(k, filepath.Join(opts.Dir, ProjectFile)); err != nil {
		return Config{}, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("applying flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func loadIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// envValue maps DELTACHECK_TOOLS__PYLINT__DISABLE=a,b to
// tools.pylint.disable = [a b]. Unknown keys are dropped.
func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	def, ok := Default().ToMap()[key]
	if !ok {
		return "", nil
	}
	if _, list := def.([]string); list {
		return key, splitList(value)
	}
	return key, value
}

// Validate rejects values no run could use.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.TargetBranch) == "" {
		return fmt.Errorf("target_branch must not be empty")
	}
	if cfg.Extension != "" && !strings.HasPrefix(cfg.Extension, ".") {
		return fmt.Errorf("extension %q must start with a dot", cfg.Extension)
	}
	if !contains(Formats, cfg.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", cfg.Format, strings.Join(Formats, ", "))
	}
	for _, c := range cfg.Checks {
		if !contains(KnownChecks, c) {
			return fmt.Errorf("unknown check %q (want one of %s)", c, strings.Join(KnownChecks, ", "))
		}
	}
	if _, err := regexp.Compile(cfg.DebugPattern); err != nil {
		return fmt.Errorf("debug_pattern: %w", err)
	}
	if cfg.ToolTimeout < 0 {
		return fmt.Errorf("tool_timeout must not be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Marshal renders cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(cfg.ToMap(), "."), nil); err != nil {
		return nil, err
	}
	return k.Marshal(toml.Parser())
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SetField sets key to value in the TOML file at path, leaving other keys
// untouched. The value is coerced to the key's type; lists are comma
// separated.
func SetField(path, key, value string) error {
	def, ok := Default().ToMap()[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var v interface{}
	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		v = b
	case []string:
		v = splitList(value)
	default:
		v = value
	}

	k := koanf.New(".")
	if err := loadIfExists(k, path); err != nil {
		return err
	}
	if err := k.Set(key, v); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	merged := koanf.New(".")
	if err := merged.Load(confmap.Provider(Default().ToMap(), "."), nil); err != nil {
		return err
	}
	if err := merged.Merge(k); err != nil {
		return err
	}
	var cfg Config
	if err := merged.Unmarshal("", &cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFile(path, data)
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
