package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/deltacheck/internal/config"
	"github.com/spf13/cobra"
)

var flagConfigProject bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage deltacheck configuration",
}

// configTarget returns the file config init and set write to.
func configTarget() (string, error) {
	if flagConfigProject {
		return filepath.Join(flagProject, config.ProjectFile), nil
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. List values are comma separated. Run 'deltacheck config keys' for valid keys.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}

		if err := config.SetField(path, args[0], args[1]); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup()
		if err != nil {
			return err
		}

		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stdout, string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations in load order",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "user:    %s\n", user)
		if flagConfig != "" {
			fmt.Fprintf(os.Stdout, "project: %s\n", flagConfig)
		} else {
			fmt.Fprintf(os.Stdout, "project: %s\n", config.ProjectFile)
		}
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable configuration keys",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.Keys() {
			fmt.Fprintln(os.Stdout, k)
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configKeysCmd)
	for _, c := range []*cobra.Command{configInitCmd, configSetCmd} {
		c.Flags().BoolVar(&flagConfigProject, "project-file", false, "Write "+config.ProjectFile+" in the project directory instead of the user config")
	}
}
