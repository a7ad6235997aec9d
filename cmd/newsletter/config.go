package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xyz-social/newsletter/internal/config"
	"github.com/xyz-social/newsletter/internal/paths"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configPathCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a commented config file holding the default settings.

The file goes to --config when given, otherwise <home>/config.toml. An
existing file is left alone unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if err := writeSampleConfig(path, force); err != nil {
				return err
			}
			if flagJSON {
				return printJSON(map[string]string{"path": path})
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show which config file is read",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if flagJSON {
				return printJSON(map[string]any{"path": path, "exists": paths.Exists(path)})
			}
			if !paths.Exists(path) {
				fmt.Printf("%s (not present, defaults in use)\n", path)
				return nil
			}
			fmt.Println(path)
			return nil
		},
	}
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return paths.ConfigFile(cfg.Home)
}

// writeSampleConfig writes config.SampleConfig to path, creating parent
// directories. An existing file is an error unless force is set.
func writeSampleConfig(path string, force bool) error {
	if !force && paths.Exists(path) {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(config.SampleConfig), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
