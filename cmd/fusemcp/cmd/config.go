package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/fusemcp/internal/config"
	"github.com/Aman-CERP/fusemcp/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage FuseMCP configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/fusemcp/config.yaml)
  3. Project config (.fusemcp.yaml)
  4. Environment variables (FUSEMCP_*)`,
		Example: `  # Create user config with defaults
  fusemcp config init

  # Show effective configuration (merged from all sources)
  fusemcp config show

  # Print user config file path
  fusemcp config path

  # Back up / restore the user config
  fusemcp config backup
  fusemcp config restore <backup-file>`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file with the default settings.

The file is created at ~/.config/fusemcp/config.yaml (or under
$XDG_CONFIG_HOME if set). Edit it to point providers at real
endpoints and set API keys.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := config.GetUserConfigPath()

	if config.UserConfigExists() && !force {
		out.Warningf("Config already exists at %s (use --force to overwrite)", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := config.NewConfig().WriteYAML(path); err != nil {
		return err
	}

	out.Successf("Created %s", path)
	out.Dim("Set provider endpoints and API keys there, or use FUSEMCP_* env vars.")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the effective configuration after merging all sources.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the user configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())

			path, err := config.BackupUserConfig()
			if err != nil {
				return err
			}
			if path == "" {
				out.Dim("No user config to back up.")
				return nil
			}
			out.Successf("Backed up to %s", path)
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore the user configuration from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			if err := config.RestoreUserConfig(args[0]); err != nil {
				return err
			}
			out.Successf("Restored %s", config.GetUserConfigPath())
			return nil
		},
	}
}
