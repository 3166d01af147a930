// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/config"
)

// newConfigCmd builds "gemchat config".
func newConfigCmd(f *flags, std streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.toml with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, err := configPath(f)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(std.out, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (the API key is never shown)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			l, err := loadConfig(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(std.out, "# %s\n", l.path)
			fmt.Fprint(std.out, l.cfg.String())
			key := "not set"
			if l.cfg.APIKey != "" {
				key = "set"
			}
			fmt.Fprintf(std.out, "# GOOGLE_API_KEY: %s\n", key)
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, err := configPath(f)
			if err != nil {
				return err
			}
			fmt.Fprintln(std.out, path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, pathCmd)
	return cmd
}

// configPath returns --config or the default location under home.
func configPath(f *flags) (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	home, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return config.ConfigPath(home), nil
}
