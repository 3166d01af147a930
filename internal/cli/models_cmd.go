// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/logging"
	"github.com/jeranaias/gemchat/internal/util"
)

const listModelsTimeout = 30 * time.Second

// newModelsCmd builds "gemchat models".
func newModelsCmd(f *flags, std streams) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the Gemini models that support chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := loadConfig(f)
			if err != nil {
				return err
			}
			if err := l.cfg.RequireAPIKey(); err != nil {
				return err
			}
			logging.Discard()

			ctx, cancel := context.WithTimeout(cmd.Context(), listModelsTimeout)
			defer cancel()

			client, err := gemini.NewClient(ctx, l.cfg.APIKey)
			if err != nil {
				return err
			}
			defer client.Close()

			models, err := client.ListModels(ctx)
			if err != nil {
				return err
			}

			for _, m := range models {
				marker := "  "
				if m.ID == l.cfg.Model {
					marker = "* "
				}
				fmt.Fprintf(std.out, "%s%-32s %s\n", marker, m.ID, mutedStyle.Render(util.Truncate(m.DisplayName, 40)))
			}
			return nil
		},
	}
}
