// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// flags holds the root command's parsed flags.
type flags struct {
	file       string
	diff       string
	plain      bool
	configPath string
	model      string
	verbose    bool
}

// streams are the process's standard streams, swappable in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func stdStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:], stdStreams())
}

func execute(ctx context.Context, args []string, std streams) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("unrecovered fault")
			fmt.Fprintf(std.err, "%s %v\n", errorStyle.Render("Fatal:"), r)
			code = ExitFailure
		}
	}()

	root := newRootCmd(std)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		reportError(std.err, err)
		return ExitFailure
	}
	return ExitSuccess
}

// newRootCmd builds the command tree.
func newRootCmd(std streams) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "gemchat",
		Short: "Chat with Gemini from the terminal",
		Long: `gemchat is a terminal chat client for Google Gemini.

The conversation history is kept across restarts (the newest 20 turns by
default). Type /reset to clear it, /help for the other commands.`,
		Example: `  gemchat
  gemchat --file main.go
  git diff | gemchat --diff -
  gemchat --plain --model gemini-1.5-pro`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, std)
		},
	}

	root.SetIn(std.in)
	root.SetOut(std.out)
	root.SetErr(std.err)

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default <home>/config.toml)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	fl := root.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "submit a file for code review")
	fl.StringVarP(&f.diff, "diff", "d", "", "submit diff text for review (- reads stdin)")
	fl.BoolVar(&f.plain, "plain", false, "use the line editor instead of the full-screen shell")
	fl.StringVarP(&f.model, "model", "m", "", "model to use (overrides config)")

	root.AddCommand(newConfigCmd(f, std))
	root.AddCommand(newModelsCmd(f, std))

	return root
}

// readDiff returns the diff flag value, reading stdin for "-".
func readDiff(value string, in io.Reader) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.Wrap(err, "read diff from stdin")
	}
	return string(data), nil
}
