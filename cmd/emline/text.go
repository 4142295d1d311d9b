// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/emline/internal/protocol"
)

// NewSplitCmd creates the split subcommand.
func NewSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <line>...",
		Short: "Print the tokens of a protocol payload, one per line",
		Long: `Split a payload the way handlers receive it: quote-aware splitting
on whitespace, outer quotes removed, backslash escapes resolved.
Multiple arguments are joined with a space first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, token := range protocol.Split(strings.Join(args, " ")) {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			}
			return nil
		},
	}
}

// NewEscapeCmd creates the escape subcommand.
func NewEscapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escape <value>",
		Short: "Print a value escaped for use as a host command argument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), protocol.Escape(args[0]))
			return nil
		},
	}
}

// NewExpandCmd creates the expand subcommand.
func NewExpandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <template> [args...]",
		Short: "Print a command template expanded against arguments",
		Long: `Expand a command template. Placeholders:
  %s      all arguments joined with spaces
  %r      all arguments joined, escaped and single-quoted
  %1-%9   the escaped positional argument
  %%      a literal percent sign`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), protocol.Expand(args[0], args[1:]))
			return nil
		},
	}
}
