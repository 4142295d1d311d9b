// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the emline CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emline",
		Short: "emline - scripted event manager for line-protocol hosts",
		Long: `emline reads EVENT and REQUEST lines from a host process, fans them out
to handlers registered by Lua script bundles, and writes replies and
commands back to the host.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: XDG_CONFIG_HOME/emline/config.yaml)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewSplitCmd())
	cmd.AddCommand(NewEscapeCmd())
	cmd.AddCommand(NewExpandCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
