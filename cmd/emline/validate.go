// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/holomush/emline/internal/script"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <bundle-dir>...",
		Short: "Validate script bundle manifests without running them",
		Long: `Validates each bundle's emscript.yaml against the manifest schema and
the manifest rules, and checks its api constraint against this build.
Exits with code 0 on success, non-zero on failure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args)
		},
	}
}

func runValidate(w io.Writer, dirs []string) error {
	failed := 0
	for _, dir := range dirs {
		m, err := validateBundle(dir)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %s\n", dir, script.FormatSchemaError(err))
			continue
		}
		fmt.Fprintf(w, "ok   %s (%s %s)\n", dir, m.Name, m.Version)
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d bundles invalid", failed, len(dirs))
	}
	return nil
}

func validateBundle(dir string) (*script.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, script.ManifestFile))
	if err != nil {
		return nil, err
	}
	if err := script.ValidateSchema(data); err != nil {
		return nil, err
	}
	m, err := script.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := m.CheckAPI(script.APIVersion); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(m.EntryFile()))); err != nil {
		return nil, fmt.Errorf("entry %s: %w", m.EntryFile(), err)
	}
	return m, nil
}
