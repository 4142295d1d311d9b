// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Bundle is a discovered script bundle.
type Bundle struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds bundles under dirs whose names match any of patterns. An
// empty pattern list selects every bundle. Missing directories are skipped.
// Bundles with an invalid manifest are logged and skipped. When the same
// name appears in more than one directory the first directory wins.
// Results are sorted by name.
func Discover(dirs, patterns []string) ([]Bundle, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, oops.In("script").
				Code(CodeInvalidPattern).
				With("pattern", p).
				Wrapf(err, "invalid bundle pattern")
		}
		matchers = append(matchers, g)
	}

	seen := make(map[string]bool)
	var bundles []Bundle
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("script directory does not exist", "dir", dir)
			continue
		}
		if err != nil {
			return nil, oops.In("script").With("dir", dir).Wrapf(err, "read script directory")
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			bundleDir := filepath.Join(dir, entry.Name())
			b, ok := loadBundle(bundleDir)
			if !ok || !selected(matchers, b.Manifest.Name) {
				continue
			}
			if seen[b.Manifest.Name] {
				slog.Debug("bundle shadowed by earlier directory",
					"bundle", b.Manifest.Name,
					"dir", bundleDir)
				continue
			}
			seen[b.Manifest.Name] = true
			bundles = append(bundles, b)
		}
	}

	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].Manifest.Name < bundles[j].Manifest.Name
	})
	return bundles, nil
}

func loadBundle(dir string) (Bundle, bool) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Bundle{}, false
	}
	if err != nil {
		slog.Warn("failed to read manifest", "dir", dir, "error", err)
		return Bundle{}, false
	}

	m, err := ParseManifest(data)
	if err != nil {
		slog.Warn("skipping bundle with invalid manifest", "dir", dir, "error", err)
		return Bundle{}, false
	}
	return Bundle{Manifest: m, Dir: dir}, true
}

func selected(matchers []glob.Glob, name string) bool {
	if len(matchers) == 0 {
		return true
	}
	for _, g := range matchers {
		if g.Match(name) {
			return true
		}
	}
	return false
}
