// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest file name inside a bundle directory.
const ManifestFile = "emscript.yaml"

// DefaultEntry is the entry file used when a manifest does not name one.
const DefaultEntry = "main.lua"

// APIVersion is the version of the em module exposed to scripts. Manifests
// constrain it with their api field.
const APIVersion = "1.0.0"

// Manifest represents an emscript.yaml file.
type Manifest struct {
	Name        string `yaml:"name" json:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version     string `yaml:"version" json:"version" jsonschema:"minLength=1"`
	API         string `yaml:"api,omitempty" json:"api,omitempty" jsonschema:"description=semver constraint on the em module version"`
	Entry       string `yaml:"entry,omitempty" json:"entry,omitempty" jsonschema:"description=Lua file run at load, relative to the bundle"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// maxNameLength is the maximum allowed length for bundle names.
const maxNameLength = 64

// namePattern validates bundle names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates an emscript.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, ErrInvalidManifest("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.In("script").Code(CodeInvalidManifest).Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return ErrInvalidManifest("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return ErrInvalidManifest("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return ErrInvalidManifest("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return oops.In("script").Code(CodeInvalidManifest).
			With("version", m.Version).
			Wrapf(err, "version %q is not a semantic version", m.Version)
	}

	if m.API != "" {
		if _, err := semver.NewConstraint(m.API); err != nil {
			return oops.In("script").Code(CodeInvalidManifest).
				With("api", m.API).
				Wrapf(err, "api %q is not a version constraint", m.API)
		}
	}

	if m.Entry != "" {
		if err := ValidatePath(m.Entry); err != nil {
			return err
		}
	}

	return nil
}

// EntryFile returns the bundle-relative path of the entry script.
func (m *Manifest) EntryFile() string {
	if m.Entry == "" {
		return DefaultEntry
	}
	return m.Entry
}

// CheckAPI reports an API_MISMATCH error when version does not satisfy the
// manifest's api constraint. A manifest without a constraint accepts any
// version.
func (m *Manifest) CheckAPI(version string) error {
	if m.API == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(m.API)
	if err != nil {
		return oops.In("script").Code(CodeInvalidManifest).With("api", m.API).Wrap(err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return oops.In("script").Code(CodeAPIMismatch).With("version", version).Wrap(err)
	}
	if !constraint.Check(v) {
		return oops.In("script").
			Code(CodeAPIMismatch).
			With("bundle", m.Name).
			With("api", m.API).
			With("version", version).
			Errorf("bundle %s requires em api %s, host provides %s", m.Name, m.API, version)
	}
	return nil
}

// ValidatePath checks a bundle-relative path. Absolute paths and paths with
// a ".." segment are rejected.
func ValidatePath(p string) error {
	if p == "" || path.IsAbs(p) || strings.HasPrefix(p, `\`) {
		return ErrInvalidPath(p)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return ErrInvalidPath(p)
		}
	}
	return nil
}
