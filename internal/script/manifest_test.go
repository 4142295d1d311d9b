// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/emline/internal/script"
	"github.com/holomush/emline/pkg/errutil"
)

func TestParseManifest(t *testing.T) {
	yaml := `
name: follow-links
version: 1.2.0
api: ">= 1.0.0, < 2.0.0"
entry: src/init.lua
description: Follows links on request
`
	m, err := script.ParseManifest([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "follow-links", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, ">= 1.0.0, < 2.0.0", m.API)
	assert.Equal(t, "src/init.lua", m.EntryFile())
	assert.Equal(t, "Follows links on request", m.Description)
}

func TestParseManifest_DefaultEntry(t *testing.T) {
	m, err := script.ParseManifest([]byte("name: a\nversion: 0.1.0\n"))
	require.NoError(t, err)
	assert.Equal(t, script.DefaultEntry, m.EntryFile())
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantCode string
		wantErr  string
	}{
		{
			name:     "empty document",
			yaml:     "",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "empty",
		},
		{
			name:     "malformed yaml",
			yaml:     "name: [unterminated",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "invalid YAML",
		},
		{
			name:     "uppercase name",
			yaml:     "name: Bad_Name\nversion: 1.0.0\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "name",
		},
		{
			name:     "trailing hyphen",
			yaml:     "name: bad-\nversion: 1.0.0\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "name",
		},
		{
			name:     "name too long",
			yaml:     "name: " + strings.Repeat("a", 65) + "\nversion: 1.0.0\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "64 characters",
		},
		{
			name:     "missing version",
			yaml:     "name: ok\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "version is required",
		},
		{
			name:     "non-semver version",
			yaml:     "name: ok\nversion: banana\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "semantic version",
		},
		{
			name:     "bad api constraint",
			yaml:     "name: ok\nversion: 1.0.0\napi: banana\n",
			wantCode: script.CodeInvalidManifest,
			wantErr:  "constraint",
		},
		{
			name:     "entry escapes bundle",
			yaml:     "name: ok\nversion: 1.0.0\nentry: ../main.lua\n",
			wantCode: script.CodeInvalidPath,
			wantErr:  "invalid path",
		},
		{
			name:     "absolute entry",
			yaml:     "name: ok\nversion: 1.0.0\nentry: /etc/main.lua\n",
			wantCode: script.CodeInvalidPath,
			wantErr:  "invalid path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.ParseManifest([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestManifest_CheckAPI(t *testing.T) {
	tests := []struct {
		name    string
		api     string
		version string
		wantErr bool
	}{
		{"no constraint", "", script.APIVersion, false},
		{"satisfied", "^1.0.0", "1.4.2", false},
		{"too old", ">= 1.2.0", "1.0.0", true},
		{"next major", "< 2.0.0", "2.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &script.Manifest{Name: "x", Version: "1.0.0", API: tt.api}
			err := m.CheckAPI(tt.version)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, script.CodeAPIMismatch)
			errutil.AssertErrorContext(t, err, "bundle", "x")
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"main.lua", true},
		{"lib/util.lua", true},
		{"a..b/c", true},
		{"./main.lua", true},
		{"", false},
		{"..", false},
		{"../main.lua", false},
		{"lib/../../main.lua", false},
		{"/abs/main.lua", false},
		{`\share\main.lua`, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := script.ValidatePath(tt.path)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, script.CodeInvalidPath)
		})
	}
}
