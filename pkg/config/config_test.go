// Gameyfin Shell
// Copyright (c) 2026 The Gameyfin Shell Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gameyfin Shell.
//
// Gameyfin Shell is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gameyfin Shell is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gameyfin Shell.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigCreatesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	// Default file was written to disk.
	_, err = os.Stat(filepath.Join(dir, CfgFile))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL())
	assert.Equal(t, "https://umu.openwinecomponents.org/umu_api.php", cfg.CatalogAPIURL())
	assert.Contains(t, cfg.Stores(), "gog")
	assert.Contains(t, cfg.Stores(), "none")
	assert.False(t, cfg.DebugLogging())
}

func TestConfigLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `config_schema = 1
debug_logging = true

[server]
url = "https://games.example.com"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	// Explicit values win, absent sections keep defaults.
	assert.Equal(t, "https://games.example.com", cfg.ServerURL())
	assert.True(t, cfg.DebugLogging())
	assert.Contains(t, cfg.Stores(), "steam")
}

func TestConfigSchemaMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `config_schema = 99

[server]
url = "http://localhost:8080"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version mismatch")
}

func TestConfigSaveRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetServerURL("https://other.example.com")
	cfg.SetDebugLogging(true)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", reloaded.ServerURL())
	assert.True(t, reloaded.DebugLogging())
}

func TestConfigPathFallbacks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	// Unset paths fall back to xdg-derived locations.
	assert.NotEmpty(t, cfg.PrefixesDir())
	assert.NotEmpty(t, cfg.ScriptsDir())
	assert.Contains(t, cfg.PrefixesDir(), "prefixes")
	assert.Contains(t, cfg.ScriptsDir(), "shortcut_scripts")
}
