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

package prefixes

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gameyfin/gameyfin-shell/pkg/shortcuts"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ConfigFile holds the saved launch environment for a game, next to
// its shortcut scripts.
const ConfigFile = "config.json"

// Manager lists, configures, and deletes game prefixes.
type Manager struct {
	fs          afero.Fs
	prefixesDir string
	scriptsDir  string
}

func NewManager(fs afero.Fs, prefixesDir, scriptsDir string) *Manager {
	return &Manager{
		fs:          fs,
		prefixesDir: prefixesDir,
		scriptsDir:  scriptsDir,
	}
}

// Dir returns the root prefixes directory.
func (m *Manager) Dir() string {
	return m.prefixesDir
}

// PathFor returns the prefix path for a game install directory.
func (m *Manager) PathFor(gameDir string) string {
	return filepath.Join(m.prefixesDir, Name(gameDir))
}

// List returns the names of all prefix directories, sorted. The root
// directory is created if missing.
func (m *Manager) List() ([]string, error) {
	if err := m.fs.MkdirAll(m.prefixesDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating prefixes directory: %w", err)
	}

	infos, err := afero.ReadDir(m.fs, m.prefixesDir)
	if err != nil {
		return nil, fmt.Errorf("error reading prefixes directory: %w", err)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) gameScriptsDir(prefixName string) string {
	return filepath.Join(m.scriptsDir, GameName(prefixName))
}

// LoadConfig returns the saved launch environment for a prefix. If no
// config file exists the environment is recovered from the first
// shortcut script, since older installs predate the config file.
func (m *Manager) LoadConfig(prefixName string) (map[string]string, error) {
	scriptsDir := m.gameScriptsDir(prefixName)
	configPath := filepath.Join(scriptsDir, ConfigFile)

	data, err := afero.ReadFile(m.fs, configPath)
	if err == nil {
		var cfg map[string]string
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding prefix config: %w", err)
		}
		return cfg, nil
	}

	scripts, err := afero.Glob(m.fs, filepath.Join(scriptsDir, "*.sh"))
	if err != nil || len(scripts) == 0 {
		return map[string]string{}, nil
	}
	sort.Strings(scripts)

	log.Debug().Str("script", scripts[0]).Msg("no config file, extracting from script")
	return shortcuts.ExtractEnvFromScript(m.fs, scripts[0])
}

// SaveConfig writes the launch environment for a prefix.
func (m *Manager) SaveConfig(prefixName string, cfg map[string]string) error {
	scriptsDir := m.gameScriptsDir(prefixName)
	if err := m.fs.MkdirAll(scriptsDir, 0o755); err != nil {
		return fmt.Errorf("error creating scripts directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding prefix config: %w", err)
	}

	configPath := filepath.Join(scriptsDir, ConfigFile)
	if err := afero.WriteFile(m.fs, configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing prefix config: %w", err)
	}
	return nil
}

// UpdateScripts rewrites every shortcut script for a prefix with a new
// launch environment, preserving each script's executable and
// arguments. It returns the number of scripts updated.
func (m *Manager) UpdateScripts(prefixName, protonPath string, cfg map[string]string) (int, error) {
	scriptsDir := m.gameScriptsDir(prefixName)
	prefixPath := filepath.Join(m.prefixesDir, prefixName)

	scripts, err := afero.Glob(m.fs, filepath.Join(scriptsDir, "*.sh"))
	if err != nil {
		return 0, fmt.Errorf("error listing scripts: %w", err)
	}

	envPrefix := shortcuts.EnvPrefix(protonPath, prefixPath, cfg)

	count := 0
	for _, scriptPath := range scripts {
		cmdline, err := shortcuts.CommandLineFromScript(m.fs, scriptPath)
		if err != nil {
			log.Warn().Err(err).Str("script", scriptPath).Msg("skipping script update")
			continue
		}
		if cmdline == "" {
			continue
		}

		// Everything after the launcher token is the target and its
		// arguments; keep it untouched.
		_, tail, found := strings.Cut(cmdline, shortcuts.FrontendCommand)
		if !found {
			continue
		}
		exeArgs := strings.TrimSpace(tail)

		newCmdline := envPrefix + shortcuts.FrontendCommand + " " + exeArgs
		if err := shortcuts.WriteScript(m.fs, scriptPath, newCmdline); err != nil {
			log.Warn().Err(err).Str("script", scriptPath).Msg("error updating script")
			continue
		}
		count++
	}

	log.Info().Int("count", count).Str("prefix", prefixName).Msg("updated shortcut scripts")
	return count, nil
}

// Delete removes a prefix and its shortcut scripts.
func (m *Manager) Delete(prefixName string) error {
	prefixPath := filepath.Join(m.prefixesDir, prefixName)
	if err := m.fs.RemoveAll(prefixPath); err != nil {
		return fmt.Errorf("error deleting prefix: %w", err)
	}

	scriptsDir := m.gameScriptsDir(prefixName)
	if err := m.fs.RemoveAll(scriptsDir); err != nil {
		log.Warn().Err(err).Str("dir", scriptsDir).Msg("error deleting shortcut scripts")
	}

	log.Info().Str("prefix", prefixName).Msg("deleted prefix")
	return nil
}
