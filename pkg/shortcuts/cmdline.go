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

// Package shortcuts turns Proton-generated .desktop files into
// launchable desktop shortcuts backed by small shell scripts.
package shortcuts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gameyfin/gameyfin-shell/pkg/helpers"
	"github.com/spf13/afero"
)

// FrontendCommand is the launcher binary every generated command line
// runs through.
const FrontendCommand = "umu-run"

const scriptHeader = "#!/bin/sh\n\n# Auto-generated by Gameyfin Shell\n"

// envAssignRegex matches KEY="VALUE" pairs in a command line. Values
// are matched non-greedily so adjacent pairs do not merge.
var envAssignRegex = regexp.MustCompile(`(\w+)="(.*?)"`)

// EnvPrefix builds the environment assignment prefix of a launch
// command line. PROTONPATH and WINEPREFIX always come first; the
// per-game config follows in alphabetical key order so regenerating a
// script produces identical bytes.
func EnvPrefix(protonPath, prefixPath string, cfg map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `PROTONPATH="%s" WINEPREFIX="%s" `, protonPath, prefixPath)
	for _, key := range helpers.AlphaMapKeys(cfg) {
		fmt.Fprintf(&sb, `%s="%s" `, key, cfg[key])
	}
	return sb.String()
}

// CommandLine builds the full launch command for an executable.
func CommandLine(envPrefix, exePath string) string {
	return fmt.Sprintf(`%s%s "%s"`, envPrefix, FrontendCommand, exePath)
}

// WriteScript writes a launch command as an executable shell script.
func WriteScript(fs afero.Fs, path, cmdline string) error {
	content := scriptHeader + cmdline + "\n"
	if err := afero.WriteFile(fs, path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("error writing launch script: %w", err)
	}
	return nil
}

// ExtractEnv parses the per-game environment from a launch command
// line. PROTONPATH and WINEPREFIX are positional, not configuration,
// so they are excluded.
func ExtractEnv(cmdline string) map[string]string {
	head, _, found := strings.Cut(cmdline, FrontendCommand)
	if !found {
		return map[string]string{}
	}

	cfg := make(map[string]string)
	for _, m := range envAssignRegex.FindAllStringSubmatch(head, -1) {
		key, value := m[1], m[2]
		if key == "PROTONPATH" || key == "WINEPREFIX" {
			continue
		}
		cfg[key] = value
	}
	return cfg
}

// ExtractTarget returns the quoted executable path following the
// launcher command, or empty if the line has none.
func ExtractTarget(cmdline string) string {
	_, tail, found := strings.Cut(cmdline, FrontendCommand+` "`)
	if !found {
		return ""
	}
	end := strings.LastIndex(tail, `"`)
	if end < 0 {
		return ""
	}
	return tail[:end]
}

// ExtractEnvFromScript reads a launch script and parses the per-game
// environment from its command line.
func ExtractEnvFromScript(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading launch script: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, FrontendCommand) {
			return ExtractEnv(line), nil
		}
	}
	return map[string]string{}, nil
}

// CommandLineFromScript returns the launch command line of a script,
// or empty if the script has none.
func CommandLineFromScript(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("error reading launch script: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, FrontendCommand) {
			return line, nil
		}
	}
	return "", nil
}
