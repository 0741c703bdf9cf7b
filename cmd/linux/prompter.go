//go:build linux

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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gameyfin/gameyfin-shell/pkg/catalog"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers"
	"github.com/gameyfin/gameyfin-shell/pkg/installer"
)

// terminalPrompter answers install prompts on stdin/stdout.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// pickIndex reads a 1-based selection, empty input meaning cancel.
func (p *terminalPrompter) pickIndex(limit int) (int, bool, error) {
	line, err := p.readLine()
	if err != nil {
		return 0, false, err
	}
	if line == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > limit {
		fmt.Fprintln(p.out, "Invalid selection.")
		return p.pickIndex(limit)
	}
	return n - 1, true, nil
}

func (p *terminalPrompter) SelectEntry(
	_ context.Context, entries []catalog.Entry,
) (catalog.Entry, bool, error) {
	fmt.Fprintln(p.out, "Multiple catalog entries match:")
	for i, entry := range entries {
		fmt.Fprintf(p.out, "  %d) %s [%s] %s\n", i+1, entry.Title, entry.Store, entry.UmuID)
	}
	fmt.Fprint(p.out, "Select entry (empty to skip): ")

	idx, ok, err := p.pickIndex(len(entries))
	if err != nil || !ok {
		return catalog.Entry{}, false, err
	}
	return entries[idx], true, nil
}

func (p *terminalPrompter) ConfigureInstall(
	_ context.Context, defaults installer.ConfigDefaults,
) (map[string]string, bool, error) {
	fmt.Fprintf(p.out, "Game ID [%s]: ", defaults.GameID)
	gameID, err := p.readLine()
	if err != nil {
		return nil, false, err
	}
	if gameID == "" {
		gameID = defaults.GameID
	}

	store := defaults.Store
	for {
		fmt.Fprintf(p.out, "Store (%s) [%s]: ", strings.Join(defaults.Stores, ", "), defaults.Store)
		line, err := p.readLine()
		if err != nil {
			return nil, false, err
		}
		if line == "" {
			break
		}
		if helpers.Contains(defaults.Stores, line) {
			store = line
			break
		}
		fmt.Fprintln(p.out, "Unknown store.")
	}

	wayland := "N"
	if defaults.Wayland {
		wayland = "Y"
	}
	fmt.Fprintf(p.out, "Enable Wayland support? [y/n] (%s): ", wayland)
	answer, err := p.readLine()
	if err != nil {
		return nil, false, err
	}
	if answer == "" {
		answer = wayland
	}

	// The wayland flag is always present; store "none" means unset.
	cfg := map[string]string{"PROTON_ENABLE_WAYLAND": "0"}
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		cfg["PROTON_ENABLE_WAYLAND"] = "1"
	}
	if gameID != "" {
		cfg["GAMEID"] = gameID
	}
	if store != "" && store != "none" {
		cfg["STORE"] = store
	}

	fmt.Fprintln(p.out, "Extra environment (KEY=VALUE per line, empty line to finish):")
	for {
		line, err := p.readLine()
		if err != nil {
			return nil, false, err
		}
		if line == "" {
			break
		}
		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			fmt.Fprintln(p.out, "Expected KEY=VALUE.")
			continue
		}
		cfg[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	fmt.Fprint(p.out, "Proceed with install? [Y/n]: ")
	confirm, err := p.readLine()
	if err != nil {
		return nil, false, err
	}
	if strings.EqualFold(confirm, "n") || strings.EqualFold(confirm, "no") {
		return nil, false, nil
	}

	return cfg, true, nil
}

func (p *terminalPrompter) SelectLauncher(
	_ context.Context, targetDir string, candidates []string,
) (string, bool, error) {
	fmt.Fprintln(p.out, "Multiple executables found:")
	for i, candidate := range candidates {
		rel, err := filepath.Rel(targetDir, candidate)
		if err != nil {
			rel = candidate
		}
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, rel)
	}
	fmt.Fprint(p.out, "Select launcher (empty to cancel): ")

	idx, ok, err := p.pickIndex(len(candidates))
	if err != nil || !ok {
		return "", ok, err
	}
	return candidates[idx], true, nil
}

func (p *terminalPrompter) SelectShortcuts(
	_ context.Context, descriptorPaths []string,
) ([]string, bool, error) {
	fmt.Fprintln(p.out, "Shortcuts available:")
	for i, path := range descriptorPaths {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, filepath.Base(path))
	}
	fmt.Fprint(p.out, "Select shortcuts (comma-separated, 'all', empty to skip): ")

	line, err := p.readLine()
	if err != nil {
		return nil, false, err
	}
	if line == "" {
		return nil, false, nil
	}
	if strings.EqualFold(line, "all") {
		return descriptorPaths, true, nil
	}

	var selected []string
	for _, field := range strings.Split(line, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(descriptorPaths) {
			continue
		}
		selected = append(selected, descriptorPaths[n-1])
	}
	return selected, len(selected) > 0, nil
}
