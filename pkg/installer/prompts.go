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

package installer

import (
	"context"

	"github.com/gameyfin/gameyfin-shell/pkg/catalog"
)

// ConfigDefaults seeds the install configuration prompt.
type ConfigDefaults struct {
	GameID  string
	Store   string
	Stores  []string
	Wayland bool
}

// Prompter answers the questions an install raises. Each method blocks
// until the user responds; ok is false when the user dismisses the
// prompt instead of answering.
type Prompter interface {
	// SelectEntry picks one catalog entry from multiple matches.
	SelectEntry(ctx context.Context, entries []catalog.Entry) (entry catalog.Entry, ok bool, err error)

	// ConfigureInstall collects the launch environment for an install.
	ConfigureInstall(ctx context.Context, defaults ConfigDefaults) (cfg map[string]string, ok bool, err error)

	// SelectLauncher picks one executable from multiple candidates.
	// An empty path with ok true means the user chose none of them.
	SelectLauncher(ctx context.Context, targetDir string, candidates []string) (path string, ok bool, err error)

	// SelectShortcuts picks which discovered shortcuts to create.
	SelectShortcuts(ctx context.Context, descriptorPaths []string) (selected []string, ok bool, err error)
}
