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

// Package prefixes manages per-game Wine prefixes and their saved
// launch configuration.
package prefixes

import (
	"path/filepath"
	"strings"
)

// Suffix marks a directory as a game prefix.
const Suffix = "_pfx"

// Name derives the prefix directory name for a game install directory.
func Name(gameDir string) string {
	return strings.ToLower(filepath.Base(gameDir)) + Suffix
}

// GameName recovers the game name from a prefix directory name. An
// empty result falls back to a placeholder so derived paths stay valid.
func GameName(prefixName string) string {
	game := strings.TrimSuffix(prefixName, Suffix)
	if game == "" {
		return "unknown-game"
	}
	return game
}
