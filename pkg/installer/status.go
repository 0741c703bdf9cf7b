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

// Level hints how a status line should be presented.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Status is a user-facing progress update. Percent is -1 when the
// current stage has no measurable progress.
type Status struct {
	Text    string
	Level   Level
	Percent int
}

// StatusFunc receives status updates during an install.
type StatusFunc func(status Status)

func (i *Installer) report(text string, level Level, percent int) {
	if i.status != nil {
		i.status(Status{Text: text, Level: level, Percent: percent})
	}
}
