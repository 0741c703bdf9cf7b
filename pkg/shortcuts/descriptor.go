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

package shortcuts

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	ini "gopkg.in/ini.v1"
)

// DesktopSection is the group header of a desktop entry file.
const DesktopSection = "Desktop Entry"

func init() {
	// Desktop entry files use Key=Value without surrounding spaces.
	ini.PrettyFormat = false
}

// Descriptor is a parsed .desktop file. Keys are case-sensitive per
// the desktop entry format.
type Descriptor struct {
	file    *ini.File
	section *ini.Section
	Path    string
}

// LoadDescriptor parses a .desktop file. Installer-produced files
// occasionally omit the group header, so one is injected if missing.
func LoadDescriptor(fs afero.Fs, path string) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading desktop file: %w", err)
	}

	if !strings.HasPrefix(strings.TrimLeft(string(data), "\n\r\t "), "[") {
		data = append([]byte("["+DesktopSection+"]\n"), data...)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("error parsing desktop file: %w", err)
	}

	section := file.Section(DesktopSection)

	return &Descriptor{
		file:    file,
		section: section,
		Path:    path,
	}, nil
}

// Get returns the value of a key, or empty if absent.
func (d *Descriptor) Get(key string) string {
	if !d.section.HasKey(key) {
		return ""
	}
	return d.section.Key(key).String()
}

// Set assigns a key, creating it if needed.
func (d *Descriptor) Set(key, value string) {
	d.section.Key(key).SetValue(value)
}

// Delete removes a key if present.
func (d *Descriptor) Delete(key string) {
	d.section.DeleteKey(key)
}

// Name returns the display name of the entry.
func (d *Descriptor) Name() string {
	return d.Get("Name")
}

// WriteTo serializes the descriptor to a new file with the given mode.
func (d *Descriptor) WriteTo(fs afero.Fs, path string, mode os.FileMode) error {
	var buf bytes.Buffer
	if _, err := d.file.WriteTo(&buf); err != nil {
		return fmt.Errorf("error serializing desktop file: %w", err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("error writing desktop file: %w", err)
	}
	return nil
}
