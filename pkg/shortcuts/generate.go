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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ShortcutsDirName is the directory Proton writes .desktop files to
// inside a prefix.
const ShortcutsDirName = "proton_shortcuts"

// Icon tiers inside proton_shortcuts/icons, highest resolution first.
var iconSizes = []string{"256x256", "128x128", "64x64", "48x48", "32x32"}

// Env is the launch environment a batch of shortcuts is generated for.
type Env struct {
	Config     map[string]string
	ProtonPath string
	PrefixPath string
	GameName   string
}

// Generator rewrites Proton .desktop files into working shortcuts.
// Each shortcut's Exec points at a generated helper script so the
// launch environment survives desktop environments that mangle Exec
// quoting.
type Generator struct {
	fs              afero.Fs
	scriptsDir      string
	desktopDir      string
	applicationsDir string
}

type GeneratorOption func(*Generator)

// WithTargetDirs overrides the desktop and applications directories.
func WithTargetDirs(desktopDir, applicationsDir string) GeneratorOption {
	return func(g *Generator) {
		g.desktopDir = desktopDir
		g.applicationsDir = applicationsDir
	}
}

func NewGenerator(fs afero.Fs, scriptsDir string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		fs:              fs,
		scriptsDir:      scriptsDir,
		desktopDir:      xdg.UserDirs.Desktop,
		applicationsDir: filepath.Join(xdg.DataHome, "applications"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FindDescriptors lists .desktop files under a prefix's
// proton_shortcuts directory, sorted by name. A missing directory is
// not an error; some games never create shortcuts.
func (g *Generator) FindDescriptors(prefixPath string) ([]string, error) {
	dir := filepath.Join(prefixPath, "drive_c", ShortcutsDirName)

	exists, err := afero.DirExists(g.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("error checking shortcuts directory: %w", err)
	}
	if !exists {
		log.Debug().Str("dir", dir).Msg("no proton_shortcuts directory")
		return nil, nil
	}

	matches, err := afero.Glob(g.fs, filepath.Join(dir, "*.desktop"))
	if err != nil {
		return nil, fmt.Errorf("error listing shortcuts: %w", err)
	}

	sort.Strings(matches)
	return matches, nil
}

// Generate rewrites each descriptor and installs it into the desktop
// and applications directories. It returns the paths of all files
// written, helper scripts included. A descriptor that cannot be
// processed is skipped with a log, not an error; one broken shortcut
// should not block the rest.
func (g *Generator) Generate(descriptorPaths []string, env Env) ([]string, error) {
	gameName := env.GameName
	if gameName == "" {
		gameName = "unknown-game"
	}

	scriptsDir := filepath.Join(g.scriptsDir, gameName)
	if err := g.fs.MkdirAll(scriptsDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating scripts directory: %w", err)
	}
	for _, targetDir := range []string{g.applicationsDir, g.desktopDir} {
		if err := g.fs.MkdirAll(targetDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating shortcut directory: %w", err)
		}
	}

	var written []string
	for _, path := range descriptorPaths {
		outPaths, err := g.generateOne(path, scriptsDir, env)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping shortcut")
			continue
		}
		written = append(written, outPaths...)
	}

	return written, nil
}

// generateOne writes one helper script per descriptor, then installs
// the rewritten descriptor into each target directory. The two copies
// are written independently; a failure in one location does not
// remove the other.
func (g *Generator) generateOne(path, scriptsDir string, env Env) ([]string, error) {
	desc, err := LoadDescriptor(g.fs, path)
	if err != nil {
		return nil, err
	}

	if icon := desc.Get("Icon"); icon != "" {
		if resolved := g.resolveIcon(filepath.Dir(path), icon); resolved != "" {
			desc.Set("Icon", resolved)
		} else {
			log.Warn().Str("icon", icon).Msg("could not find shortcut icon")
		}
	}

	workingDir := desc.Get("Path")
	if workingDir == "" {
		return nil, fmt.Errorf("no Path entry in %s", filepath.Base(path))
	}

	exeName := desc.Get("StartupWMClass")
	if exeName == "" {
		name := desc.Name()
		if name == "" {
			name = "game"
		}
		exeName = name + ".exe"
		log.Warn().Str("exe", exeName).Msg("no StartupWMClass, guessing exe name")
	}

	exePath := filepath.Join(workingDir, exeName)
	cmdline := CommandLine(EnvPrefix(env.ProtonPath, env.PrefixPath, env.Config), exePath)

	scriptName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".sh"
	scriptPath := filepath.Join(scriptsDir, scriptName)
	if err := WriteScript(g.fs, scriptPath, cmdline); err != nil {
		return nil, err
	}

	desc.Set("Exec", `"`+scriptPath+`"`)
	desc.Set("Type", "Application")
	desc.Set("Categories", "Application;Game;")

	written := make([]string, 0, 3)
	for _, targetDir := range []string{g.applicationsDir, g.desktopDir} {
		outPath := filepath.Join(targetDir, filepath.Base(path))
		if err := desc.WriteTo(g.fs, outPath, 0o755); err != nil {
			log.Warn().Err(err).Str("path", outPath).Msg("error writing shortcut")
			continue
		}
		log.Info().Str("path", outPath).Msg("created shortcut")
		written = append(written, outPath)
	}

	written = append(written, scriptPath)
	return written, nil
}

// resolveIcon finds the best icon for a bare icon name, checking both
// name.png and the name as given in each size tier.
func (g *Generator) resolveIcon(shortcutsDir, iconName string) string {
	iconsBase := filepath.Join(shortcutsDir, "icons")

	for _, size := range iconSizes {
		for _, candidate := range []string{iconName + ".png", iconName} {
			iconPath := filepath.Join(iconsBase, size, "apps", candidate)
			if exists, err := afero.Exists(g.fs, iconPath); err == nil && exists {
				return iconPath
			}
		}
	}
	return ""
}
