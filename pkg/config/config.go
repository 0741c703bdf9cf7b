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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "GAMEYFIN_SHELL_CFG"
)

type Values struct {
	Server       Server  `toml:"server"`
	Catalog      Catalog `toml:"catalog,omitempty"`
	Launch       Launch  `toml:"launch,omitempty"`
	Paths        Paths   `toml:"paths,omitempty"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

type Server struct {
	URL string `toml:"url"`
}

type Catalog struct {
	APIURL string   `toml:"api_url"`
	Stores []string `toml:"stores,omitempty,multiline"`
}

type Launch struct {
	ProtonPath string `toml:"proton_path"`
}

type Paths struct {
	Downloads       string `toml:"downloads,omitempty"`
	Prefixes        string `toml:"prefixes,omitempty"`
	ShortcutScripts string `toml:"shortcut_scripts,omitempty"`
}

// BaseDefaults mirrors the defaults the original frontend shipped with.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Server: Server{
		URL: "http://localhost:8080",
	},
	Catalog: Catalog{
		APIURL: "https://umu.openwinecomponents.org/umu_api.php",
		Stores: []string{
			"none", "gog", "amazon", "battlenet", "ea", "egs", "epic",
			"humble", "itchio", "origin", "steam", "uplay", "ubisoft",
		},
	},
	Launch: Launch{
		ProtonPath: "GE-Proton",
	},
}

// ConfigDir returns the directory holding the config file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the directory holding app data (logs, download history).
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	return nil
}

func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := toml.Marshal(c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(c.cfgPath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Instance) ServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Server.URL
}

func (c *Instance) SetServerURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Server.URL = url
}

func (c *Instance) CatalogAPIURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Catalog.APIURL
}

func (c *Instance) Stores() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stores := make([]string, len(c.vals.Catalog.Stores))
	copy(stores, c.vals.Catalog.Stores)
	return stores
}

// ProtonPath returns the configured compatibility tool path, overridable
// with the PROTONPATH environment variable like the compat tool itself.
func (c *Instance) ProtonPath() string {
	if env := os.Getenv("PROTONPATH"); env != "" {
		return env
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Launch.ProtonPath
}

func (c *Instance) DownloadsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Paths.Downloads != "" {
		return c.vals.Paths.Downloads
	}
	return xdg.UserDirs.Download
}

func (c *Instance) PrefixesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Paths.Prefixes != "" {
		return c.vals.Paths.Prefixes
	}
	return filepath.Join(ConfigDir(), "prefixes")
}

func (c *Instance) ScriptsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Paths.ShortcutScripts != "" {
		return c.vals.Paths.ShortcutScripts
	}
	return filepath.Join(ConfigDir(), "shortcut_scripts")
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = debug
}
