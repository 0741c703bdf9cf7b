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

// Package installer drives the full install pipeline for a downloaded
// game archive: extraction, catalog lookup, configuration, first
// launch in a fresh Wine prefix, and shortcut creation once the
// launcher exits.
package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gameyfin/gameyfin-shell/pkg/archive"
	"github.com/gameyfin/gameyfin-shell/pkg/catalog"
	"github.com/gameyfin/gameyfin-shell/pkg/config"
	"github.com/gameyfin/gameyfin-shell/pkg/downloads"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers/syncutil"
	"github.com/gameyfin/gameyfin-shell/pkg/prefixes"
	"github.com/gameyfin/gameyfin-shell/pkg/procwatch"
	"github.com/gameyfin/gameyfin-shell/pkg/shortcuts"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// DefaultGameID is used when no catalog entry matches.
	DefaultGameID = "umu-default"
	// DefaultStore is used when no catalog entry matches.
	DefaultStore = "none"
)

var (
	// ErrInstallInProgress is returned when an install for the same
	// archive is already running.
	ErrInstallInProgress = errors.New("install already in progress")

	// ErrArchiveNotFound is returned when the archive path is missing
	// or not a zip file.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrLaunchFailed is returned when the launcher process could not
	// be started.
	ErrLaunchFailed = errors.New("launch failed")
)

// LaunchFunc starts a launch command line detached and returns its PID.
type LaunchFunc func(workingDir, cmdline string) (int32, error)

// WatcherFactory builds a process watcher for a launched PID.
type WatcherFactory func(pid int32) *procwatch.Watcher

type session struct {
	extractor *archive.Extractor
	watcher   *procwatch.Watcher
	id        string
}

// Installer orchestrates installs. One installer serves all archives;
// concurrent installs of different archives are allowed, a second
// install of the same archive is rejected.
type Installer struct {
	fs         afero.Fs
	cfg        *config.Instance
	cache      *catalog.Cache
	prompter   Prompter
	gen        *shortcuts.Generator
	prefixMgr  *prefixes.Manager
	status     StatusFunc
	launch     LaunchFunc
	newWatcher WatcherFactory
	openFolder func(path string)
	active     map[string]*session
	mu         syncutil.Mutex
}

type Option func(*Installer)

// WithLaunchFunc overrides how launcher processes are started.
func WithLaunchFunc(launch LaunchFunc) Option {
	return func(i *Installer) { i.launch = launch }
}

// WithWatcherFactory overrides how launched PIDs are watched.
func WithWatcherFactory(factory WatcherFactory) Option {
	return func(i *Installer) { i.newWatcher = factory }
}

// WithOpenFolder sets the handler that reveals a directory to the user
// when an install produced no executable.
func WithOpenFolder(open func(path string)) Option {
	return func(i *Installer) { i.openFolder = open }
}

func New(
	fs afero.Fs,
	cfg *config.Instance,
	cache *catalog.Cache,
	prompter Prompter,
	gen *shortcuts.Generator,
	prefixMgr *prefixes.Manager,
	status StatusFunc,
	opts ...Option,
) *Installer {
	i := &Installer{
		fs:        fs,
		cfg:       cfg,
		cache:     cache,
		prompter:  prompter,
		gen:       gen,
		prefixMgr: prefixMgr,
		status:    status,
		launch:    launchDetached,
		newWatcher: func(pid int32) *procwatch.Watcher {
			return procwatch.New(pid)
		},
		active: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install runs the full pipeline for a downloaded archive. It blocks
// until the install finishes, including the first launch of the game.
// User-declined prompts end the install with a status update, not an
// error.
func (i *Installer) Install(ctx context.Context, rec downloads.Record) error {
	archivePath := rec.Path

	i.mu.Lock()
	if _, exists := i.active[archivePath]; exists {
		i.mu.Unlock()
		return ErrInstallInProgress
	}
	sess := &session{id: uuid.NewString()}
	i.active[archivePath] = sess
	i.mu.Unlock()

	log.Info().
		Str("installID", sess.id).
		Str("archive", archivePath).
		Msg("starting install")

	defer func() {
		i.mu.Lock()
		delete(i.active, archivePath)
		i.mu.Unlock()
	}()

	if archivePath == "" || !helpers.IsZip(archivePath) {
		i.report("Install failed: File not found", LevelError, -1)
		return ErrArchiveNotFound
	}
	if exists, err := afero.Exists(i.fs, archivePath); err != nil || !exists {
		i.report("Install failed: File not found", LevelError, -1)
		return ErrArchiveNotFound
	}

	targetDir := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))

	if err := i.extract(ctx, sess, archivePath, targetDir); err != nil {
		if errors.Is(err, archive.ErrCancelled) {
			i.report("Install cancelled", LevelInfo, -1)
			return err
		}
		i.report("Install failed: "+err.Error(), LevelError, -1)
		return err
	}

	gameID, store := i.resolveMetadata(ctx, archivePath, targetDir)

	installCfg, ok, err := i.prompter.ConfigureInstall(ctx, ConfigDefaults{
		GameID: gameID,
		Store:  store,
		Stores: i.cfg.Stores(),
	})
	if err != nil {
		i.report("Install failed: "+err.Error(), LevelError, -1)
		return fmt.Errorf("configure prompt failed: %w", err)
	}
	if !ok {
		i.report("Install cancelled by user.", LevelInfo, -1)
		return nil
	}
	if installCfg == nil {
		installCfg = map[string]string{}
	}

	launchers, err := i.findLaunchers(targetDir)
	if err != nil {
		i.report("Install failed: "+err.Error(), LevelError, -1)
		return err
	}

	var launcherPath string
	switch len(launchers) {
	case 0:
		i.report("Install complete, no .exe found.", LevelWarn, -1)
		if i.openFolder != nil {
			i.openFolder(targetDir)
		}
		return nil
	case 1:
		launcherPath = launchers[0]
	default:
		path, ok, err := i.prompter.SelectLauncher(ctx, targetDir, launchers)
		if err != nil {
			i.report("Install failed: "+err.Error(), LevelError, -1)
			return fmt.Errorf("launcher prompt failed: %w", err)
		}
		if !ok {
			i.report("Install complete, launch cancelled.", LevelInfo, -1)
			return nil
		}
		if path == "" {
			i.report("Install complete, no launcher selected.", LevelWarn, -1)
			return nil
		}
		launcherPath = path
	}

	prefixName := prefixes.Name(targetDir)
	prefixPath := filepath.Join(i.prefixMgr.Dir(), prefixName)

	envPrefix := shortcuts.EnvPrefix(i.cfg.ProtonPath(), prefixPath, installCfg)
	cmdline := shortcuts.CommandLine(envPrefix, launcherPath)
	log.Info().Str("cmdline", cmdline).Msg("launching game")

	pid, err := i.launch(filepath.Dir(launcherPath), cmdline)
	if err != nil || pid <= 0 {
		i.report("Launch failed. Is 'umu-run' installed?", LevelError, -1)
		if err != nil {
			return fmt.Errorf("launch failed: %w", err)
		}
		return ErrLaunchFailed
	}

	i.report(fmt.Sprintf("Running... (%s)", helpers.FormatSize(rec.TotalBytes)), LevelInfo, -1)

	watcher := i.newWatcher(pid)
	i.mu.Lock()
	sess.watcher = watcher
	i.mu.Unlock()
	watcher.Start()

	select {
	case <-ctx.Done():
		watcher.Stop()
		return ctx.Err()
	case <-watcher.Done():
	}

	log.Info().Str("installID", sess.id).Int32("pid", pid).Msg("launcher process finished")
	i.postProcess(ctx, prefixName, prefixPath, installCfg)

	i.report(fmt.Sprintf("Completed (%s)", helpers.FormatSize(rec.TotalBytes)), LevelInfo, -1)
	return nil
}

// Cancel stops the running install for an archive. Extraction stops at
// the next archive member; a running game is left alone, only the
// watcher is stopped.
func (i *Installer) Cancel(archivePath string) {
	i.mu.Lock()
	sess, exists := i.active[archivePath]
	if !exists {
		i.mu.Unlock()
		return
	}
	extractor, watcher := sess.extractor, sess.watcher
	i.mu.Unlock()

	if extractor != nil {
		extractor.Stop()
	}
	if watcher != nil {
		watcher.Stop()
	}
}

func (i *Installer) extract(ctx context.Context, sess *session, zipPath, targetDir string) error {
	extractor := archive.New(i.fs, zipPath, targetDir)
	i.mu.Lock()
	sess.extractor = extractor
	i.mu.Unlock()

	i.report("Starting extraction...", LevelInfo, 0)
	extractor.Start()

	done := ctx.Done()
	for {
		select {
		case <-done:
			extractor.Stop()
			done = nil
		case ev, ok := <-extractor.Events():
			if !ok {
				return errors.New("extraction ended unexpectedly")
			}
			switch ev.Type {
			case archive.EventProgress:
				i.report(ev.Name, LevelInfo, ev.Percent)
			case archive.EventFinished:
				return nil
			case archive.EventErrored:
				return ev.Err
			}
		}
	}
}

// resolveMetadata finds the best catalog defaults for an install.
// First choice is the codename from a bundled product_*.json, then a
// title search derived from the archive name. Failures here are never
// fatal; the generic defaults always work.
func (i *Installer) resolveMetadata(ctx context.Context, archivePath, targetDir string) (gameID, store string) {
	gameID, store = DefaultGameID, DefaultStore

	var results []catalog.Entry

	matches, err := afero.Glob(i.fs, filepath.Join(targetDir, "product_*.json"))
	if err == nil && len(matches) > 0 {
		sort.Strings(matches)
		if codename := readProductCodename(i.fs, matches[0]); codename != "" {
			log.Debug().Str("codename", codename).Msg("looking up catalog by codename")
			results, err = i.cache.GetByCodename(ctx, codename)
			if err != nil {
				log.Warn().Err(err).Msg("codename lookup failed")
				results = nil
			}
		}
	}

	if len(results) == 0 {
		base := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
		searchTitle := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
		if searchTitle != "" {
			log.Debug().Str("title", searchTitle).Msg("searching catalog by title")
			results = i.cache.SearchByPartialTitle(searchTitle)
		}
	}

	var selected *catalog.Entry
	switch {
	case len(results) == 1:
		selected = &results[0]
	case len(results) > 1:
		entry, ok, err := i.prompter.SelectEntry(ctx, results)
		if err != nil {
			log.Warn().Err(err).Msg("catalog selection prompt failed")
		} else if ok {
			selected = &entry
		}
	}

	if selected != nil {
		if selected.UmuID != "" {
			gameID = selected.UmuID
		}
		if selected.Store != "" {
			store = selected.Store
		}
		log.Info().Str("umuID", gameID).Str("store", store).Msg("resolved catalog entry")
	}

	return gameID, store
}

// readProductCodename extracts the id field of a product json file.
// The id may be a string or a number.
func readProductCodename(fs afero.Fs, path string) string {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("error reading product json")
		return ""
	}

	var product struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &product); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("error decoding product json")
		return ""
	}
	if len(product.ID) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(product.ID, &asString); err == nil {
		return asString
	}
	var asNumber json.Number
	if err := json.Unmarshal(product.ID, &asNumber); err == nil {
		return asNumber.String()
	}
	return ""
}

// findLaunchers walks the install directory for Windows executables.
func (i *Installer) findLaunchers(targetDir string) ([]string, error) {
	var launchers []string
	err := afero.Walk(i.fs, targetDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".exe") {
			launchers = append(launchers, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error searching for launcher: %w", err)
	}
	sort.Strings(launchers)
	return launchers, nil
}

// postProcess creates desktop shortcuts from anything the game's
// installer left in the prefix, and snapshots the launch config so the
// prefix manager can edit it later.
func (i *Installer) postProcess(ctx context.Context, prefixName, prefixPath string, installCfg map[string]string) {
	exists, err := afero.DirExists(i.fs, prefixPath)
	if err != nil || !exists {
		log.Debug().Str("prefix", prefixPath).Msg("prefix does not exist, skipping shortcut check")
		return
	}

	if err := i.prefixMgr.SaveConfig(prefixName, installCfg); err != nil {
		log.Warn().Err(err).Msg("error saving prefix config")
	}

	descriptors, err := i.gen.FindDescriptors(prefixPath)
	if err != nil {
		log.Warn().Err(err).Msg("error finding shortcuts")
		return
	}
	if len(descriptors) == 0 {
		log.Debug().Msg("no desktop files found in prefix")
		return
	}

	selected, ok, err := i.prompter.SelectShortcuts(ctx, descriptors)
	if err != nil {
		log.Warn().Err(err).Msg("shortcut selection prompt failed")
		return
	}
	if !ok || len(selected) == 0 {
		log.Debug().Msg("no shortcuts selected")
		return
	}

	written, err := i.gen.Generate(selected, shortcuts.Env{
		ProtonPath: i.cfg.ProtonPath(),
		PrefixPath: prefixPath,
		Config:     installCfg,
		GameName:   prefixes.GameName(prefixName),
	})
	if err != nil {
		log.Warn().Err(err).Msg("error generating shortcuts")
		return
	}
	log.Info().Int("count", len(written)).Msg("created shortcut files")
}
