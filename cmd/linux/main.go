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
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gameyfin/gameyfin-shell/pkg/catalog"
	"github.com/gameyfin/gameyfin-shell/pkg/config"
	"github.com/gameyfin/gameyfin-shell/pkg/downloads"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers"
	"github.com/gameyfin/gameyfin-shell/pkg/httpclient"
	"github.com/gameyfin/gameyfin-shell/pkg/installer"
	"github.com/gameyfin/gameyfin-shell/pkg/prefixes"
	"github.com/gameyfin/gameyfin-shell/pkg/shortcuts"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	installPath := flag.String("install", "", "install a downloaded game archive")
	downloadURL := flag.String("download", "", "download a game archive from a URL")
	listDownloads := flag.Bool("list", false, "list tracked downloads")
	listPrefixes := flag.Bool("prefixes", false, "list installed prefixes")
	configurePrefix := flag.String("configure", "", "edit the launch config of a prefix")
	deletePrefix := flag.String("delete-prefix", "", "delete a prefix and its shortcuts")
	watchDir := flag.Bool("watch", false, "watch the download directory for new archives")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	if os.Geteuid() == 0 {
		return errors.New("gameyfin-shell cannot be run as root")
	}

	cfg, err := config.NewConfig(config.ConfigDir(), config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	err = helpers.InitLogging(config.DataDir(), config.LogFile, *debug || cfg.DebugLogging(), os.Stderr)
	if err != nil {
		return fmt.Errorf("error setting up logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	registry := downloads.NewRegistry(fs, filepath.Join(config.DataDir(), config.HistoryFile))
	if err := registry.Load(); err != nil {
		return fmt.Errorf("error loading download history: %w", err)
	}

	prefixMgr := prefixes.NewManager(fs, cfg.PrefixesDir(), cfg.ScriptsDir())

	switch {
	case *downloadURL != "":
		return runDownload(ctx, cfg, registry, *downloadURL)
	case *installPath != "":
		return runInstall(ctx, fs, cfg, prefixMgr, registry, *installPath)
	case *listDownloads:
		return runListDownloads(registry)
	case *listPrefixes:
		return runListPrefixes(prefixMgr)
	case *configurePrefix != "":
		return runConfigurePrefix(cfg, prefixMgr, *configurePrefix)
	case *deletePrefix != "":
		return prefixMgr.Delete(*deletePrefix)
	case *watchDir:
		return runWatch(ctx, fs, cfg, prefixMgr, registry)
	default:
		flag.Usage()
		return nil
	}
}

func newInstaller(
	ctx context.Context,
	fs afero.Fs,
	cfg *config.Instance,
	prefixMgr *prefixes.Manager,
) *installer.Installer {
	cache := catalog.NewCache(catalog.NewClient(cfg.CatalogAPIURL()))
	if err := cache.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("error refreshing umu catalog, title search disabled")
	}
	gen := shortcuts.NewGenerator(fs, cfg.ScriptsDir())
	prompter := newTerminalPrompter(os.Stdin, os.Stdout)

	status := func(s installer.Status) {
		if s.Percent >= 0 {
			fmt.Printf("\r[%3d%%] %s\033[K", s.Percent, s.Text)
			if s.Percent == 100 {
				fmt.Println()
			}
			return
		}
		fmt.Println(s.Text)
	}

	return installer.New(fs, cfg, cache, prompter, gen, prefixMgr, status,
		installer.WithOpenFolder(openFolder))
}

func runInstall(
	ctx context.Context,
	fs afero.Fs,
	cfg *config.Instance,
	prefixMgr *prefixes.Manager,
	registry *downloads.Registry,
	archivePath string,
) error {
	inst := newInstaller(ctx, fs, cfg, prefixMgr)

	rec, found := findRecord(registry, archivePath)
	if !found {
		rec = downloads.Record{Path: archivePath, Status: downloads.StatusCompleted}
		if info, err := os.Stat(archivePath); err == nil {
			rec.TotalBytes = info.Size()
		}
	}

	return inst.Install(ctx, rec)
}

func findRecord(registry *downloads.Registry, archivePath string) (downloads.Record, bool) {
	for _, rec := range registry.List() {
		if rec.Path == archivePath {
			return rec, true
		}
	}
	return downloads.Record{}, false
}

func runDownload(
	ctx context.Context,
	cfg *config.Instance,
	registry *downloads.Registry,
	url string,
) error {
	dl := downloads.NewDownloader(httpclient.DefaultClient, registry, cfg.DownloadsDir())
	path, err := dl.Fetch(ctx, url)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded to %s\n", path)
	return nil
}

func runListDownloads(registry *downloads.Registry) error {
	recs := registry.List()
	if len(recs) == 0 {
		fmt.Println("No downloads tracked.")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("%-12s %-10s %s\n", rec.Status, helpers.FormatSize(rec.TotalBytes), rec.Path)
	}
	return nil
}

func runListPrefixes(prefixMgr *prefixes.Manager) error {
	names, err := prefixMgr.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No prefixes installed.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runConfigurePrefix(
	cfg *config.Instance,
	prefixMgr *prefixes.Manager,
	prefixName string,
) error {
	current, err := prefixMgr.LoadConfig(prefixName)
	if err != nil {
		return err
	}

	fmt.Printf("Current config for %s:\n", prefixName)
	for _, key := range helpers.AlphaMapKeys(current) {
		fmt.Printf("  %s=%s\n", key, current[key])
	}

	prompter := newTerminalPrompter(os.Stdin, os.Stdout)
	defaults := installer.ConfigDefaults{
		GameID:  current["GAMEID"],
		Store:   current["STORE"],
		Stores:  cfg.Stores(),
		Wayland: current["PROTON_ENABLE_WAYLAND"] == "1",
	}
	if defaults.GameID == "" {
		defaults.GameID = installer.DefaultGameID
	}
	if defaults.Store == "" {
		defaults.Store = installer.DefaultStore
	}

	updated, ok, err := prompter.ConfigureInstall(context.Background(), defaults)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Configuration unchanged.")
		return nil
	}

	if err := prefixMgr.SaveConfig(prefixName, updated); err != nil {
		return err
	}

	count, err := prefixMgr.UpdateScripts(prefixName, cfg.ProtonPath(), updated)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %d shortcut script(s).\n", count)
	return nil
}

// runWatch installs archives as they appear in the download directory.
func runWatch(
	ctx context.Context,
	fs afero.Fs,
	cfg *config.Instance,
	prefixMgr *prefixes.Manager,
	registry *downloads.Registry,
) error {
	watcher := downloads.NewDirWatcher(cfg.DownloadsDir())

	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Error().Err(err).Msg("download directory watcher failed")
		}
	}()

	inst := newInstaller(ctx, fs, cfg, prefixMgr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-watcher.Ready():
			fmt.Printf("New archive: %s\n", path)

			rec := downloads.Record{Path: path, Status: downloads.StatusCompleted}
			if info, err := os.Stat(path); err == nil {
				rec.TotalBytes = info.Size()
			}
			if err := registry.Add(rec); err != nil {
				log.Warn().Err(err).Msg("error recording download")
			}

			if err := inst.Install(ctx, rec); err != nil {
				log.Error().Err(err).Str("path", path).Msg("install failed")
			}
		}
	}
}

// openFolder reveals a directory in the user's file manager.
func openFolder(path string) {
	cmd := exec.Command("xdg-open", path)
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("error opening folder")
		return
	}
	go func() {
		timer := time.AfterFunc(10*time.Second, func() {
			_ = cmd.Process.Kill()
		})
		defer timer.Stop()
		_ = cmd.Wait()
	}()
}
