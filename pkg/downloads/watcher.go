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

package downloads

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gameyfin/gameyfin-shell/pkg/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const defaultSettle = 2 * time.Second

// DirWatcher watches the download directory for zip archives written
// by external tools, e.g. a browser saving a download. An archive is
// announced once it has stopped growing for the settle period, since
// fsnotify has no "file finished" event.
type DirWatcher struct {
	clock   clockwork.Clock
	pending map[string]time.Time
	ready   chan string
	dir     string
	settle  time.Duration
}

type DirWatcherOption func(*DirWatcher)

func WithSettle(settle time.Duration) DirWatcherOption {
	return func(w *DirWatcher) { w.settle = settle }
}

func WithDirClock(clock clockwork.Clock) DirWatcherOption {
	return func(w *DirWatcher) { w.clock = clock }
}

func NewDirWatcher(dir string, opts ...DirWatcherOption) *DirWatcher {
	w := &DirWatcher{
		dir:     dir,
		settle:  defaultSettle,
		clock:   clockwork.NewRealClock(),
		pending: make(map[string]time.Time),
		ready:   make(chan string, 8),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready returns the channel settled archive paths are delivered on.
func (w *DirWatcher) Ready() <-chan string {
	return w.ready
}

// observe records write activity for a path. Non-zip paths and partial
// download files are ignored.
func (w *DirWatcher) observe(path string, now time.Time) {
	if !helpers.IsZip(path) {
		return
	}
	w.pending[path] = now
}

// settled returns paths whose last write is older than the settle
// period and removes them from the pending set.
func (w *DirWatcher) settled(now time.Time) []string {
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}

// Run watches the directory until the context is cancelled.
func (w *DirWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating directory watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing directory watcher")
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("error watching directory %s: %w", w.dir, err)
	}

	ticker := w.clock.NewTicker(w.settle / 2)
	defer ticker.Stop()

	log.Info().Str("dir", w.dir).Msg("watching download directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.observe(event.Name, w.clock.Now())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("directory watcher error")
		case <-ticker.Chan():
			for _, path := range w.settled(w.clock.Now()) {
				log.Info().Str("path", path).Msg("new archive in download directory")
				select {
				case w.ready <- path:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
