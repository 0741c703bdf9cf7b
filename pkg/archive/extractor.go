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

// Package archive extracts downloaded game archives with progress
// reporting and cooperative cancellation.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrCancelled is the terminal error for a user-cancelled extraction.
var ErrCancelled = errors.New("Extraction cancelled by user")

const openFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// EventType discriminates extraction events.
type EventType int

const (
	EventProgress EventType = iota
	EventFinished
	EventErrored
)

// Event reports extraction progress. Progress events carry the percent
// complete and the member just written. Exactly one terminal event
// (Finished or Errored) is sent before the channel closes.
type Event struct {
	Err     error
	Name    string
	Type    EventType
	Percent int
}

// Extractor unpacks a single zip archive into a target directory.
// One extractor handles one archive; create a new one per job.
type Extractor struct {
	fs        afero.Fs
	events    chan Event
	zipPath   string
	targetDir string
	cancelled atomic.Bool
}

func New(fs afero.Fs, zipPath, targetDir string) *Extractor {
	return &Extractor{
		fs:        fs,
		zipPath:   zipPath,
		targetDir: targetDir,
		events:    make(chan Event, 16),
	}
}

// Events returns the channel extraction events are delivered on.
// The channel is closed after the terminal event.
func (e *Extractor) Events() <-chan Event {
	return e.events
}

// Stop requests cancellation. The extraction stops before the next
// archive member; the member currently being written is finished first.
func (e *Extractor) Stop() {
	e.cancelled.Store(true)
}

// Start runs the extraction in a new goroutine.
func (e *Extractor) Start() {
	go e.run()
}

func (e *Extractor) run() {
	defer close(e.events)

	err := e.extract()
	if err != nil {
		log.Error().Err(err).Str("zip", e.zipPath).Msg("extraction failed")
		e.events <- Event{Type: EventErrored, Err: err}
		return
	}

	log.Info().Str("zip", e.zipPath).Str("target", e.targetDir).Msg("extraction complete")
	e.events <- Event{Type: EventFinished, Percent: 100}
}

func (e *Extractor) extract() error {
	f, err := e.fs.Open(e.zipPath)
	if err != nil {
		return fmt.Errorf("error opening archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing archive: %s", e.zipPath)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("error reading archive info: %w", err)
	}

	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("error reading archive: %w", err)
	}

	if err := e.fs.MkdirAll(e.targetDir, 0o755); err != nil {
		return fmt.Errorf("error creating target directory: %w", err)
	}

	total := len(reader.File)
	for i, member := range reader.File {
		if e.cancelled.Load() {
			return ErrCancelled
		}

		if err := e.writeMember(member); err != nil {
			return err
		}

		e.events <- Event{
			Type:    EventProgress,
			Percent: (i + 1) * 100 / total,
			Name:    member.Name,
		}
	}

	return nil
}

func (e *Extractor) writeMember(member *zip.File) error {
	// Reject members that would escape the target directory.
	cleaned := filepath.Clean(member.Name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("archive member has unsafe path: %s", member.Name)
	}
	destPath := filepath.Join(e.targetDir, cleaned)

	if member.FileInfo().IsDir() {
		if err := e.fs.MkdirAll(destPath, 0o755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
		return nil
	}

	if err := e.fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("error opening archive member %s: %w", member.Name, err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing archive member: %s", member.Name)
		}
	}()

	mode := member.Mode()
	if mode == 0 {
		mode = 0o644
	}

	dst, err := e.fs.OpenFile(destPath, openFlags, mode)
	if err != nil {
		return fmt.Errorf("error creating file %s: %w", destPath, err)
	}

	_, err = io.Copy(dst, src) // #nosec G110 - user-initiated local extraction
	if err != nil {
		if closeErr := dst.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing file: %s", destPath)
		}
		return fmt.Errorf("error writing file %s: %w", destPath, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("error closing file %s: %w", destPath, err)
	}

	return nil
}
