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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gameyfin/gameyfin-shell/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Registry persists download records to a JSON file. Records are kept
// newest first.
type Registry struct {
	fs      afero.Fs
	path    string
	records []Record
	mu      syncutil.RWMutex
}

func NewRegistry(fs afero.Fs, path string) *Registry {
	return &Registry{fs: fs, path: path}
}

// Load reads the records file. A missing file leaves the registry
// empty. Records still marked Downloading are from an interrupted
// session and are converted to Failed.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := afero.ReadFile(r.fs, r.path)
	if os.IsNotExist(err) {
		r.records = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading download history: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("error decoding download history: %w", err)
	}

	for i := range records {
		if records[i].Status == StatusDownloading {
			log.Warn().Str("url", records[i].URL).Msg("download interrupted by shutdown, marking failed")
			records[i].Status = StatusFailed
		}
	}

	r.records = records
	return nil
}

// save writes the records file. Callers must hold the write lock.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.records, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding download history: %w", err)
	}

	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("error creating history directory: %w", err)
	}

	if err := afero.WriteFile(r.fs, r.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing download history: %w", err)
	}
	return nil
}

// Add prepends a record. Any existing record with the same URL is
// replaced so a retried download does not leave a stale duplicate.
func (r *Registry) Add(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := make([]Record, 0, len(r.records)+1)
	filtered = append(filtered, rec)
	for _, existing := range r.records {
		if existing.URL != rec.URL {
			filtered = append(filtered, existing)
		}
	}
	r.records = filtered

	return r.save()
}

// Remove deletes the record for the given URL, if present.
func (r *Registry) Remove(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := r.records[:0]
	for _, rec := range r.records {
		if rec.URL != url {
			filtered = append(filtered, rec)
		}
	}
	r.records = filtered

	return r.save()
}

// List returns a copy of all records, newest first.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Get returns the record for a URL.
func (r *Registry) Get(url string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.URL == url {
			return rec, true
		}
	}
	return Record{}, false
}

// SetStatus updates the status of the record for a URL.
func (r *Registry) SetStatus(url string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].URL == url {
			r.records[i].Status = status
			return r.save()
		}
	}
	return fmt.Errorf("no download record for url: %s", url)
}

// SetCompleted marks a record completed with its final path and size.
func (r *Registry) SetCompleted(url, path string, totalBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].URL == url {
			r.records[i].Status = StatusCompleted
			r.records[i].Path = path
			r.records[i].TotalBytes = totalBytes
			return r.save()
		}
	}
	return fmt.Errorf("no download record for url: %s", url)
}
