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
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLoadMissingFile(t *testing.T) {
	t.Parallel()

	r := NewRegistry(afero.NewMemMapFs(), "/data/downloads.json")
	require.NoError(t, r.Load())
	assert.Empty(t, r.List())
}

func TestRegistryRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	r := NewRegistry(fs, "/data/downloads.json")
	require.NoError(t, r.Load())

	rec := Record{
		Path:       "/downloads/game.zip",
		URL:        "https://server/game.zip",
		Status:     StatusCompleted,
		TotalBytes: 1024,
	}
	require.NoError(t, r.Add(rec))

	// File is a readable indented JSON array.
	data, err := afero.ReadFile(fs, "/data/downloads.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))
	assert.Contains(t, string(data), "    \"path\"")

	fresh := NewRegistry(fs, "/data/downloads.json")
	require.NoError(t, fresh.Load())
	got, found := fresh.Get("https://server/game.zip")
	require.True(t, found)
	assert.Equal(t, rec, got)
}

func TestRegistryLoadMarksInterruptedDownloadsFailed(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	content := `[
    {"path": "/d/a.zip", "url": "https://server/a.zip", "status": "Downloading", "total_bytes": 0},
    {"path": "/d/b.zip", "url": "https://server/b.zip", "status": "Completed", "total_bytes": 5}
]`
	require.NoError(t, afero.WriteFile(fs, "/data/downloads.json", []byte(content), 0o644))

	r := NewRegistry(fs, "/data/downloads.json")
	require.NoError(t, r.Load())

	a, found := r.Get("https://server/a.zip")
	require.True(t, found)
	assert.Equal(t, StatusFailed, a.Status)

	b, found := r.Get("https://server/b.zip")
	require.True(t, found)
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestRegistryAddDeduplicatesByURL(t *testing.T) {
	t.Parallel()

	r := NewRegistry(afero.NewMemMapFs(), "/data/downloads.json")
	require.NoError(t, r.Load())

	require.NoError(t, r.Add(Record{URL: "https://server/a.zip", Status: StatusFailed}))
	require.NoError(t, r.Add(Record{URL: "https://server/b.zip", Status: StatusCompleted}))
	require.NoError(t, r.Add(Record{URL: "https://server/a.zip", Status: StatusDownloading}))

	recs := r.List()
	require.Len(t, recs, 2)
	// Retried download is newest and replaced the old entry.
	assert.Equal(t, "https://server/a.zip", recs[0].URL)
	assert.Equal(t, StatusDownloading, recs[0].Status)
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry(afero.NewMemMapFs(), "/data/downloads.json")
	require.NoError(t, r.Load())
	require.NoError(t, r.Add(Record{URL: "https://server/a.zip"}))

	require.NoError(t, r.Remove("https://server/a.zip"))
	assert.Empty(t, r.List())

	// Removing an unknown URL is a no-op.
	require.NoError(t, r.Remove("https://server/gone.zip"))
}

func TestRegistrySetCompleted(t *testing.T) {
	t.Parallel()

	r := NewRegistry(afero.NewMemMapFs(), "/data/downloads.json")
	require.NoError(t, r.Load())
	require.NoError(t, r.Add(Record{URL: "https://server/a.zip", Status: StatusDownloading}))

	require.NoError(t, r.SetCompleted("https://server/a.zip", "/d/a.zip", 2048))
	rec, found := r.Get("https://server/a.zip")
	require.True(t, found)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "/d/a.zip", rec.Path)
	assert.Equal(t, int64(2048), rec.TotalBytes)

	require.Error(t, r.SetStatus("https://server/unknown.zip", StatusFailed))
}
