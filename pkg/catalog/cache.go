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

package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gameyfin/gameyfin-shell/pkg/helpers/syncutil"
	"github.com/gameyfin/gameyfin-shell/pkg/titles"
	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
)

// Cache holds a snapshot of the umu database for local searching.
// The snapshot is immutable between refreshes; a failed refresh leaves
// the previous snapshot in place.
type Cache struct {
	client    *Client
	entries   []Entry
	norms     []string
	refreshed time.Time
	mu        syncutil.RWMutex
}

func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Refresh replaces the cached snapshot with the full database contents.
// On error the existing snapshot is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	entries, err := c.client.ListAll(ctx)
	if err != nil {
		return err
	}

	norms := make([]string, len(entries))
	for i := range entries {
		norms[i] = titles.Normalize(entries[i].Title)
	}

	c.mu.Lock()
	c.entries = entries
	c.norms = norms
	c.refreshed = time.Now()
	c.mu.Unlock()

	log.Info().Int("entries", len(entries)).Msg("refreshed umu catalog cache")
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LastRefreshed returns the time of the last successful refresh, or the
// zero time if the cache has never been populated.
func (c *Cache) LastRefreshed() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// SearchByPartialTitle returns cached entries whose normalized title
// contains the normalized query, best matches first. Jaro-Winkler works
// well here since users typically get the start of a title right.
// An empty or symbol-only query returns no results.
func (c *Cache) SearchByPartialTitle(query string) []Entry {
	normQuery := titles.Normalize(query)
	if normQuery == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		entry      Entry
		similarity float32
	}

	var matches []scored
	for i, norm := range c.norms {
		if !strings.Contains(norm, normQuery) {
			continue
		}
		matches = append(matches, scored{
			entry:      c.entries[i],
			similarity: edlib.JaroWinklerSimilarity(normQuery, norm),
		})
	}

	// Stable sort keeps database order for equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	results := make([]Entry, len(matches))
	for i, m := range matches {
		results[i] = m.entry
	}
	return results
}

// GetByCodename resolves a store codename directly against the API.
// Codename lookups bypass the cache since they are exact and rare.
func (c *Cache) GetByCodename(ctx context.Context, codename string) ([]Entry, error) {
	return c.client.GetByCodename(ctx, codename)
}
