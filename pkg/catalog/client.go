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

// Package catalog queries the umu game database and caches its contents
// for local fuzzy title searches.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gameyfin/gameyfin-shell/pkg/httpclient"
	"github.com/rs/zerolog/log"
)

// Entry is a single row of the umu database.
type Entry struct {
	Title  string `json:"title"`
	Store  string `json:"store"`
	UmuID  string `json:"umu_id"`
	GameID string `json:"codename,omitempty"`
}

// Client talks to the umu API over HTTP.
type Client struct {
	http   *httpclient.Client
	apiURL string
}

func NewClient(apiURL string) *Client {
	return &Client{
		http:   httpclient.NewClientWithTimeout(httpclient.DefaultTimeoutSeconds * time.Second),
		apiURL: apiURL,
	}
}

// get performs an API request with the given query parameters. The API
// returns either a JSON array or a single object depending on the
// endpoint, so both shapes decode into a slice.
func (c *Client) get(ctx context.Context, params url.Values) ([]Entry, error) {
	reqURL := c.apiURL
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("umu api request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("umu api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading umu api response: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		var single Entry
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("error decoding umu api response: %w", err)
		}
		entries = []Entry{single}
	}

	return entries, nil
}

// ListAll fetches the entire umu database. The unfiltered listing is
// a parameterless request.
func (c *Client) ListAll(ctx context.Context) ([]Entry, error) {
	return c.get(ctx, url.Values{})
}

// GetByCodename looks up entries whose store codename matches exactly.
// Codenames in the database are lowercase.
func (c *Client) GetByCodename(ctx context.Context, codename string) ([]Entry, error) {
	params := url.Values{}
	params.Set("codename", strings.ToLower(codename))
	return c.get(ctx, params)
}

// GetByTitle looks up entries whose title matches exactly.
func (c *Client) GetByTitle(ctx context.Context, title string) ([]Entry, error) {
	params := url.Values{}
	params.Set("title", title)
	return c.get(ctx, params)
}

// GetByUmuID looks up entries by their umu identifier.
func (c *Client) GetByUmuID(ctx context.Context, umuID string) ([]Entry, error) {
	params := url.Values{}
	params.Set("umu_id", umuID)
	return c.get(ctx, params)
}

// ListByStore fetches all entries for one store.
func (c *Client) ListByStore(ctx context.Context, store string) ([]Entry, error) {
	params := url.Values{}
	params.Set("store", store)
	return c.get(ctx, params)
}
