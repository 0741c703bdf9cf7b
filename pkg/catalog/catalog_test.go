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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesArrayResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The full listing is selected by sending no parameters at all.
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[
			{"title":"Arx Fatalis","store":"gog","umu_id":"umu-1302"},
			{"title":"Baldur's Gate II","store":"gog","umu_id":"umu-257350"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	entries, err := client.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Arx Fatalis", entries[0].Title)
	assert.Equal(t, "umu-257350", entries[1].UmuID)
}

func TestClientDecodesSingleObjectResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "arx_fatalis", r.URL.Query().Get("codename"))
		_, _ = w.Write([]byte(`{"title":"Arx Fatalis","store":"gog","umu_id":"umu-1302"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	entries, err := client.GetByCodename(context.Background(), "ARX_Fatalis")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "umu-1302", entries[0].UmuID)
}

func TestClientErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func newTestCache(t *testing.T, responses []string) (*Cache, *int) {
	t.Helper()

	call := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := responses[call]
		if call < len(responses)-1 {
			call++
		}
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	return NewCache(NewClient(srv.URL)), &call
}

func TestCacheRefreshFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t, []string{
		`[{"title":"Arx Fatalis","store":"gog","umu_id":"umu-1302"}]`,
		`this is not json`,
	})

	require.NoError(t, cache.Refresh(context.Background()))
	require.Equal(t, 1, cache.Len())
	first := cache.LastRefreshed()

	err := cache.Refresh(context.Background())
	require.Error(t, err)

	// Snapshot from the good refresh is untouched.
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, first, cache.LastRefreshed())
	results := cache.SearchByPartialTitle("arx")
	require.Len(t, results, 1)
	assert.Equal(t, "umu-1302", results[0].UmuID)
}

func TestCacheSearchByPartialTitle(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t, []string{`[
		{"title":"Baldur's Gate","store":"gog","umu_id":"umu-1"},
		{"title":"Baldur's Gate II","store":"gog","umu_id":"umu-2"},
		{"title":"Baldur's Gate II: Enhanced Edition","store":"steam","umu_id":"umu-3"},
		{"title":"Arx Fatalis","store":"gog","umu_id":"umu-4"}
	]`})
	require.NoError(t, cache.Refresh(context.Background()))

	t.Run("substring match with ranking", func(t *testing.T) {
		t.Parallel()
		results := cache.SearchByPartialTitle("baldurs gate 2")
		require.Len(t, results, 2)
		// The closer title ranks first.
		assert.Equal(t, "umu-2", results[0].UmuID)
		assert.Equal(t, "umu-3", results[1].UmuID)
	})

	t.Run("normalization applies to query", func(t *testing.T) {
		t.Parallel()
		results := cache.SearchByPartialTitle("BALDUR'S GATE II")
		require.Len(t, results, 2)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, cache.SearchByPartialTitle("doom"))
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, cache.SearchByPartialTitle(""))
		assert.Empty(t, cache.SearchByPartialTitle("!!!"))
	})
}

func TestCacheEmptyBeforeRefresh(t *testing.T) {
	t.Parallel()

	cache := NewCache(NewClient("http://127.0.0.1:0"))
	assert.Zero(t, cache.Len())
	assert.Empty(t, cache.SearchByPartialTitle("anything"))
	assert.True(t, cache.LastRefreshed().IsZero())
}
