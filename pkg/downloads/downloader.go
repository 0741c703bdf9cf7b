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
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gameyfin/gameyfin-shell/pkg/httpclient"
	"github.com/rs/zerolog/log"
)

// Downloader fetches game archives from the server into the download
// directory and keeps the registry in sync.
type Downloader struct {
	client   *httpclient.Client
	registry *Registry
	dir      string
}

func NewDownloader(client *httpclient.Client, registry *Registry, dir string) *Downloader {
	return &Downloader{
		client:   client,
		registry: registry,
		dir:      dir,
	}
}

// Fetch downloads rawURL into the download directory, recording
// progress in the registry. It returns the final archive path.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid download url: %w", err)
	}

	filename := path.Base(parsed.Path)
	if filename == "." || filename == "/" {
		return "", errors.New("download url has no file name")
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating download directory: %w", err)
	}

	outPath := filepath.Join(d.dir, filename)

	if err := d.registry.Add(Record{
		URL:    rawURL,
		Path:   outPath,
		Status: StatusDownloading,
	}); err != nil {
		return "", err
	}

	err = d.client.DownloadFile(ctx, httpclient.DownloadFileArgs{
		URL:        rawURL,
		OutputPath: outPath,
		TempPath:   outPath + ".part",
	})
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) {
			status = StatusCancelled
		}
		if markErr := d.registry.SetStatus(rawURL, status); markErr != nil {
			log.Warn().Err(markErr).Msg("error updating download record")
		}
		return "", fmt.Errorf("download failed: %w", err)
	}

	var size int64
	if info, statErr := os.Stat(outPath); statErr == nil {
		size = info.Size()
	}

	if err := d.registry.SetCompleted(rawURL, outPath, size); err != nil {
		log.Warn().Err(err).Msg("error updating download record")
	}

	log.Info().Str("url", rawURL).Str("path", outPath).Msg("download complete")
	return outPath, nil
}
