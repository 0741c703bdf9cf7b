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

// Package downloads tracks game archive downloads across sessions and
// watches the download directory for archives that arrive outside the
// shell, e.g. through a browser.
package downloads

// Status is the lifecycle state of a download record.
type Status string

const (
	StatusDownloading Status = "Downloading"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
	StatusFailed      Status = "Failed"
)

// Record is one tracked download. Path is the local archive location
// once the download completes.
type Record struct {
	Path       string `json:"path"`
	URL        string `json:"url"`
	Status     Status `json:"status"`
	TotalBytes int64  `json:"total_bytes"`
}
