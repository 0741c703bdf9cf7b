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

package helpers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// IsZip reports whether filePath has a .zip extension.
func IsZip(filePath string) bool {
	return filepath.Ext(strings.ToLower(filePath)) == ".zip"
}

// MapKeys returns a list of all keys in a map.
func MapKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, len(m))
	i := 0
	for k := range m {
		keys[i] = k
		i++
	}
	return keys
}

// AlphaMapKeys returns the keys of a map sorted alphabetically.
func AlphaMapKeys[V any](m map[string]V) []string {
	keys := MapKeys(m)
	sort.Strings(keys)
	return keys
}

// Contains returns true if slice contains value.
func Contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// FormatSize renders a byte count as a short human-readable string,
// matching the display format used in download status text.
func FormatSize(nbytes int64) string {
	switch {
	case nbytes >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(nbytes)/float64(1<<30))
	case nbytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(nbytes)/float64(1<<20))
	case nbytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(nbytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", nbytes)
	}
}
