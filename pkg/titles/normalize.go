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

// Package titles normalizes game titles into comparable keys for
// catalog matching. Two renderings of the same title ("Baldur's Gate II",
// "baldurs gate 2") normalize to the same key.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Longest numerals first so "VIII" is not matched as "V" + "III".
var romanNumeralOrder = []string{"VIII", "VII", "III", "IX", "IV", "VI", "II", "X", "V", "I"}

var romanNumeralReplacements = map[string]string{
	"I":    "1",
	"II":   "2",
	"III":  "3",
	"IV":   "4",
	"V":    "5",
	"VI":   "6",
	"VII":  "7",
	"VIII": "8",
	"IX":   "9",
	"X":    "10",
}

var romanNumeralPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(romanNumeralOrder))
	for _, numeral := range romanNumeralOrder {
		patterns[numeral] = regexp.MustCompile(`(?i)\b` + numeral + `\b`)
	}
	return patterns
}()

// Separators fold to spaces before numeral conversion so titles like
// "Mega_Man_X" expose their numerals at word boundaries.
var separatorRegex = regexp.MustCompile(`[^a-zA-Z0-9]+`)

var nonAlphanumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// removeDiacritics strips combining marks so accented characters compare
// equal to their base form ("Pokémon" -> "Pokemon").
func removeDiacritics(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize converts a title to its canonical matching key: diacritics
// folded, standalone Roman numerals I through X converted to Arabic
// numbers, lowercased, and everything outside [a-z0-9] dropped.
func Normalize(title string) string {
	s := removeDiacritics(title)
	s = separatorRegex.ReplaceAllString(s, " ")

	for _, numeral := range romanNumeralOrder {
		s = romanNumeralPatterns[numeral].ReplaceAllString(s, " "+romanNumeralReplacements[numeral]+" ")
	}

	s = strings.ToLower(s)
	s = nonAlphanumRegex.ReplaceAllString(s, "")

	return s
}
