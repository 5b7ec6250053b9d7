/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package media pairs archive references with files in the public storage
// bucket and turns storage paths into fetchable URLs.
package media

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	extRe      = regexp.MustCompile(`(?i)\.[a-z0-9]+$`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

	// combining diacritical marks block only, U+0300 to U+036F
	diacritics = runes.Predicate(func(r rune) bool { return r >= 0x300 && r <= 0x36f })
)

// Normalize builds the comparison key of a file name or a reference field:
// accents removed, lower case, extension dropped, every run of characters
// outside [a-z0-9] collapsed into one space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(diacritics))
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)
	s = extRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokens splits a key on spaces.
func tokens(key string) []string { return strings.Fields(key) }
