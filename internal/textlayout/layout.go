/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and breaks the short labels drawn on exported
// cards. Everything is measured with a fixed bitmap face so renders are
// deterministic across machines.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Ellipsis ends truncated labels. Bitmap faces lack U+2026, so renderers that
// draw with Face pass ASCIIEllipsis instead.
const (
	Ellipsis      = "…"
	ASCIIEllipsis = "..."
)

// Face is the label face, 7x13 pixels.
func Face() font.Face { return basicfont.Face7x13 }

// LineHeight is the baseline to baseline distance of face in pixels.
func LineHeight(face font.Face) int { return face.Metrics().Height.Ceil() }

// Ascent is the distance from the top of a line to its baseline.
func Ascent(face font.Face) int { return face.Metrics().Ascent.Ceil() }

// Advance is the drawn width of s in pixels.
func Advance(face font.Face, s string) int {
	return (&font.Drawer{Face: face}).MeasureString(s).Ceil()
}

// Truncate trims s to at most n runes, ending with ellipsis when it had to
// cut. An empty label renders as an em dash.
func Truncate(s string, n int, ellipsis string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return "—"
	}
	if n <= 0 || utf8.RuneCountInString(t) <= n {
		return t
	}
	keep := n - utf8.RuneCountInString(ellipsis)
	if keep < 1 {
		keep = 1
	}
	r := []rune(t)
	return strings.TrimRight(string(r[:keep]), " ") + ellipsis
}

var asciiPunct = strings.NewReplacer("…", "...", "—", "-", "–", "-", "’", "'", "‘", "'", "“", "\"", "”", "\"")

// Printable folds typographic punctuation to ASCII and replaces any other
// rune outside the Latin-1 range of Face with '?'.
func Printable(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 0x20 && r < 0x7f) || (r >= 0xa0 && r < 0x100) {
			return r
		}
		return '?'
	}, asciiPunct.Replace(s))
}

// Wrap breaks text into lines no wider than maxWidth, splitting on spaces.
// A word wider than maxWidth is broken between runes. With maxLines > 0 the
// result is capped and the last kept line ends with ellipsis.
func Wrap(face font.Face, text string, maxWidth, maxLines int, ellipsis string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if maxWidth <= 0 || Advance(face, cand) <= maxWidth {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = ""
		for _, piece := range breakWord(face, w, maxWidth) {
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = piece
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := lines[maxLines-1]
		for last != "" && Advance(face, last+ellipsis) > maxWidth {
			_, size := utf8.DecodeLastRuneInString(last)
			last = last[:len(last)-size]
		}
		lines[maxLines-1] = strings.TrimRight(last, " ") + ellipsis
	}
	return lines
}

func breakWord(face font.Face, w string, maxWidth int) []string {
	var out []string
	start := 0
	for i, r := range w {
		end := i + utf8.RuneLen(r)
		if i > start && Advance(face, w[start:end]) > maxWidth {
			out = append(out, w[start:i])
			start = i
		}
	}
	return append(out, w[start:])
}
