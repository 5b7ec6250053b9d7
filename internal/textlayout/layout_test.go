/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"testing"
)

func TestWrapRespectsWidth(t *testing.T) {
	face := Face()
	lines := Wrap(face, "Hello world from Go", 50, 0, ASCIIEllipsis)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %q", lines)
	}
	for _, l := range lines {
		if Advance(face, l) > 50 {
			t.Fatalf("line %q wider than 50px", l)
		}
	}
	if got := strings.Join(lines, " "); got != "Hello world from Go" {
		t.Fatalf("wrap lost text: %q", got)
	}
}

func TestWrapBreaksLongWords(t *testing.T) {
	face := Face()
	// 7px per glyph: 20 glyphs in 70px lines
	lines := Wrap(face, strings.Repeat("x", 20), 70, 0, ASCIIEllipsis)
	if len(lines) != 2 || lines[0] != strings.Repeat("x", 10) {
		t.Fatalf("lines = %q", lines)
	}
}

func TestWrapCapsLines(t *testing.T) {
	face := Face()
	lines := Wrap(face, "one two three four five six seven", 42, 2, ASCIIEllipsis)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ASCIIEllipsis) {
		t.Fatalf("lines = %q", lines)
	}
	if Advance(face, lines[1]) > 42 {
		t.Fatalf("capped line too wide: %q", lines[1])
	}
	if Wrap(face, "   ", 40, 0, "") != nil {
		t.Fatalf("blank text should give no lines")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"", 10, "—"},
		{"  short ", 10, "short"},
		{"L'écume des jours", 8, "L'écume…"},
		{"abcdefghij", 6, "abc..."},
	}
	for _, c := range cases {
		ell := Ellipsis
		if c.n == 6 {
			ell = ASCIIEllipsis
		}
		if got := Truncate(c.in, c.n, ell); got != c.want {
			t.Fatalf("Truncate(%q, %d) = %q want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestPrintableAndMetrics(t *testing.T) {
	face := Face()
	if got := Printable("a…b–c→d"); got != "a...b-c?d" {
		t.Fatalf("Printable = %q", got)
	}
	if Advance(face, "ABC") != 21 {
		t.Fatalf("advance = %d", Advance(face, "ABC"))
	}
	if LineHeight(face) != 13 || Ascent(face) != 11 {
		t.Fatalf("metrics = %d/%d", LineHeight(face), Ascent(face))
	}
}
