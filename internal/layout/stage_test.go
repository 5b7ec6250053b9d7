/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"testing"

	"tplstudio/internal/vector"
)

func TestStageDefaultGeometry(t *testing.T) {
	s := Stage(1200, 700)
	if s.Canvas != vector.R(228, 78, 744, 440) {
		t.Fatalf("canvas = %+v", s.Canvas)
	}
	if s.Console != vector.R(228, 536, 744, 120) {
		t.Fatalf("console = %+v", s.Console)
	}
	if s.TotalH != 656 {
		t.Fatalf("total height = %v", s.TotalH)
	}
	if c := s.Capture(); c != vector.R(228, 78, 744, 578) {
		t.Fatalf("capture = %+v", c)
	}
	av := s.Avoid()
	if len(av) != 3 || av[0] != vector.R(210, 60, 780, 476) || av[2] != vector.R(0, 0, 1200, 70) {
		t.Fatalf("avoid = %+v", av)
	}
}

func TestStageCanvasWidthLimits(t *testing.T) {
	cases := []struct {
		w, want float64
	}{
		{500, 560},
		{1000, 620},
		{2000, 820},
	}
	for _, c := range cases {
		if got := Stage(c.w, 700).Canvas.W; got != c.want {
			t.Fatalf("canvas width for stage %v = %v want %v", c.w, got, c.want)
		}
	}
}

func TestStageDegenerateSizeFallsBack(t *testing.T) {
	if s := Stage(0, -5); s.Stage != (vector.Size{W: DefaultStageW, H: DefaultStageH}) {
		t.Fatalf("stage = %+v", s.Stage)
	}
}

func TestWorldTiles(t *testing.T) {
	tiles := World(42, 220, 7000, 4500)
	if len(tiles) != 220 {
		t.Fatalf("got %d tiles", len(tiles))
	}
	seen := map[string]bool{}
	for _, tl := range tiles {
		if seen[tl.ID] {
			t.Fatalf("duplicate id %s", tl.ID)
		}
		seen[tl.ID] = true
		if tl.X < -3500 || tl.X+tl.W > 3500 || tl.Y < -2250 || tl.Y+tl.H > 2250 {
			t.Fatalf("tile outside world: %+v", tl)
		}
	}
	if World(42, 3, 7000, 4500)[2] != tiles[2] {
		t.Fatalf("world not deterministic")
	}
}
