/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"math"
	"strconv"

	"tplstudio/internal/prng"
	"tplstudio/internal/vector"
)

// Stage geometry of the composition page.
const (
	DefaultStageW = 1200
	DefaultStageH = 700

	TopOffset     = 78
	CanvasMinW    = 560
	CanvasMaxW    = 820
	CanvasH       = 440
	ConsoleH      = 120
	ConsoleGap    = 18
	AvoidMargin   = 18
	titleClearing = 8
)

// StageRects are the reserved regions of the stage in stage coordinates.
type StageRects struct {
	Stage   vector.Size
	Canvas  vector.Rect
	Console vector.Rect
	Title   vector.Rect
	// TotalH is the bottom of the console.
	TotalH float64
}

// NormalizeStage replaces a degenerate (zero or negative) dimension with the
// default stage size so downstream math never divides by zero.
func NormalizeStage(w, h float64) (float64, float64) {
	if w <= 0 || math.IsNaN(w) {
		w = DefaultStageW
	}
	if h <= 0 || math.IsNaN(h) {
		h = DefaultStageH
	}
	return w, h
}

// Stage computes the canvas, console and title strip for a stage. The
// canvas takes 62% of the width within [560, 820], is centered and starts
// below the title row; the console sits underneath with the same width.
func Stage(stageW, stageH float64) StageRects {
	stageW, stageH = NormalizeStage(stageW, stageH)
	cw := math.Min(CanvasMaxW, math.Max(CanvasMinW, math.Floor(stageW*0.62)))
	cx := math.Floor((stageW - cw) / 2)
	cy := float64(TopOffset)
	consoleY := cy + CanvasH + ConsoleGap
	return StageRects{
		Stage:   vector.Size{W: stageW, H: stageH},
		Canvas:  vector.R(cx, cy, cw, CanvasH),
		Console: vector.R(cx, consoleY, cw, ConsoleH),
		Title:   vector.R(0, 0, stageW, TopOffset-titleClearing),
		TotalH:  consoleY + ConsoleH,
	}
}

// Avoid returns the regions pool tiles must stay out of: canvas and console
// grown by AvoidMargin, plus the title strip.
func (s StageRects) Avoid() []vector.Rect {
	return []vector.Rect{s.Canvas.Grow(AvoidMargin), s.Console.Grow(AvoidMargin), s.Title}
}

// Capture is the exported region: canvas, gap and console stacked.
func (s StageRects) Capture() vector.Rect {
	return vector.R(s.Canvas.X, s.Canvas.Y, s.Canvas.W, s.Canvas.H+ConsoleGap+s.Console.H)
}

// WorldTile is a free tile of the pannable home world.
type WorldTile struct {
	ID string `json:"id"`
	vector.Rect
}

// World scatters count tiles over a worldW x worldH area centered on the
// origin, with varied sizes and aspect ratios. Overlaps are allowed; the
// world is meant to be explored with pan and zoom.
func World(seed int32, count int, worldW, worldH float64) []WorldTile {
	rnd := prng.New(seed)
	out := make([]WorldTile, 0, max(count, 0))
	for i := 0; i < count; i++ {
		base := 90 + math.Floor(rnd.Next()*170)
		ratio := 0.7 + rnd.Next()*0.9
		w, h := base, base
		if ratio >= 1 {
			w = math.Round(base * ratio)
		} else {
			h = math.Round(base / ratio)
		}
		x := math.Round(rnd.Next()*(worldW-w) - worldW/2)
		y := math.Round(rnd.Next()*(worldH-h) - worldH/2)
		out = append(out, WorldTile{ID: "tile-" + strconv.Itoa(i), Rect: vector.R(x, y, w, h)})
	}
	return out
}
