/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout places rectangles on a stage. Every engine is a pure
// function of its inputs and a seed, so a layout is reproducible until the
// caller picks a new seed.
package layout

import (
	"math"

	"tplstudio/internal/prng"
	"tplstudio/internal/vector"
)

// ScatterOptions parameterizes rejection sampling. Zero values fall back to
// DefaultScatterOptions.
type ScatterOptions struct {
	MinW, MaxW float64
	MinH, MaxH float64
	// Margin keeps candidates away from the stage border.
	Margin float64
	// Gap pads already placed tiles on every side during the overlap test.
	Gap float64
	// MaxAttempts is the candidate budget shared by all items. Once spent,
	// the remaining items are not placed.
	MaxAttempts int
}

// DefaultScatterOptions match the pool cards of the composition page.
var DefaultScatterOptions = ScatterOptions{
	MinW:        120,
	MaxW:        190,
	MinH:        90,
	MaxH:        140,
	Margin:      10,
	Gap:         6,
	MaxAttempts: 4000,
}

func (o ScatterOptions) withDefaults() ScatterOptions {
	d := DefaultScatterOptions
	if o.MinW <= 0 {
		o.MinW = d.MinW
	}
	if o.MaxW <= 0 {
		o.MaxW = d.MaxW
	}
	if o.MinH <= 0 {
		o.MinH = d.MinH
	}
	if o.MaxH <= 0 {
		o.MaxH = d.MaxH
	}
	if o.MaxW < o.MinW {
		o.MaxW = o.MinW
	}
	if o.MaxH < o.MinH {
		o.MaxH = o.MinH
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if o.Gap < 0 {
		o.Gap = 0
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	return o
}

// Placed pairs an input item with its rect.
type Placed[T any] struct {
	Item T
	vector.Rect
}

// ScatterStats describes how a scatter went. Exhausted means the attempt
// budget ran out before every requested item found a spot.
type ScatterStats struct {
	Requested int  `json:"requested"`
	Placed    int  `json:"placed"`
	Attempts  int  `json:"attempts"`
	Exhausted bool `json:"exhausted,omitempty"`
}

// Scatter places up to min(count, len(items)) items in input order. Each item
// draws a size, then candidate positions until one avoids every rect in
// avoid and every tile placed so far (padded by Gap). An item is never
// retried after a later item succeeds. The result may be shorter than
// requested; that is a degraded layout, not an error.
func Scatter[T any](seed int32, items []T, count int, stageW, stageH float64, avoid []vector.Rect, opts ScatterOptions) ([]Placed[T], ScatterStats) {
	o := opts.withDefaults()
	n := min(count, len(items))
	if n < 0 {
		n = 0
	}
	st := ScatterStats{Requested: n}
	if n == 0 {
		return nil, st
	}

	rnd := prng.New(seed)
	out := make([]Placed[T], 0, n)
	padded := make([]vector.Rect, 0, n)

	fits := func(r vector.Rect) bool {
		for _, a := range avoid {
			if vector.Overlaps(r, a) {
				return false
			}
		}
		for _, p := range padded {
			if vector.Overlaps(r, p) {
				return false
			}
		}
		return true
	}

	for i := 0; i < n; i++ {
		w := math.Round(o.MinW + rnd.Next()*(o.MaxW-o.MinW))
		h := math.Round(o.MinH + rnd.Next()*(o.MaxH-o.MinH))
		spanX := stageW - w - 2*o.Margin
		spanY := stageH - h - 2*o.Margin
		if spanX < 0 || spanY < 0 {
			// the stage cannot hold this size at all
			continue
		}

		placed := false
		for !placed && st.Attempts < o.MaxAttempts {
			st.Attempts++
			x := math.Min(math.Round(o.Margin+rnd.Next()*spanX), o.Margin+spanX)
			y := math.Min(math.Round(o.Margin+rnd.Next()*spanY), o.Margin+spanY)
			r := vector.R(x, y, w, h)
			if !fits(r) {
				continue
			}
			out = append(out, Placed[T]{Item: items[i], Rect: r})
			padded = append(padded, r.Grow(o.Gap))
			placed = true
		}
		if !placed {
			st.Exhausted = true
			break
		}
	}
	st.Placed = len(out)
	return out, st
}

// Rects strips the items from a scatter result.
func Rects[T any](ps []Placed[T]) []vector.Rect {
	out := make([]vector.Rect, len(ps))
	for i, p := range ps {
		out[i] = p.Rect
	}
	return out
}
