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

	"tplstudio/internal/vector"
)

// RelaxOptions tunes the separation pass. Zero values use the defaults.
type RelaxOptions struct {
	// Factor of each tile's smaller side that counts towards the minimum
	// center distance of a pair. Default 0.28.
	Factor float64
	// Gap is the constant added to every pair's minimum distance. Default 12,
	// negative means none.
	Gap float64
}

func (o RelaxOptions) withDefaults() RelaxOptions {
	if o.Factor <= 0 {
		o.Factor = 0.28
	}
	if o.Gap < 0 {
		o.Gap = 0
	} else if o.Gap == 0 {
		o.Gap = 12
	}
	return o
}

// Relax pushes apart tiles whose centers are closer than their minimum
// separation and keeps every tile inside [pad, stage-pad-size]. Each pass
// measures all pairs against the positions at the start of the pass, so the
// result does not depend on tile order. The input is not modified.
//
// This is a soft declutter: dense inputs may still overlap afterwards.
func Relax(tiles []vector.Rect, stageW, stageH, pad float64, passes int, opts RelaxOptions) []vector.Rect {
	o := opts.withDefaults()
	out := make([]vector.Rect, len(tiles))
	for i, t := range tiles {
		out[i] = clampInto(t, stageW, stageH, pad)
	}
	if len(out) < 2 {
		return out
	}

	dx := make([]float64, len(out))
	dy := make([]float64, len(out))
	for p := 0; p < passes; p++ {
		clear(dx)
		clear(dy)
		moved := false
		for i := 0; i < len(out); i++ {
			a := out[i]
			ca := a.Center()
			for j := i + 1; j < len(out); j++ {
				b := out[j]
				cb := b.Center()
				minSep := o.Factor*math.Min(a.W, a.H) + o.Factor*math.Min(b.W, b.H) + o.Gap
				vx, vy := cb.X-ca.X, cb.Y-ca.Y
				d := math.Hypot(vx, vy)
				if d >= minSep {
					continue
				}
				var ux, uy float64
				if d < 1e-9 {
					// coincident centers: pick a direction from the pair index
					ang := float64(i*31+j) * GoldenAngle
					ux, uy = math.Cos(ang), math.Sin(ang)
				} else {
					ux, uy = vx/d, vy/d
				}
				push := (minSep - d) / 2
				dx[i] -= ux * push
				dy[i] -= uy * push
				dx[j] += ux * push
				dy[j] += uy * push
				moved = true
			}
		}
		if !moved {
			break
		}
		for i := range out {
			out[i] = clampInto(out[i].Translate(dx[i], dy[i]), stageW, stageH, pad)
		}
	}
	return out
}

func clampInto(r vector.Rect, stageW, stageH, pad float64) vector.Rect {
	r.X = vector.Clamp(r.X, pad, stageW-pad-r.W)
	r.Y = vector.Clamp(r.Y, pad, stageH-pad-r.H)
	return r
}

// Crowding is the total pairwise overlap area, a cheap measure of clutter.
func Crowding(tiles []vector.Rect) float64 { return vector.OverlapArea(tiles) }
