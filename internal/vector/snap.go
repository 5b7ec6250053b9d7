/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// SnapOptions controls alignment snapping of a dragged canvas item against
// its neighbours and the canvas frame.
type SnapOptions struct {
	// Threshold is the maximum distance at which snapping occurs. Defaults to 6.
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Guide is a line to draw while a snap is active. Vertical guides sit at
// x == Position, horizontal ones at y == Position.
type Guide struct {
	Vertical bool    `json:"vertical"`
	Center   bool    `json:"center,omitempty"`
	Position float64 `json:"position"`
	From     Pt      `json:"from"`
	To       Pt      `json:"to"`
}

type snapBest struct {
	delta, dist float64
	guide       Guide
	ok          bool
}

func (b *snapBest) consider(delta, threshold float64, g Guide) {
	d := math.Abs(delta)
	if d > threshold || (b.ok && d >= b.dist) {
		return
	}
	*b = snapBest{delta: delta, dist: d, guide: g, ok: true}
}

// Snap aligns moving to the nearest anchor edge or center on each axis
// independently and returns the adjusted rect plus the guides to render.
// Sizes never change.
func Snap(moving Rect, anchors []Rect, opts SnapOptions) (Rect, []Guide) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var bx, by snapBest
	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aCX := a.X, a.X+a.W, a.X+a.W/2
		aT, aB, aCY := a.Y, a.Y+a.H, a.Y+a.H/2
		vg := func(x float64, center bool) Guide {
			return Guide{Vertical: true, Center: center, Position: x,
				From: Pt{x, math.Min(moving.Y, a.Y)}, To: Pt{x, math.Max(mB, aB)}}
		}
		hg := func(y float64, center bool) Guide {
			return Guide{Center: center, Position: y,
				From: Pt{math.Min(moving.X, a.X), y}, To: Pt{math.Max(mR, aR), y}}
		}
		if opts.SnapToEdges {
			bx.consider(mL-aL, opts.Threshold, vg(aL, false))
			bx.consider(mR-aR, opts.Threshold, vg(aR, false))
			bx.consider(mL-aR, opts.Threshold, vg(aR, false))
			bx.consider(mR-aL, opts.Threshold, vg(aL, false))
			by.consider(mT-aT, opts.Threshold, hg(aT, false))
			by.consider(mB-aB, opts.Threshold, hg(aB, false))
			by.consider(mT-aB, opts.Threshold, hg(aB, false))
			by.consider(mB-aT, opts.Threshold, hg(aT, false))
		}
		if opts.SnapToCenters {
			bx.consider(mCX-aCX, opts.Threshold, vg(aCX, true))
			by.consider(mCY-aCY, opts.Threshold, hg(aCY, true))
		}
	}

	out := moving
	var guides []Guide
	if bx.ok {
		out.X = FloatRound(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		out.Y = FloatRound(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return out, guides
}
