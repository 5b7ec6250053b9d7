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

	"tplstudio/internal/prng"
	"tplstudio/internal/vector"
)

// GoldenAngle spreads successive points around a circle without ever
// repeating a pattern, whatever the item count.
var GoldenAngle = math.Pi * (3 - math.Sqrt(5))

// RadialOptions parameterizes the golden angle spiral. Zero values fall back
// to DefaultRadialOptions.
type RadialOptions struct {
	Pad        float64
	MinW, MaxW float64
	MinH, MaxH float64
	// AngleJitter is the maximum angular offset per item, in radians.
	AngleJitter float64
	// Power shapes radial progress; below 1 keeps early items near the center.
	Power  float64
	Passes int
	Relax  RelaxOptions
}

var DefaultRadialOptions = RadialOptions{
	Pad:         24,
	MinW:        140,
	MaxW:        260,
	MinH:        100,
	MaxH:        190,
	AngleJitter: 0.35,
	Power:       0.55,
	Passes:      6,
}

func (o RadialOptions) withDefaults() RadialOptions {
	d := DefaultRadialOptions
	if o.Pad <= 0 {
		o.Pad = d.Pad
	}
	if o.MinW <= 0 {
		o.MinW = d.MinW
	}
	if o.MaxW < o.MinW {
		o.MaxW = max(d.MaxW, o.MinW)
	}
	if o.MinH <= 0 {
		o.MinH = d.MinH
	}
	if o.MaxH < o.MinH {
		o.MaxH = max(d.MaxH, o.MinH)
	}
	if o.AngleJitter < 0 {
		o.AngleJitter = 0
	} else if o.AngleJitter == 0 {
		o.AngleJitter = d.AngleJitter
	}
	if o.Power <= 0 {
		o.Power = d.Power
	}
	if o.Passes <= 0 {
		o.Passes = d.Passes
	}
	return o
}

// Radial lays items on a golden angle spiral around the stage center, with
// seeded size and angle jitter, then relaxes the result. It drives the home
// media wall.
func Radial[T any](seed int32, items []T, stageW, stageH float64, opts RadialOptions) []Placed[T] {
	o := opts.withDefaults()
	n := len(items)
	if n == 0 {
		return nil
	}
	rnd := prng.New(seed)

	// Tiles shrink to fit the padded stage. A stage too small for the
	// padding itself drops it.
	pad := o.Pad
	if stageW <= 2*pad || stageH <= 2*pad {
		pad = 0
	}
	capW, capH := math.Max(0, stageW-2*pad), math.Max(0, stageH-2*pad)

	cx, cy := stageW/2, stageH/2
	rx := math.Max(0, stageW/2-pad-math.Min(o.MaxW, capW)/2)
	ry := math.Max(0, stageH/2-pad-math.Min(o.MaxH, capH)/2)

	rects := make([]vector.Rect, n)
	for i := range items {
		w := math.Min(math.Round(o.MinW+rnd.Next()*(o.MaxW-o.MinW)), capW)
		h := math.Min(math.Round(o.MinH+rnd.Next()*(o.MaxH-o.MinH)), capH)
		jitter := (rnd.Next()*2 - 1) * o.AngleJitter
		spread := 0.94 + rnd.Next()*0.12

		t := 0.0
		if n > 1 {
			t = math.Pow(float64(i)/float64(n-1), o.Power)
		}
		rf := math.Min(1, t*spread)
		ang := float64(i)*GoldenAngle + jitter
		px := cx + math.Cos(ang)*rx*rf
		py := cy + math.Sin(ang)*ry*rf

		rects[i] = clampInto(vector.R(math.Round(px-w/2), math.Round(py-h/2), w, h), stageW, stageH, pad)
	}

	rects = Relax(rects, stageW, stageH, pad, o.Passes, o.Relax)

	out := make([]Placed[T], n)
	for i, it := range items {
		out[i] = Placed[T]{Item: it, Rect: rects[i]}
	}
	return out
}
