/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package vector holds the 2D primitives shared by layout, viewport and
// interaction code. All coordinates are float64 pixels.
package vector

import "math"

// Pt is a 2D point.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Pt) Add(q Pt) Pt        { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt        { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Scale(s float64) Pt { return Pt{p.X * s, p.Y * s} }
func (p Pt) Div(s float64) Pt   { return Pt{p.X / s, p.Y / s} }
func (p Pt) Len() float64       { return math.Hypot(p.X, p.Y) }
func (p Pt) Near(q Pt, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle defined by its top-left corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt       { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt       { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt    { return Pt{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Size() Size    { return Size{r.W, r.H} }
func (r Rect) Area() float64 { return math.Max(0, r.W) * math.Max(0, r.H) }

// Contains is an inclusive bounds test.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// PointInRect is Contains written as a free function.
func PointInRect(p Pt, r Rect) bool { return r.Contains(p) }

// ContainsRect reports whether o lies entirely within r (edges inclusive).
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Inset returns r shrunk by dx,dy on every side. Negative values grow it.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Grow is Inset with the sign flipped.
func (r Rect) Grow(d float64) Rect { return r.Inset(-d, -d) }

func (r Rect) Translate(dx, dy float64) Rect { return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H} }

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Overlaps is the collision test used by the layout engines. Rectangles are
// closed, so touching edges count as overlap.
func Overlaps(a, b Rect) bool {
	return !(a.X+a.W < b.X || a.X > b.X+b.W || a.Y+a.H < b.Y || a.Y > b.Y+b.H)
}

// Intersects is the open form: shared edges do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X && r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Intersection returns the overlapping region, or a zero Rect.
func (r Rect) Intersection(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.X+r.W, o.X+o.W)
	y1 := math.Min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// OverlapArea sums the pairwise intersection areas of rs.
func OverlapArea(rs []Rect) float64 {
	var sum float64
	for i := 0; i < len(rs); i++ {
		for j := i + 1; j < len(rs); j++ {
			sum += rs[i].Intersection(rs[j]).Area()
		}
	}
	return sum
}

// BoundsOf returns the union of rs and false when rs is empty.
func BoundsOf(rs []Rect) (Rect, bool) {
	if len(rs) == 0 {
		return Rect{}, false
	}
	b := rs[0]
	for _, r := range rs[1:] {
		b = b.Union(r)
	}
	return b, true
}

// Clamp limits n to [lo, hi]. When lo > hi, lo wins.
func Clamp(n, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, n)) }

// ClampRectTo moves r (keeping its size) so that it lies within bounds.
// A rect larger than bounds is pinned to the bounds' top-left corner.
func ClampRectTo(r, bounds Rect) Rect {
	r.X = Clamp(r.X, bounds.X, bounds.X+bounds.W-r.W)
	r.Y = Clamp(r.Y, bounds.Y, bounds.Y+bounds.H-r.H)
	return r
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ApplyRect maps an axis-aligned rect through a scale+translate transform.
// Rotation or shear terms are ignored.
func (m Affine2D) ApplyRect(r Rect) Rect {
	p := m.Apply(r.Min())
	return Rect{X: p.X, Y: p.Y, W: r.W * m.A, H: r.H * m.D}
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }

// FloatRound rounds v to n decimal places.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
