/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport keeps the pan/zoom transform between screen pixels and
// world coordinates.
package viewport

import (
	"math"

	"tplstudio/internal/vector"
)

// Zoom limits and fit parameters used when Options leaves them unset.
const (
	MinZoom    = 0.25
	MaxZoom    = 2.2
	FitBoost   = 1.3
	FitPadding = 48

	// DefaultWidth and DefaultHeight stand in for a viewport that has not
	// been measured yet.
	DefaultWidth  = 1200
	DefaultHeight = 700

	wheelStep = 1.08
)

// View is the transform screen = world*Scale + (X, Y).
type View struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// IdentityView is the untransformed view.
var IdentityView = View{Scale: 1}

func (v View) ScreenToWorld(p vector.Pt) vector.Pt {
	return vector.Pt{X: (p.X - v.X) / v.Scale, Y: (p.Y - v.Y) / v.Scale}
}

func (v View) WorldToScreen(p vector.Pt) vector.Pt {
	return vector.Pt{X: p.X*v.Scale + v.X, Y: p.Y*v.Scale + v.Y}
}

// Affine returns the world to screen matrix.
func (v View) Affine() vector.Affine2D {
	return vector.Translate(v.X, v.Y).Mul(vector.Scale(v.Scale, v.Scale))
}

// Options configures a Controller. Zero values use the package constants.
type Options struct {
	MinZoom    float64
	MaxZoom    float64
	FitBoost   float64
	FitPadding float64
}

func (o Options) withDefaults() Options {
	if o.MinZoom <= 0 {
		o.MinZoom = MinZoom
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = MaxZoom
	}
	if o.MaxZoom < o.MinZoom {
		o.MaxZoom = o.MinZoom
	}
	if o.FitBoost <= 0 {
		o.FitBoost = FitBoost
	}
	if o.FitPadding < 0 {
		o.FitPadding = 0
	} else if o.FitPadding == 0 {
		o.FitPadding = FitPadding
	}
	return o
}

// Controller owns the current view of one surface. It is not safe for
// concurrent use.
type Controller struct {
	opts   Options
	view   View
	def    *View
	vw, vh float64
}

func New(opts Options) *Controller {
	return &Controller{opts: opts.withDefaults(), view: IdentityView, vw: DefaultWidth, vh: DefaultHeight}
}

func (c *Controller) View() View { return c.view }

// SetView replaces the view, clamping its scale into the zoom limits.
func (c *Controller) SetView(v View) {
	if v.Scale <= 0 || math.IsNaN(v.Scale) {
		v.Scale = 1
	}
	v.Scale = vector.Clamp(v.Scale, c.opts.MinZoom, c.opts.MaxZoom)
	c.view = v
}

func (c *Controller) Limits() (lo, hi float64) { return c.opts.MinZoom, c.opts.MaxZoom }

// SetViewportSize records the measured viewport. A zero or negative
// dimension falls back to the 1200x700 default.
func (c *Controller) SetViewportSize(w, h float64) {
	if w <= 0 || math.IsNaN(w) {
		w = DefaultWidth
	}
	if h <= 0 || math.IsNaN(h) {
		h = DefaultHeight
	}
	c.vw, c.vh = w, h
}

func (c *Controller) ViewportSize() (float64, float64) { return c.vw, c.vh }

// Pan moves the view by a screen delta. The zoom level plays no part.
func (c *Controller) Pan(dx, dy float64) {
	c.view.X += dx
	c.view.Y += dy
}

// ZoomAt scales by factor while keeping the world point under p fixed on
// screen.
func (c *Controller) ZoomAt(p vector.Pt, factor float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	before := c.view.ScreenToWorld(p)
	next := vector.Clamp(c.view.Scale*factor, c.opts.MinZoom, c.opts.MaxZoom)
	c.view = View{
		X:     p.X - before.X*next,
		Y:     p.Y - before.Y*next,
		Scale: next,
	}
}

// WheelFactor converts a wheel delta into a zoom factor: scrolling up
// (negative deltaY) zooms in by one step.
func WheelFactor(deltaY float64) float64 {
	switch {
	case deltaY < 0:
		return wheelStep
	case deltaY > 0:
		return 1 / wheelStep
	}
	return 1
}

// Wheel applies one wheel notch at p.
func (c *Controller) Wheel(p vector.Pt, deltaY float64) { c.ZoomAt(p, WheelFactor(deltaY)) }

// FitView computes the view that frames content with padding inside a
// viewport, zoomed in by the boost factor and centered. Empty content gives
// the identity view.
func (c *Controller) FitView(content []vector.Rect, viewportW, viewportH float64) View {
	if viewportW <= 0 {
		viewportW = c.vw
	}
	if viewportH <= 0 {
		viewportH = c.vh
	}
	b, ok := vector.BoundsOf(content)
	if !ok || b.W <= 0 || b.H <= 0 {
		return IdentityView
	}
	b = b.Grow(c.opts.FitPadding)
	s := math.Min(viewportW/b.W, viewportH/b.H) * c.opts.FitBoost
	s = vector.Clamp(s, c.opts.MinZoom, c.opts.MaxZoom)
	mid := b.Center()
	return View{
		X:     viewportW/2 - mid.X*s,
		Y:     viewportH/2 - mid.Y*s,
		Scale: s,
	}
}

// Fit applies FitView to the current viewport size.
func (c *Controller) Fit(content []vector.Rect) {
	c.view = c.FitView(content, c.vw, c.vh)
}

// SnapshotDefault remembers the current view as the one Reset returns to.
func (c *Controller) SnapshotDefault() {
	v := c.view
	c.def = &v
}

// HasDefault reports whether a default view was captured.
func (c *Controller) HasDefault() bool { return c.def != nil }

// Reset restores the default snapshot, or the identity view if none exists.
func (c *Controller) Reset() {
	if c.def == nil {
		c.view = IdentityView
		return
	}
	c.view = *c.def
}
