/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"tplstudio/internal/vector"
)

const eps = 1e-9

func TestZoomAtKeepsCursorPoint(t *testing.T) {
	c := New(Options{})
	p := vector.Pt{X: 100, Y: 100}
	before := c.View().ScreenToWorld(p)

	c.ZoomAt(p, 2)
	v := c.View()
	if v.Scale != 2 {
		t.Fatalf("scale = %v want 2", v.Scale)
	}
	if got := v.ScreenToWorld(p); !got.Near(before, eps) {
		t.Fatalf("world under cursor moved: %+v -> %+v", before, got)
	}
	if v.X != -100 || v.Y != -100 {
		t.Fatalf("translation = %v,%v", v.X, v.Y)
	}
}

func TestZoomAtInvariantAcrossViews(t *testing.T) {
	c := New(Options{})
	c.SetView(View{X: -37.5, Y: 210, Scale: 0.8})
	for _, f := range []float64{1.08, 1 / 1.08, 3, 0.1} {
		p := vector.Pt{X: 412, Y: 95}
		w := c.View().ScreenToWorld(p)
		c.ZoomAt(p, f)
		if got := c.View().WorldToScreen(w); !got.Near(p, 1e-6) {
			t.Fatalf("factor %v: cursor drifted to %+v", f, got)
		}
		if s := c.View().Scale; s < MinZoom || s > MaxZoom {
			t.Fatalf("scale %v escaped limits", s)
		}
	}
}

func TestPanIgnoresScale(t *testing.T) {
	for _, s := range []float64{0.25, 1, 2.2} {
		c := New(Options{})
		c.SetView(View{X: 10, Y: 20, Scale: s})
		c.Pan(15, -7)
		if v := c.View(); v.X != 25 || v.Y != 13 || v.Scale != s {
			t.Fatalf("scale %v: view after pan %+v", s, v)
		}
	}
}

func TestWheelFactor(t *testing.T) {
	if WheelFactor(-3) != 1.08 || math.Abs(WheelFactor(3)-1/1.08) > eps || WheelFactor(0) != 1 {
		t.Fatalf("wheel factors: %v %v %v", WheelFactor(-3), WheelFactor(3), WheelFactor(0))
	}
}

func TestFitCentersContent(t *testing.T) {
	c := New(Options{})
	c.SetViewportSize(1000, 600)
	content := []vector.Rect{vector.R(0, 0, 800, 400), vector.R(600, 200, 200, 200)}
	c.Fit(content)
	v := c.View()

	// padded bbox is 896x496, so width limits
	want := 1000.0 / 896 * 1.3
	if math.Abs(v.Scale-want) > eps {
		t.Fatalf("scale = %v want %v", v.Scale, want)
	}
	mid := v.WorldToScreen(vector.Pt{X: 400, Y: 200})
	if !mid.Near(vector.Pt{X: 500, Y: 300}, 1e-6) {
		t.Fatalf("content center lands at %+v", mid)
	}
}

func TestFitClampsToZoomLimits(t *testing.T) {
	c := New(Options{})
	tiny := c.FitView([]vector.Rect{vector.R(0, 0, 1, 1)}, 1200, 700)
	if tiny.Scale != MaxZoom {
		t.Fatalf("tiny content scale = %v", tiny.Scale)
	}
	huge := c.FitView([]vector.Rect{vector.R(0, 0, 50000, 50000)}, 1200, 700)
	if huge.Scale != MinZoom {
		t.Fatalf("huge content scale = %v", huge.Scale)
	}
	if c.FitView(nil, 1200, 700) != IdentityView {
		t.Fatalf("empty fit should be identity")
	}
}

func TestResetRestoresSnapshot(t *testing.T) {
	c := New(Options{})
	c.Reset()
	if c.View() != IdentityView {
		t.Fatalf("reset without snapshot should be identity")
	}
	c.SetView(View{X: 5, Y: 6, Scale: 1.5})
	c.SnapshotDefault()
	c.Pan(100, 100)
	c.ZoomAt(vector.Pt{}, 0.5)
	c.Reset()
	if c.View() != (View{X: 5, Y: 6, Scale: 1.5}) {
		t.Fatalf("reset = %+v", c.View())
	}
}

func TestDegenerateViewportSize(t *testing.T) {
	c := New(Options{})
	c.SetViewportSize(0, 300)
	if w, h := c.ViewportSize(); w != DefaultWidth || h != 300 {
		t.Fatalf("viewport = %vx%v", w, h)
	}
}

func TestAffineMatchesView(t *testing.T) {
	v := View{X: 12, Y: -4, Scale: 1.75}
	p := vector.Pt{X: 33, Y: 21}
	if got := v.Affine().Apply(p); !got.Near(v.WorldToScreen(p), eps) {
		t.Fatalf("affine %+v vs view %+v", got, v.WorldToScreen(p))
	}
}
