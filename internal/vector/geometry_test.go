/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestOverlapsTouchingEdgesCount(t *testing.T) {
	a := R(0, 0, 10, 10)
	cases := []struct {
		b    Rect
		want bool
	}{
		{R(10, 0, 5, 5), true},
		{R(0, 10, 5, 5), true},
		{R(10.01, 0, 5, 5), false},
		{R(-6, -6, 5, 5), false},
		{R(2, 2, 2, 2), true},
		{R(-5, -5, 30, 30), true},
	}
	for _, c := range cases {
		if got := Overlaps(a, c.b); got != c.want {
			t.Fatalf("Overlaps(%v,%v)=%v want %v", a, c.b, got, c.want)
		}
		if got := Overlaps(c.b, a); got != c.want {
			t.Fatalf("Overlaps is not symmetric for %v", c.b)
		}
	}
	if a.Intersects(R(10, 0, 5, 5)) {
		t.Fatalf("open form must not count shared edges")
	}
}

func TestPointInRectInclusive(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !PointInRect(Pt{10, 20}, r) || !PointInRect(Pt{110, 70}, r) {
		t.Fatalf("corner points should be contained")
	}
	if PointInRect(Pt{110.5, 70}, r) {
		t.Fatalf("point outside accepted")
	}
	in := r.Inset(5, 5)
	if in != R(15, 25, 90, 40) {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 || Clamp(-1, 0, 10) != 0 || Clamp(11, 0, 10) != 10 {
		t.Fatalf("basic clamp broken")
	}
	// inverted range: lower bound wins
	if got := Clamp(3, 10, 0); got != 10 {
		t.Fatalf("Clamp(3,10,0)=%v want 10", got)
	}
}

func TestClampRectToIdempotent(t *testing.T) {
	b := R(0, 0, 100, 100)
	r := ClampRectTo(R(90, -20, 30, 30), b)
	if r != R(70, 0, 30, 30) {
		t.Fatalf("clamped = %+v", r)
	}
	if again := ClampRectTo(r, b); again != r {
		t.Fatalf("clamp not idempotent: %+v", again)
	}
	big := ClampRectTo(R(40, 40, 200, 50), b)
	if big.X != 0 {
		t.Fatalf("oversized rect should pin to left edge: %+v", big)
	}
}

func TestBoundsAndOverlapArea(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Fatalf("empty bounds should report false")
	}
	rs := []Rect{R(0, 0, 10, 10), R(5, 5, 10, 10), R(40, 0, 5, 5)}
	b, _ := BoundsOf(rs)
	if b != R(0, 0, 45, 15) {
		t.Fatalf("bounds = %+v", b)
	}
	if got := OverlapArea(rs); got != 25 {
		t.Fatalf("overlap area = %v want 25", got)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	r := m.ApplyRect(R(1, 1, 4, 2))
	if r != R(12, 8, 8, 6) {
		t.Fatalf("ApplyRect = %+v", r)
	}
}
