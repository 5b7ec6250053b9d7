/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestSnapToFrameEdges(t *testing.T) {
	frame := R(0, 0, 200, 100)
	moving := R(3, 4, 80, 40)

	snapped, guides := Snap(moving, []Rect{frame}, SnapOptions{Threshold: 6, SnapToEdges: true})
	if snapped.X != 0 || snapped.Y != 0 {
		t.Fatalf("expected snap to 0,0 got %+v", snapped)
	}
	var v, h bool
	for _, g := range guides {
		if g.Vertical && g.Position == 0 {
			v = true
		}
		if !g.Vertical && g.Position == 0 {
			h = true
		}
	}
	if !v || !h {
		t.Fatalf("missing guides: %+v", guides)
	}
	if snapped.W != moving.W || snapped.H != moving.H {
		t.Fatalf("snap must not resize")
	}
}

func TestSnapToCenters(t *testing.T) {
	frame := R(0, 0, 200, 100)
	moving := R(48, 17, 100, 60) // center (98,47) vs frame center (100,50)

	snapped, guides := Snap(moving, []Rect{frame}, SnapOptions{Threshold: 5, SnapToCenters: true})
	if snapped.X != 50 || snapped.Y != 20 {
		t.Fatalf("center snap = %+v", snapped)
	}
	if len(guides) != 2 || !guides[0].Center {
		t.Fatalf("guides = %+v", guides)
	}
}

func TestSnapOutsideThresholdIsNoop(t *testing.T) {
	moving := R(30, 30, 20, 20)
	snapped, guides := Snap(moving, []Rect{R(0, 0, 10, 10)}, SnapOptions{SnapToEdges: true})
	if snapped != moving || len(guides) != 0 {
		t.Fatalf("unexpected snap %+v %+v", snapped, guides)
	}
}

func TestSnapPicksNearestAnchor(t *testing.T) {
	moving := R(103, 0, 20, 20)
	anchors := []Rect{R(0, 200, 98, 10), R(0, 200, 101, 10)}
	snapped, _ := Snap(moving, anchors, SnapOptions{Threshold: 6, SnapToEdges: true})
	if snapped.X != 101 {
		t.Fatalf("expected abut to nearest edge 101, got %v", snapped.X)
	}
}
