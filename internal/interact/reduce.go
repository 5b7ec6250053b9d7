/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"math"

	"tplstudio/internal/domain"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

const (
	// EdgeInset keeps canvas items off the canvas border.
	EdgeInset = 10
	// HandleSize is the side of the square resize hit region at an item's
	// bottom-right corner.
	HandleSize = 14
)

// GhostOffset keeps the ghost beside the cursor instead of under it.
var GhostOffset = vector.Pt{X: 12, Y: 12}

// DefaultMinItemSize is the smallest size a resize can reach.
var DefaultMinItemSize = vector.Size{W: 60, H: 40}

// DropSize is the size of a canvas item created by dropping a pool tile.
func DropSize(kind domain.ItemKind) vector.Size {
	switch kind {
	case domain.KindAudio:
		return vector.Size{W: 240, H: 96}
	case domain.KindText:
		return vector.Size{W: 220, H: 140}
	}
	return vector.Size{W: 240, H: 160}
}

// World is the read-only side of a surface that Reduce consults.
type World interface {
	View() viewport.View
	// CanvasRect is the canvas in world coordinates. Item rects are local
	// to it.
	CanvasRect() vector.Rect
	// Item returns a live canvas item. Items whose reference no longer
	// resolves are reported missing.
	Item(id string) (domain.CanvasItem, bool)
	Reference(refID string) (domain.Reference, bool)
	MinItemSize() vector.Size
	// Snap aligns a moving item and returns the guides to show.
	Snap(id string, r vector.Rect) (vector.Rect, []vector.Guide)
}

// Reduce applies one pointer event. Events for a pointer that does not own
// the active gesture are ignored, as are moves and ups with no gesture. A
// gesture target that vanished mid-gesture turns moves into no-ops.
func Reduce(s Session, ev Event, w World) (Session, []Mutation) {
	if s.Mode == nil {
		s.Mode = Idle{}
	}
	switch ev.Kind {
	case Down:
		if !s.Active() {
			return down(s, ev, w)
		}
		if ev.Pointer != s.Pointer {
			return s, nil
		}
		// a second down from the owner means its up was lost
		s, muts := end(s, Event{Kind: Cancel, Pointer: ev.Pointer, Screen: ev.Screen}, w)
		s, more := down(s, ev, w)
		return s, append(muts, more...)
	case Move:
		if !s.Active() || ev.Pointer != s.Pointer {
			return s, nil
		}
		return move(s, ev, w)
	case Up, Cancel:
		if !s.Active() || ev.Pointer != s.Pointer {
			return s, nil
		}
		return end(s, ev, w)
	}
	return s, nil
}

func down(s Session, ev Event, w World) (Session, []Mutation) {
	switch ev.Target.Kind {
	case Item, ResizeHandle:
		it, ok := w.Item(ev.Target.ID)
		if !ok {
			return s, nil
		}
		if ev.Target.Kind == Item {
			s.Mode = DraggingItem{ID: it.ID, Start: ev.Screen, StartPos: it.Min()}
		} else {
			s.Mode = Resizing{ID: it.ID, Start: ev.Screen, StartSize: it.Size()}
		}
		s.Pointer = ev.Pointer
		s.Selected = it.ID
		return s, []Mutation{CapturePointer{Pointer: ev.Pointer}, RaiseItem{ID: it.ID}, Select{ID: it.ID}}

	case PoolTile:
		at := ev.Screen.Add(GhostOffset)
		s.Mode = DraggingFromPool{Tile: ev.Target.Tile, Start: ev.Screen, Ghost: at}
		s.Pointer = ev.Pointer
		return s, []Mutation{CapturePointer{Pointer: ev.Pointer}, ShowGhost{Tile: ev.Target.Tile, At: at}}

	case Canvas:
		if s.Selected == "" {
			return s, nil
		}
		s.Selected = ""
		return s, []Mutation{Select{}}
	}

	s.Mode = Panning{Start: ev.Screen, StartView: w.View()}
	s.Pointer = ev.Pointer
	muts := []Mutation{CapturePointer{Pointer: ev.Pointer}}
	if s.Selected != "" {
		s.Selected = ""
		muts = append(muts, Select{})
	}
	return s, muts
}

func move(s Session, ev Event, w World) (Session, []Mutation) {
	switch m := s.Mode.(type) {
	case Panning:
		d := ev.Screen.Sub(m.Start)
		v := m.StartView
		v.X += d.X
		v.Y += d.Y
		return s, []Mutation{SetView{View: v}}

	case DraggingItem:
		it, ok := w.Item(m.ID)
		if !ok {
			return s, nil
		}
		d := ev.Screen.Sub(m.Start).Div(scaleOf(w))
		r := vector.R(m.StartPos.X+d.X, m.StartPos.Y+d.Y, it.W, it.H)
		r, guides := w.Snap(it.ID, r)
		r = clampItem(r, w.CanvasRect())
		return s, []Mutation{MoveItem{ID: it.ID, Pos: r.Min()}, ShowGuides{Guides: guides}}

	case Resizing:
		it, ok := w.Item(m.ID)
		if !ok {
			return s, nil
		}
		d := ev.Screen.Sub(m.Start).Div(scaleOf(w))
		size := resize(m.StartSize, d, it.Min(), w.CanvasRect(), w.MinItemSize(), ev.Shift)
		return s, []Mutation{ResizeItem{ID: it.ID, Size: size}}

	case DraggingFromPool:
		m.Ghost = ev.Screen.Add(GhostOffset)
		s.Mode = m
		return s, []Mutation{MoveGhost{At: m.Ghost}}
	}
	return s, nil
}

// end finishes the gesture. Live updates are already committed, so only a
// pool drag released over the canvas adds anything.
func end(s Session, ev Event, w World) (Session, []Mutation) {
	var muts []Mutation
	switch m := s.Mode.(type) {
	case DraggingItem:
		muts = append(muts, ShowGuides{})
	case DraggingFromPool:
		if ev.Kind == Up {
			if add, ok := drop(m.Tile, ev.Screen, w); ok {
				muts = append(muts, add)
			}
		}
		muts = append(muts, HideGhost{})
	}
	muts = append(muts, ReleasePointer{Pointer: s.Pointer})
	s.Mode = Idle{}
	s.Pointer = 0
	return s, muts
}

func drop(tile domain.PoolTile, screen vector.Pt, w World) (AddItem, bool) {
	c := w.CanvasRect()
	local := w.View().ScreenToWorld(screen).Sub(c.Min())
	if !vector.PointInRect(local, vector.R(0, 0, c.W, c.H)) {
		return AddItem{}, false
	}
	ref, ok := w.Reference(tile.RefID)
	if !ok {
		return AddItem{}, false
	}
	kind := domain.ItemKindFor(ref)
	size := DropSize(kind)
	x := vector.Clamp(local.X-size.W/2, EdgeInset, c.W-size.W-EdgeInset)
	y := vector.Clamp(local.Y-size.H/2, EdgeInset, c.H-size.H-EdgeInset)
	return AddItem{RefID: tile.RefID, Kind: kind, Rect: vector.R(x, y, size.W, size.H)}, true
}

// clampItem keeps a canvas-local rect inside the canvas minus EdgeInset.
func clampItem(r, canvas vector.Rect) vector.Rect {
	r.X = vector.Clamp(r.X, EdgeInset, canvas.W-r.W-EdgeInset)
	r.Y = vector.Clamp(r.Y, EdgeInset, canvas.H-r.H-EdgeInset)
	return r
}

// resize grows from the top-left corner at pos. With lock the height follows
// the width at the starting aspect ratio, also when the minimum size or the
// space left in the canvas stops the gesture. The result never exceeds that
// space and never drops below the minimum size.
func resize(start vector.Size, d, pos vector.Pt, canvas vector.Rect, minSize vector.Size, lock bool) vector.Size {
	maxW := canvas.W - EdgeInset - pos.X
	maxH := canvas.H - EdgeInset - pos.Y
	w := start.W + d.X
	h := start.H + d.Y
	if lock && start.W > 0 && start.H > 0 {
		ratio := start.H / start.W
		// width range that keeps both sides within the minimum and the room left
		lo := math.Max(minSize.W, minSize.H/ratio)
		hi := math.Min(maxW, maxH/ratio)
		if lo <= hi {
			w = vector.Clamp(w, lo, hi)
			return vector.Size{W: w, H: w * ratio}
		}
		// the ratio cannot be kept here; clamp each side on its own
		h = w * ratio
	}
	w = math.Max(minSize.W, math.Min(w, maxW))
	h = math.Max(minSize.H, math.Min(h, maxH))
	return vector.Size{W: w, H: h}
}

func scaleOf(w World) float64 {
	if s := w.View().Scale; s > 0 {
		return s
	}
	return 1
}
