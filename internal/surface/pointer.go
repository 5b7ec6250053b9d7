/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"fmt"
	"log/slog"

	"tplstudio/internal/domain"
	"tplstudio/internal/interact"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

// Surface is the World the reducer reads.
var _ interact.World = (*Surface)(nil)

func (s *Surface) View() viewport.View { return s.view.View() }

func (s *Surface) CanvasRect() vector.Rect { return s.stage.Canvas }

func (s *Surface) MinItemSize() vector.Size { return s.opts.MinItemSize }

// Item returns a live canvas item.
func (s *Surface) Item(id string) (domain.CanvasItem, bool) {
	i := s.index(id)
	if i < 0 || !s.live(s.items[i]) {
		return domain.CanvasItem{}, false
	}
	return s.items[i], true
}

func (s *Surface) Reference(refID string) (domain.Reference, bool) { return s.cat.ByID(refID) }

// Snap aligns r against the canvas frame and the other live items when
// snapping is enabled.
func (s *Surface) Snap(id string, r vector.Rect) (vector.Rect, []vector.Guide) {
	if !s.opts.Snap.SnapToEdges && !s.opts.Snap.SnapToCenters {
		return r, nil
	}
	c := s.stage.Canvas
	anchors := []vector.Rect{vector.R(0, 0, c.W, c.H)}
	for _, it := range s.Items() {
		if it.ID != id {
			anchors = append(anchors, it.Rect)
		}
	}
	return vector.Snap(r, anchors, s.opts.Snap)
}

// PointerEvent is a raw pointer event in screen coordinates. The surface
// works out its target.
type PointerEvent struct {
	Kind    interact.EventKind `json:"kind"`
	Pointer int                `json:"pointer"`
	Screen  vector.Pt          `json:"screen"`
	Shift   bool               `json:"shift,omitempty"`
}

// HitTest resolves what lies under a screen point: a canvas item's resize
// handle, the item itself (front-most first), the empty canvas, a pool tile
// or the background. Items and tiles whose reference no longer resolves are
// transparent.
func (s *Surface) HitTest(screen vector.Pt) interact.Target {
	p := s.View().ScreenToWorld(screen)
	c := s.stage.Canvas
	if c.Contains(p) {
		local := p.Sub(c.Min())
		for i := len(s.items) - 1; i >= 0; i-- {
			it := s.items[i]
			if !s.live(it) || !it.Contains(local) {
				continue
			}
			handle := vector.R(it.X+it.W-interact.HandleSize, it.Y+it.H-interact.HandleSize, interact.HandleSize, interact.HandleSize)
			if handle.Contains(local) {
				return interact.Target{Kind: interact.ResizeHandle, ID: it.ID}
			}
			return interact.Target{Kind: interact.Item, ID: it.ID}
		}
		return interact.Target{Kind: interact.Canvas}
	}
	for i := len(s.pool) - 1; i >= 0; i-- {
		t := s.pool[i]
		if _, ok := s.cat.ByID(t.RefID); !ok || !t.Contains(p) {
			continue
		}
		return interact.Target{Kind: interact.PoolTile, ID: t.ID, Tile: t}
	}
	return interact.Target{Kind: interact.Background}
}

// Dispatch feeds one pointer event through the reducer and applies the
// resulting mutations. It returns the mutations applied.
func (s *Surface) Dispatch(ev PointerEvent) []interact.Mutation {
	e := interact.Event{Kind: ev.Kind, Pointer: ev.Pointer, Screen: ev.Screen, Shift: ev.Shift}
	if ev.Kind == interact.Down {
		e.Target = s.HitTest(ev.Screen)
	}
	next, muts := interact.Reduce(s.session, e, s)
	s.session = next
	s.apply(muts)
	return muts
}

func (s *Surface) apply(muts []interact.Mutation) {
	for _, m := range muts {
		switch m := m.(type) {
		case interact.SetView:
			s.view.SetView(m.View)
		case interact.MoveItem:
			s.MoveItem(m.ID, m.Pos)
		case interact.ResizeItem:
			s.ResizeItem(m.ID, m.Size)
		case interact.RaiseItem:
			s.BringToFront(m.ID)
		case interact.Select:
			s.selected = m.ID
		case interact.ShowGhost:
			s.ghost = &Ghost{Tile: m.Tile, At: m.At}
		case interact.MoveGhost:
			if s.ghost != nil {
				s.ghost.At = m.At
			}
		case interact.HideGhost:
			s.ghost = nil
		case interact.AddItem:
			s.addItem(m.RefID, m.Kind, m.Rect)
		case interact.ShowGuides:
			s.guides = m.Guides
		case interact.CapturePointer:
			s.captured = m.Pointer
		case interact.ReleasePointer:
			if s.captured == m.Pointer {
				s.captured = 0
			}
		default:
			s.log.Warn("unhandled mutation", slog.String("type", fmt.Sprintf("%T", m)))
		}
	}
}

// Captured is the pointer holding capture, 0 for none.
func (s *Surface) Captured() int { return s.captured }

// Wheel zooms around the screen point.
func (s *Surface) Wheel(screen vector.Pt, deltaY float64) { s.view.Wheel(screen, deltaY) }

// ResetView restores the view captured after the first layout.
func (s *Surface) ResetView() { s.view.Reset() }

// Key handles a keyboard shortcut and reports whether it was consumed.
// Escape cancels the gesture in progress and clears transient state, Space
// silences audio, Delete and Backspace remove the selected item.
func (s *Surface) Key(key string) bool {
	switch key {
	case "Escape", "Esc":
		s.cancelGesture()
		s.ghost = nil
		s.guides = nil
		s.selected = ""
		s.session.Selected = ""
		return true
	case " ", "Space":
		if s.opts.Audio != nil {
			s.opts.Audio.SilenceHard()
		}
		return true
	case "Delete", "Backspace":
		return s.RemoveSelected()
	}
	return false
}

func (s *Surface) cancelGesture() {
	if !s.session.Active() {
		return
	}
	ev := interact.Event{Kind: interact.Cancel, Pointer: s.session.Pointer}
	next, muts := interact.Reduce(s.session, ev, s)
	s.session = next
	s.apply(muts)
}
