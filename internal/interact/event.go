/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"fmt"

	"tplstudio/internal/domain"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

type EventKind int

const (
	Down EventKind = iota + 1
	Move
	Up
	Cancel
)

func (k EventKind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

// ParseEventKind maps the wire name back to a kind.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range []EventKind{Down, Move, Up, Cancel} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	v, err := ParseEventKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// TargetKind says what a pointer down landed on. Hit testing belongs to the
// surface; the reducer trusts it.
type TargetKind int

const (
	Background TargetKind = iota
	Item
	ResizeHandle
	PoolTile
	Canvas
)

func (k TargetKind) String() string {
	switch k {
	case Item:
		return "item"
	case ResizeHandle:
		return "resize-handle"
	case PoolTile:
		return "pool-tile"
	case Canvas:
		return "canvas"
	}
	return "background"
}

type Target struct {
	Kind TargetKind
	// ID is the canvas item id for Item and ResizeHandle.
	ID   string
	Tile domain.PoolTile
}

// Event is one pointer event in screen coordinates. Target only matters on
// Down.
type Event struct {
	Kind    EventKind
	Pointer int
	Screen  vector.Pt
	Target  Target
	// Shift locks the aspect ratio while resizing.
	Shift bool
}

// Mutation is a change the surface applies after Reduce returns.
type Mutation interface{ mutation() }

type SetView struct{ View viewport.View }

type MoveItem struct {
	ID  string
	Pos vector.Pt
}

type ResizeItem struct {
	ID   string
	Size vector.Size
}

// RaiseItem brings an item to the top of the z-order.
type RaiseItem struct{ ID string }

// Select changes the selection. An empty ID clears it.
type Select struct{ ID string }

type ShowGhost struct {
	Tile domain.PoolTile
	At   vector.Pt
}

type MoveGhost struct{ At vector.Pt }

type HideGhost struct{}

// AddItem places a new canvas item. The surface assigns the id.
type AddItem struct {
	RefID string
	Kind  domain.ItemKind
	Rect  vector.Rect
}

// ShowGuides replaces the alignment guides; nil hides them.
type ShowGuides struct{ Guides []vector.Guide }

type CapturePointer struct{ Pointer int }

type ReleasePointer struct{ Pointer int }

func (SetView) mutation()        {}
func (MoveItem) mutation()       {}
func (ResizeItem) mutation()     {}
func (RaiseItem) mutation()      {}
func (Select) mutation()         {}
func (ShowGhost) mutation()      {}
func (MoveGhost) mutation()      {}
func (HideGhost) mutation()      {}
func (AddItem) mutation()        {}
func (ShowGuides) mutation()     {}
func (CapturePointer) mutation() {}
func (ReleasePointer) mutation() {}
