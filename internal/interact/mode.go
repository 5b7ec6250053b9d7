/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact is the direct manipulation state machine of a
// composition surface. Reduce is pure: it reads the surface through World
// and returns the next Session plus the mutations the caller must apply, in
// order.
package interact

import (
	"tplstudio/internal/domain"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

// Mode is the active gesture. Exactly one variant is live at a time.
type Mode interface{ mode() }

// Idle means no gesture is in progress.
type Idle struct{}

// Panning moves the view with the background.
type Panning struct {
	Start     vector.Pt
	StartView viewport.View
}

// DraggingItem moves a canvas item.
type DraggingItem struct {
	ID       string
	Start    vector.Pt
	StartPos vector.Pt
}

// Resizing grows or shrinks a canvas item from its bottom-right handle. The
// top-left corner stays put.
type Resizing struct {
	ID        string
	Start     vector.Pt
	StartSize vector.Size
}

// DraggingFromPool carries a pool tile towards the canvas as a ghost.
type DraggingFromPool struct {
	Tile  domain.PoolTile
	Start vector.Pt
	Ghost vector.Pt
}

func (Idle) mode()             {}
func (Panning) mode()          {}
func (DraggingItem) mode()     {}
func (Resizing) mode()         {}
func (DraggingFromPool) mode() {}

// ModeName is a short label for logs and the wire state.
func ModeName(m Mode) string {
	switch m.(type) {
	case Panning:
		return "panning"
	case DraggingItem:
		return "dragging-item"
	case Resizing:
		return "resizing"
	case DraggingFromPool:
		return "dragging-from-pool"
	}
	return "idle"
}

// Session is the interaction state of one surface. Pointer is the id of the
// pointer that owns the active gesture; it is meaningless while Idle.
type Session struct {
	Mode     Mode
	Pointer  int
	Selected string
}

func NewSession() Session { return Session{Mode: Idle{}} }

// Active reports whether a gesture is in progress.
func (s Session) Active() bool {
	switch s.Mode.(type) {
	case nil, Idle:
		return false
	}
	return true
}
