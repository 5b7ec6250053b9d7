/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"time"

	"tplstudio/internal/vector"
)

// ItemKind is how a tile or canvas item is rendered.
type ItemKind string

const (
	KindImage ItemKind = "image"
	KindVideo ItemKind = "video"
	KindAudio ItemKind = "audio"
	KindText  ItemKind = "text"
)

// PoolKindFor picks the pool card kind for r. Pool cards preview images and
// videos; everything else, audio included, shows as a text card.
func PoolKindFor(r Reference) ItemKind {
	m, ok := r.PrimaryMedia()
	if !ok {
		return KindText
	}
	switch m.(type) {
	case Image:
		return KindImage
	case Video:
		return KindVideo
	case Audio:
		return KindText
	}
	return KindText
}

// ItemKindFor maps a reference's media onto every canvas kind, audio included.
func ItemKindFor(r Reference) ItemKind {
	m, ok := r.PrimaryMedia()
	if !ok {
		return KindText
	}
	switch m.(type) {
	case Image:
		return KindImage
	case Video:
		return KindVideo
	case Audio:
		return KindAudio
	}
	return KindText
}

// PoolTile is a disposable, scattered preview of a reference. Tiles are
// rebuilt whenever the seed, the stage or the catalog changes.
type PoolTile struct {
	ID    string   `json:"id"`
	RefID string   `json:"refId"`
	Kind  ItemKind `json:"kind"`
	vector.Rect
}

// CanvasItem is a user placed element of the composition. Its rect is in
// canvas-local coordinates.
type CanvasItem struct {
	ID    string   `json:"id"`
	RefID string   `json:"refId"`
	Kind  ItemKind `json:"kind"`
	vector.Rect
}

// SnapshotVersion is the current export format version.
const SnapshotVersion = 1

// Snapshot is the flat export of a composition.
type Snapshot struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Items     []SnapshotItem `json:"items"`
}

type SnapshotItem struct {
	RefID string   `json:"refId"`
	Kind  ItemKind `json:"kind"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	W     float64  `json:"w"`
	H     float64  `json:"h"`
}

func (s SnapshotItem) Rect() vector.Rect { return vector.R(s.X, s.Y, s.W, s.H) }

// NewSnapshot flattens items in z-order (back to front).
func NewSnapshot(items []CanvasItem, at time.Time) Snapshot {
	out := Snapshot{Version: SnapshotVersion, CreatedAt: at.UTC(), Items: make([]SnapshotItem, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, SnapshotItem{RefID: it.RefID, Kind: it.Kind, X: it.X, Y: it.Y, W: it.W, H: it.H})
	}
	return out
}
