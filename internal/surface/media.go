/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"log/slog"

	"tplstudio/internal/domain"
	"tplstudio/internal/layout"
)

// BeginMediaLoad starts a new media load and returns its generation. Only
// the result of the latest generation is applied.
func (s *Surface) BeginMediaLoad() uint64 {
	s.mediaGen++
	return s.mediaGen
}

// ApplyMediaIndex fills missing reference media from src and relays the
// pool so tile kinds follow. A result from an older generation is dropped
// and ApplyMediaIndex reports false.
func (s *Surface) ApplyMediaIndex(gen uint64, src MediaSource) bool {
	if gen != s.mediaGen || src == nil {
		s.log.Debug("stale media index ignored", slog.Uint64("gen", gen), slog.Uint64("current", s.mediaGen))
		return false
	}
	s.cat = s.base.WithMedia(src.MediaFor)
	s.buildPool()
	return true
}

// WallTile is one reference placed on the media wall.
type WallTile struct {
	RefID string          `json:"refId"`
	Kind  domain.ItemKind `json:"kind"`
	Title string          `json:"title"`
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	W     float64         `json:"w"`
	H     float64         `json:"h"`
}

// MediaWall lays the whole catalog on a golden angle spiral over a w x h
// world, the home composition.
func (s *Surface) MediaWall(seed int32, w, h float64) []WallTile {
	w, h = layout.NormalizeStage(w, h)
	placed := layout.Radial(seed, s.cat.All(), w, h, s.opts.Radial)
	out := make([]WallTile, 0, len(placed))
	for _, p := range placed {
		out = append(out, WallTile{
			RefID: p.Item.ID,
			Kind:  domain.ItemKindFor(p.Item),
			Title: p.Item.Title,
			X:     p.X,
			Y:     p.Y,
			W:     p.W,
			H:     p.H,
		})
	}
	return out
}
