/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns a composition snapshot into files: the JSON
// snapshot itself, a PNG capture of the canvas region, and PDF and SVG
// renditions of the same scene.
package export

import (
	"errors"

	"tplstudio/internal/domain"
	"tplstudio/internal/layout"
	"tplstudio/internal/textlayout"
	"tplstudio/internal/vector"
)

// ErrEmptyRegion is returned when the capture region has no area.
var ErrEmptyRegion = errors.New("export: empty capture region")

// Default file names, as offered for download by the composition page.
const (
	SnapshotFileName = "diy-composition.json"
	PNGFileName      = "diy-composition.png"
	PDFFileName      = "diy-composition.pdf"
	SVGFileName      = "diy-composition.svg"
)

const (
	titleMax   = 42
	gridStep   = 48
	cardPad    = 12
	consoleTxt = "AUDIO CONSOLE"
	consoleSub = "space = silence"
)

// Card is one placed item, resolved against the catalog. Rect is local to
// the canvas.
type Card struct {
	RefID string
	Kind  domain.ItemKind
	Label string
	Title string
	Src   string
	vector.Rect
}

// Scene is the capture region: the canvas and, when Console has an area,
// the console strip ConsoleGap below it.
type Scene struct {
	Canvas  vector.Size
	Console vector.Size
	Cards   []Card
}

// Size is the full extent of the capture region.
func (s Scene) Size() vector.Size {
	h := s.Canvas.H
	if s.Console.W > 0 && s.Console.H > 0 {
		h += layout.ConsoleGap + s.Console.H
	}
	return vector.Size{W: s.Canvas.W, H: h}
}

// ConsoleRect is the console strip in scene coordinates.
func (s Scene) ConsoleRect() (vector.Rect, bool) {
	if s.Console.W <= 0 || s.Console.H <= 0 {
		return vector.Rect{}, false
	}
	return vector.R(0, s.Canvas.H+layout.ConsoleGap, s.Console.W, s.Console.H), true
}

// NewScene resolves snap against cat. Items whose reference is gone are
// left out, the way the canvas hides them.
func NewScene(snap domain.Snapshot, cat *domain.Catalog, st layout.StageRects) Scene {
	s := Scene{
		Canvas:  st.Canvas.Size(),
		Console: st.Console.Size(),
		Cards:   make([]Card, 0, len(snap.Items)),
	}
	for _, it := range snap.Items {
		ref, ok := cat.Lookup(it.RefID)
		if !ok {
			continue
		}
		c := Card{
			RefID: it.RefID,
			Kind:  it.Kind,
			Label: cardLabel(it.Kind, ref),
			Title: textlayout.Truncate(ref.Title, titleMax, textlayout.Ellipsis),
			Rect:  it.Rect(),
		}
		if m, ok := ref.PrimaryMedia(); ok {
			c.Src = m.Source()
		}
		s.Cards = append(s.Cards, c)
	}
	return s
}

func cardLabel(k domain.ItemKind, ref domain.Reference) string {
	switch k {
	case domain.KindImage:
		return "IMAGE"
	case domain.KindVideo:
		return "VIDEO"
	case domain.KindAudio:
		return "AUDIO"
	}
	if ref.Type != "" {
		return ref.Type.Label()
	}
	return "TEXT"
}

func (s Scene) check() error {
	sz := s.Size()
	if sz.W <= 0 || sz.H <= 0 {
		return ErrEmptyRegion
	}
	return nil
}
