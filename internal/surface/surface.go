/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package surface is the composition surface: it owns the pool of scattered
// reference tiles, the canvas items the user placed, the viewport and the
// interaction session, and applies the mutations produced by interact.Reduce.
//
// A Surface is not safe for concurrent use. Front-ends drive it from a single
// goroutine or guard it with their own lock.
package surface

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tplstudio/internal/audio"
	"tplstudio/internal/domain"
	"tplstudio/internal/interact"
	"tplstudio/internal/layout"
	applog "tplstudio/internal/log"
	"tplstudio/internal/prng"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

// DefaultPoolSize is how many references a pool draws from the catalog.
const DefaultPoolSize = 20

// MediaSource fills in media for references that carry none.
type MediaSource interface {
	MediaFor(r domain.Reference) (domain.Media, bool)
}

// Options configures a Surface. Zero values pick the defaults.
type Options struct {
	Seed     int32
	PoolSize int
	// StageW and StageH are the stage size in world units; a degenerate
	// size falls back to 1200x700.
	StageW, StageH float64

	Scatter     layout.ScatterOptions
	Radial      layout.RadialOptions
	Viewport    viewport.Options
	Snap        vector.SnapOptions
	MinItemSize vector.Size

	Audio  audio.Engine
	Logger *slog.Logger
	// NewID and Now are swapped in tests.
	NewID func() string
	Now   func() time.Time
}

// Ghost is the floating preview of a pool tile being dragged. At is in
// screen coordinates.
type Ghost struct {
	Tile domain.PoolTile `json:"tile"`
	At   vector.Pt       `json:"at"`
}

// Surface is one composition session.
type Surface struct {
	opts Options
	log  *slog.Logger

	// base is the catalog as loaded; cat adds the media filled in by the
	// last applied media index.
	base *domain.Catalog
	cat  *domain.Catalog

	seed      int32
	stage     layout.StageRects
	pool      []domain.PoolTile
	poolStats layout.ScatterStats

	// items are in z-order, back to front.
	items    []domain.CanvasItem
	selected string
	ghost    *Ghost
	guides   []vector.Guide

	view     *viewport.Controller
	session  interact.Session
	captured int
	mediaGen uint64
}

// New builds a surface over cat and lays out the first pool.
func New(cat *domain.Catalog, opts Options) *Surface {
	if cat == nil {
		cat = domain.NewCatalog(nil)
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.MinItemSize.W <= 0 || opts.MinItemSize.H <= 0 {
		opts.MinItemSize = interact.DefaultMinItemSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		now := opts.Now
		opts.NewID = func() string { return newItemID(now()) }
	}
	lg := opts.Logger
	if lg == nil {
		lg = applog.WithComponent("surface")
	}
	s := &Surface{
		opts:    opts,
		log:     lg,
		base:    cat,
		cat:     cat,
		seed:    opts.Seed,
		view:    viewport.New(opts.Viewport),
		session: interact.NewSession(),
	}
	s.stage = layout.Stage(opts.StageW, opts.StageH)
	s.view.SetViewportSize(s.stage.Stage.W, s.stage.Stage.H)
	s.buildPool()
	s.fitDefault()
	return s
}

// fitDefault frames the canvas, the console and the pool, and keeps that
// view as the one ResetView returns to. It runs once, after the first
// layout.
func (s *Surface) fitDefault() {
	content := make([]vector.Rect, 0, len(s.pool)+2)
	content = append(content, s.stage.Canvas, s.stage.Console)
	for _, t := range s.pool {
		content = append(content, t.Rect)
	}
	s.view.Fit(content)
	s.view.SnapshotDefault()
}

func newItemID(at time.Time) string {
	return fmt.Sprintf("canvas-%d-%s", at.UnixMilli(), uuid.NewString()[:8])
}

// Seed is the seed of the current pool.
func (s *Surface) Seed() int32 { return s.seed }

// Catalog is the catalog with media filled in.
func (s *Surface) Catalog() *domain.Catalog { return s.cat }

// Layout returns the stage rects in world coordinates.
func (s *Surface) Layout() layout.StageRects { return s.stage }

// Viewport exposes the view controller for wheel zoom, fit and reset.
func (s *Surface) Viewport() *viewport.Controller { return s.view }

// Session is the interaction state, for rendering.
func (s *Surface) Session() interact.Session { return s.session }

func (s *Surface) Selected() string { return s.selected }

// Guides are the snap guides of the drag in progress, canvas-local.
func (s *Surface) Guides() []vector.Guide { return append([]vector.Guide(nil), s.guides...) }

// Ghost returns the floating pool preview, if a pool drag is in progress.
func (s *Surface) Ghost() (Ghost, bool) {
	if s.ghost == nil {
		return Ghost{}, false
	}
	return *s.ghost, true
}

// PoolStats reports how the last scatter went.
func (s *Surface) PoolStats() layout.ScatterStats { return s.poolStats }

// Pool returns the tiles whose reference still resolves.
func (s *Surface) Pool() []domain.PoolTile {
	out := make([]domain.PoolTile, 0, len(s.pool))
	for _, t := range s.pool {
		if _, ok := s.cat.ByID(t.RefID); ok {
			out = append(out, t)
		}
	}
	return out
}

// Items returns the live canvas items in z-order, back to front.
func (s *Surface) Items() []domain.CanvasItem {
	out := make([]domain.CanvasItem, 0, len(s.items))
	for _, it := range s.items {
		if s.live(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Surface) live(it domain.CanvasItem) bool {
	_, ok := s.cat.ByID(it.RefID)
	return ok
}

func (s *Surface) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// buildPool shuffles the catalog, keeps PoolSize references and scatters
// them around the reserved regions. Shuffle and scatter use independent
// streams derived from the seed.
func (s *Surface) buildPool() {
	refs := s.cat.All()
	rnd := prng.New(prng.Derive(s.seed, prng.ShuffleStream))
	rnd.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	if len(refs) > s.opts.PoolSize {
		refs = refs[:s.opts.PoolSize]
	}
	placed, stats := layout.Scatter(prng.Derive(s.seed, prng.ScatterStream), refs, len(refs),
		s.stage.Stage.W, s.stage.Stage.H, s.stage.Avoid(), s.opts.Scatter)

	s.pool = s.pool[:0]
	for _, p := range placed {
		s.pool = append(s.pool, domain.PoolTile{
			ID:    "pool-" + p.Item.ID,
			RefID: p.Item.ID,
			Kind:  domain.PoolKindFor(p.Item),
			Rect:  p.Rect,
		})
	}
	s.poolStats = stats
	l := applog.WithOperation(s.log, "build_pool")
	if stats.Exhausted {
		l.Debug("scatter budget exhausted", slog.Int("placed", stats.Placed), slog.Int("requested", stats.Requested))
	}
	l.Debug("pool built", slog.Int("seed", int(s.seed)), slog.Int("tiles", len(s.pool)))
}

// RegeneratePool draws a new pool for seed. Canvas items are untouched.
func (s *Surface) RegeneratePool(seed int32) {
	s.seed = seed
	s.buildPool()
}

// Refresh draws the next pool.
func (s *Surface) Refresh() { s.RegeneratePool(s.seed + 1) }

// SetStageSize lays the stage out again for a new size. Pool tiles are
// rebuilt with the current seed and canvas items are clamped into the new
// canvas. A gesture in progress keeps its start references. The view and
// its reset snapshot are left alone.
func (s *Surface) SetStageSize(w, h float64) {
	s.stage = layout.Stage(w, h)
	s.view.SetViewportSize(s.stage.Stage.W, s.stage.Stage.H)
	for i := range s.items {
		s.items[i].Rect = s.clampToCanvas(s.items[i].Rect)
	}
	s.buildPool()
}

func (s *Surface) clampToCanvas(r vector.Rect) vector.Rect {
	c := s.stage.Canvas
	r.X = vector.Clamp(r.X, interact.EdgeInset, c.W-r.W-interact.EdgeInset)
	r.Y = vector.Clamp(r.Y, interact.EdgeInset, c.H-r.H-interact.EdgeInset)
	return r
}

// AddItem places refID on the canvas at the canvas-local rect r, on top of
// the others, and returns the new item. The reference must resolve.
func (s *Surface) AddItem(refID string, r vector.Rect) (domain.CanvasItem, bool) {
	ref, ok := s.cat.ByID(refID)
	if !ok {
		return domain.CanvasItem{}, false
	}
	kind := domain.ItemKindFor(ref)
	if r.W <= 0 || r.H <= 0 {
		size := interact.DropSize(kind)
		r.W, r.H = size.W, size.H
	}
	return s.addItem(refID, kind, r), true
}

func (s *Surface) addItem(refID string, kind domain.ItemKind, r vector.Rect) domain.CanvasItem {
	it := domain.CanvasItem{ID: s.opts.NewID(), RefID: refID, Kind: kind, Rect: s.clampToCanvas(r)}
	s.items = append(s.items, it)
	if kind == domain.KindAudio && s.opts.Audio != nil {
		if err := s.opts.Audio.Ensure(); err != nil {
			s.log.Warn("audio unavailable", slog.Any("err", err))
		} else {
			s.opts.Audio.PlayOneShot(refID)
		}
	}
	s.log.Debug("item added", slog.String("id", it.ID), slog.String("ref", refID), slog.String("kind", string(kind)))
	return it
}

// MoveItem sets the canvas-local position of id, clamped into the canvas.
func (s *Surface) MoveItem(id string, pos vector.Pt) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	r := s.items[i].Rect
	r.X, r.Y = pos.X, pos.Y
	s.items[i].Rect = s.clampToCanvas(r)
	return true
}

// ResizeItem sets the size of id. The size never drops below the minimum
// nor exceeds the space left in the canvas from the item's top-left.
func (s *Surface) ResizeItem(id string, size vector.Size) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	it := &s.items[i]
	c := s.stage.Canvas
	minSize := s.opts.MinItemSize
	it.W = max(minSize.W, min(size.W, c.W-interact.EdgeInset-it.X))
	it.H = max(minSize.H, min(size.H, c.H-interact.EdgeInset-it.Y))
	return true
}

// BringToFront moves id to the top of the z-order.
func (s *Surface) BringToFront(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	it := s.items[i]
	s.items = append(append(s.items[:i:i], s.items[i+1:]...), it)
	return true
}

// RemoveItem deletes id. Removing the selected item clears the selection.
func (s *Surface) RemoveItem(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.selected == id {
		s.selected = ""
		s.session.Selected = ""
	}
	return true
}

// RemoveSelected deletes the selected item, if any.
func (s *Surface) RemoveSelected() bool {
	if s.selected == "" {
		return false
	}
	return s.RemoveItem(s.selected)
}

// ClearAll removes every canvas item and the selection.
func (s *Surface) ClearAll() {
	s.items = nil
	s.selected = ""
	s.session.Selected = ""
	s.guides = nil
}

// ExportSnapshot flattens the live canvas items.
func (s *Surface) ExportSnapshot() domain.Snapshot {
	return domain.NewSnapshot(s.Items(), s.opts.Now())
}

// SnapshotJSON is the indented snapshot document.
func (s *Surface) SnapshotJSON() ([]byte, error) {
	return json.MarshalIndent(s.ExportSnapshot(), "", "  ")
}

// AudioSources maps each audio reference on the canvas to its media path, so
// a front-end can preload the clips.
func (s *Surface) AudioSources() map[string]string {
	out := map[string]string{}
	for _, it := range s.Items() {
		if it.Kind != domain.KindAudio {
			continue
		}
		ref, _ := s.cat.ByID(it.RefID)
		if m, ok := ref.PrimaryMedia(); ok {
			out[it.RefID] = m.Source()
		}
	}
	return out
}
