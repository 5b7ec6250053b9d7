//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	"tplstudio/internal/interact"
	"tplstudio/internal/surface"
	"tplstudio/internal/textlayout"
	"tplstudio/internal/vector"
)

// mousePointer is the pointer id of the desktop mouse.
const mousePointer = 1

const tileTitleMax = 28

var (
	stageBg     = color.RGBA{R: 244, G: 244, B: 245, A: 255}
	canvasFill  = color.White
	frameColor  = color.RGBA{R: 228, G: 228, B: 231, A: 255}
	mutedFill   = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	labelColor  = color.RGBA{R: 113, G: 113, B: 122, A: 255}
	titleColor  = color.RGBA{R: 24, G: 24, B: 27, A: 255}
	selectColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	guideColor  = color.RGBA{R: 236, G: 72, B: 153, A: 255}
	ghostFill   = color.RGBA{R: 255, G: 255, B: 255, A: 200}
)

// StudioCanvas draws a composition surface and feeds it mouse, wheel and
// key input. The stage is the widget: one widget unit is one stage unit.
type StudioCanvas struct {
	widget.BaseWidget

	sf     *surface.Surface
	thumbs *thumbCache

	size  fyne.Size
	down  bool
	shift bool
	last  vector.Pt

	// OnChange runs after input changed the surface.
	OnChange func()
}

var (
	_ desktop.Mouseable = (*StudioCanvas)(nil)
	_ desktop.Hoverable = (*StudioCanvas)(nil)
	_ fyne.Draggable    = (*StudioCanvas)(nil)
	_ fyne.Scrollable   = (*StudioCanvas)(nil)
)

func NewStudioCanvas(sf *surface.Surface, thumbs export.ThumbnailFunc) *StudioCanvas {
	sc := &StudioCanvas{sf: sf, thumbs: newThumbCache(thumbs)}
	sc.ExtendBaseWidget(sc)
	return sc
}

func (c *StudioCanvas) Surface() *surface.Surface { return c.sf }

func (c *StudioCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(stageBg)
	r := &studioRenderer{sc: c, bg: bg}
	r.objects = []fyne.CanvasObject{bg}
	return r
}

func (c *StudioCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.down = true
	c.shift = e.Modifier&fyne.KeyModifierShift != 0
	c.pointer(interact.Down, e.Position)
}

func (c *StudioCanvas) MouseUp(e *desktop.MouseEvent) {
	if !c.down {
		return
	}
	c.down = false
	c.pointer(interact.Up, e.Position)
}

func (c *StudioCanvas) MouseIn(*desktop.MouseEvent) {}

func (c *StudioCanvas) MouseMoved(e *desktop.MouseEvent) {
	if c.down {
		c.pointer(interact.Move, e.Position)
	}
}

// MouseOut keeps the gesture alive; the pointer stays captured until the
// button is released.
func (c *StudioCanvas) MouseOut() {}

func (c *StudioCanvas) Dragged(e *fyne.DragEvent) {
	if c.down {
		c.pointer(interact.Move, e.Position)
	}
}

func (c *StudioCanvas) DragEnd() {
	if !c.down {
		return
	}
	c.down = false
	c.dispatch(interact.Up, c.last)
}

// Scrolled zooms around the cursor.
func (c *StudioCanvas) Scrolled(e *fyne.ScrollEvent) {
	c.sf.Wheel(toPt(e.Position), -float64(e.Scrolled.DY))
	c.changed()
}

// HandleKey forwards the studio shortcuts and reports whether the key was
// consumed.
func (c *StudioCanvas) HandleKey(ev *fyne.KeyEvent) bool {
	var name string
	switch ev.Name {
	case fyne.KeyEscape:
		name = "Escape"
	case fyne.KeySpace:
		name = "Space"
	case fyne.KeyDelete:
		name = "Delete"
	case fyne.KeyBackspace:
		name = "Backspace"
	default:
		return false
	}
	if name == "Escape" {
		c.down = false
	}
	if !c.sf.Key(name) {
		return false
	}
	c.changed()
	return true
}

func (c *StudioCanvas) pointer(kind interact.EventKind, pos fyne.Position) {
	c.dispatch(kind, toPt(pos))
}

func (c *StudioCanvas) dispatch(kind interact.EventKind, p vector.Pt) {
	c.last = p
	muts := c.sf.Dispatch(surface.PointerEvent{Kind: kind, Pointer: mousePointer, Screen: p, Shift: c.shift})
	if len(muts) > 0 {
		c.changed()
	}
}

func (c *StudioCanvas) changed() {
	c.Refresh()
	if c.OnChange != nil {
		c.OnChange()
	}
}

func toPt(p fyne.Position) vector.Pt { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }

// studioRenderer rebuilds its object list on every layout; a composition
// holds a few dozen cards at most.
type studioRenderer struct {
	sc      *StudioCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *studioRenderer) Destroy()                     {}
func (r *studioRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *studioRenderer) MinSize() fyne.Size           { return fyne.NewSize(640, 480) }
func (r *studioRenderer) Refresh()                     { r.Layout(r.sc.Size()); canvas.Refresh(r.sc) }

func (r *studioRenderer) Layout(size fyne.Size) {
	sc := r.sc
	if size.Width > 0 && size.Height > 0 && size != sc.size {
		sc.size = size
		sc.sf.SetStageSize(float64(size.Width), float64(size.Height))
	}
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Resize(size)

	sf := sc.sf
	view := sf.View()
	st := sf.Layout()
	place := func(o fyne.CanvasObject, world vector.Rect) {
		p0 := view.WorldToScreen(world.Min())
		p1 := view.WorldToScreen(world.Max())
		o.Move(fyne.NewPos(float32(p0.X), float32(p0.Y)))
		o.Resize(fyne.NewSize(float32(p1.X-p0.X), float32(p1.Y-p0.Y)))
	}

	objs := []fyne.CanvasObject{r.bg}

	frame := canvas.NewRectangle(canvasFill)
	frame.StrokeColor = frameColor
	frame.StrokeWidth = 1
	place(frame, st.Canvas)
	objs = append(objs, frame)

	console := canvas.NewRectangle(mutedFill)
	console.StrokeColor = frameColor
	console.StrokeWidth = 1
	place(console, st.Console)
	objs = append(objs, console)
	consoleText := "AUDIO CONSOLE  space = silence"
	objs = append(objs, r.text(consoleText, labelColor, 11, st.Console.Min().Add(vector.Pt{X: 12, Y: 10}), view.Scale))

	for _, t := range sf.Pool() {
		ref, _ := sf.Reference(t.RefID)
		objs = append(objs, r.card(place, t.Rect, t.Kind, tileLabel(t.Kind, ref), ref, view.Scale)...)
	}

	origin := st.Canvas.Min()
	for _, it := range sf.Items() {
		world := it.Rect.Translate(origin.X, origin.Y)
		ref, _ := sf.Reference(it.RefID)
		objs = append(objs, r.card(place, world, it.Kind, tileLabel(it.Kind, ref), ref, view.Scale)...)
		if it.ID != sf.Selected() {
			continue
		}
		sel := canvas.NewRectangle(color.Transparent)
		sel.StrokeColor = selectColor
		sel.StrokeWidth = 2
		place(sel, world)
		hs := float64(interact.HandleSize)
		handle := canvas.NewRectangle(selectColor)
		place(handle, vector.R(world.X+world.W-hs, world.Y+world.H-hs, hs, hs))
		objs = append(objs, sel, handle)
	}

	for _, g := range sf.Guides() {
		ln := canvas.NewLine(guideColor)
		ln.StrokeWidth = 1
		a := view.WorldToScreen(g.From.Add(origin))
		b := view.WorldToScreen(g.To.Add(origin))
		ln.Position1 = fyne.NewPos(float32(a.X), float32(a.Y))
		ln.Position2 = fyne.NewPos(float32(b.X), float32(b.Y))
		objs = append(objs, ln)
	}

	if gh, ok := sf.Ghost(); ok {
		ghost := canvas.NewRectangle(ghostFill)
		ghost.StrokeColor = selectColor
		ghost.StrokeWidth = 1
		ghost.Move(fyne.NewPos(float32(gh.At.X), float32(gh.At.Y)))
		ghost.Resize(fyne.NewSize(float32(gh.Tile.W), float32(gh.Tile.H)))
		ref, _ := sf.Reference(gh.Tile.RefID)
		title := canvas.NewText(textlayout.Truncate(ref.Title, tileTitleMax, textlayout.Ellipsis), titleColor)
		title.TextSize = 12
		title.Move(fyne.NewPos(float32(gh.At.X)+8, float32(gh.At.Y)+8))
		objs = append(objs, ghost, title)
	}

	r.objects = objs
}

// card draws one pool tile or canvas item: frame, kind label, title and,
// for image cards, the thumbnail.
func (r *studioRenderer) card(place func(fyne.CanvasObject, vector.Rect), world vector.Rect, kind domain.ItemKind, label string, ref domain.Reference, scale float64) []fyne.CanvasObject {
	box := canvas.NewRectangle(canvasFill)
	box.StrokeColor = frameColor
	box.StrokeWidth = 1
	box.CornerRadius = 6
	place(box, world)
	out := []fyne.CanvasObject{box}

	if kind == domain.KindImage || kind == domain.KindVideo {
		media := canvas.NewRectangle(mutedFill)
		inner := world.Inset(8, 24)
		if m, ok := ref.PrimaryMedia(); ok && kind == domain.KindImage {
			if img, ok := r.sc.thumbs.get(m.Source(), r.sc.Refresh); ok {
				ci := canvas.NewImageFromImage(img)
				ci.FillMode = canvas.ImageFillContain
				place(ci, inner)
				out = append(out, ci)
				media = nil
			}
		}
		if media != nil {
			place(media, inner)
			out = append(out, media)
		}
	}

	out = append(out, r.text(label, labelColor, 9, world.Min().Add(vector.Pt{X: 8, Y: 6}), scale))
	title := textlayout.Truncate(ref.Title, tileTitleMax, textlayout.Ellipsis)
	if title != "" {
		at := vector.Pt{X: world.X + 8, Y: world.Y + world.H - 20}
		out = append(out, r.text(title, titleColor, 11, at, scale))
	}
	return out
}

func (r *studioRenderer) text(s string, col color.Color, size float32, world vector.Pt, scale float64) fyne.CanvasObject {
	t := canvas.NewText(s, col)
	t.TextSize = size * float32(scale)
	p := r.sc.sf.View().WorldToScreen(world)
	t.Move(fyne.NewPos(float32(p.X), float32(p.Y)))
	return t
}

func tileLabel(k domain.ItemKind, ref domain.Reference) string {
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

// thumbCache loads image previews in the background, one load per source.
type thumbCache struct {
	load export.ThumbnailFunc

	mu   sync.Mutex
	imgs map[string]image.Image
	busy map[string]bool
}

func newThumbCache(load export.ThumbnailFunc) *thumbCache {
	return &thumbCache{load: load, imgs: map[string]image.Image{}, busy: map[string]bool{}}
}

// get returns the cached preview for src. On a miss it starts a load and
// calls done on the UI goroutine once an image arrived.
func (t *thumbCache) get(src string, done func()) (image.Image, bool) {
	if t.load == nil || src == "" {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if img, ok := t.imgs[src]; ok {
		return img, img != nil
	}
	if t.busy[src] {
		return nil, false
	}
	t.busy[src] = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		img, ok := t.load(ctx, src)
		if !ok {
			img = nil
		}
		t.mu.Lock()
		t.imgs[src] = img
		delete(t.busy, src)
		t.mu.Unlock()
		if img != nil && done != nil {
			fyne.Do(done)
		}
	}()
	return nil, false
}
