/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"tplstudio/internal/domain"
	"tplstudio/internal/textlayout"
	"tplstudio/internal/vector"
)

// DefaultPixelRatio matches the device scale the composition page captures at.
const DefaultPixelRatio = 2

// Capturer renders a scene to an encoded image.
type Capturer interface {
	Capture(ctx context.Context, s Scene) ([]byte, error)
}

// ThumbnailFunc returns the decoded image behind a media source, if one is
// available.
type ThumbnailFunc func(ctx context.Context, src string) (image.Image, bool)

// Rasterizer draws the placed items of a scene on a white background. The
// pool and the drag ghost are never part of a capture.
type Rasterizer struct {
	PixelRatio float64
	Thumbnail  ThumbnailFunc
}

var _ Capturer = Rasterizer{}

var (
	white     = color.RGBA{255, 255, 255, 255}
	gridCol   = color.RGBA{245, 245, 245, 255}
	borderCol = color.RGBA{0xe4, 0xe4, 0xe7, 255}
	mutedCol  = color.RGBA{0xfa, 0xfa, 0xfa, 255}
	labelCol  = color.RGBA{0x71, 0x71, 0x7a, 255}
	titleCol  = color.RGBA{0x18, 0x18, 0x1b, 255}
)

func (r Rasterizer) ratio() float64 {
	if r.PixelRatio > 0 && !math.IsInf(r.PixelRatio, 0) {
		return r.PixelRatio
	}
	return DefaultPixelRatio
}

// Capture renders s and encodes it as PNG.
func (r Rasterizer) Capture(ctx context.Context, s Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WritePNG(ctx, &buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Rasterizer) WritePNG(ctx context.Context, w io.Writer, s Scene) error {
	img, err := r.Render(ctx, s)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Render draws s at the rasterizer's pixel ratio.
func (r Rasterizer) Render(ctx context.Context, s Scene) (*image.RGBA, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	k := r.ratio()
	sz := s.Size()
	img := image.NewRGBA(image.Rect(0, 0, px(sz.W, k), px(sz.H, k)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	canvas := rectPx(vector.R(0, 0, s.Canvas.W, s.Canvas.H), k)
	drawGrid(img, canvas, k)
	strokeRect(img, canvas, borderCol, lineWidth(k))

	for _, c := range s.Cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.drawCard(ctx, img, c, k)
	}
	if cr, ok := s.ConsoleRect(); ok {
		drawConsole(img, cr, k)
	}
	return img, nil
}

func (r Rasterizer) drawCard(ctx context.Context, img *image.RGBA, c Card, k float64) {
	box := rectPx(c.Rect, k)
	fillRect(img, box, white)
	strokeRect(img, box, borderCol, lineWidth(k))

	face := textlayout.Face()
	lh := float64(textlayout.LineHeight(face))
	inner := c.Rect.Inset(cardPad, cardPad)
	if inner.W <= 0 || inner.H <= 0 {
		return
	}
	y := inner.Y
	drawText(img, face, c.Label, inner.X, y, labelCol, k)
	y += lh + 6

	maxLines := 2
	if c.Kind == domain.KindText {
		maxLines = int(math.Max(1, math.Floor((inner.Y+inner.H-y)/(lh+2))))
	}
	for _, line := range textlayout.Wrap(face, textlayout.Printable(c.Title), int(inner.W), maxLines, textlayout.ASCIIEllipsis) {
		if y+lh > inner.Y+inner.H {
			return
		}
		drawText(img, face, line, inner.X, y, titleCol, k)
		y += lh + 2
	}

	if c.Kind != domain.KindImage && c.Kind != domain.KindVideo {
		return
	}
	area := vector.R(inner.X, y+4, inner.W, inner.Y+inner.H-y-4)
	if area.W <= 0 || area.H <= 0 {
		return
	}
	if r.Thumbnail != nil && c.Src != "" {
		if src, ok := r.Thumbnail(ctx, c.Src); ok && !src.Bounds().Empty() {
			b := src.Bounds()
			fit := fitContain(float64(b.Dx()), float64(b.Dy()), area)
			draw.ApproxBiLinear.Scale(img, rectPx(fit, k), src, b, draw.Over, nil)
			return
		}
	}
	dst := rectPx(area, k)
	fillRect(img, dst, mutedCol)
	strokeRect(img, dst, borderCol, lineWidth(k))
}

func drawConsole(img *image.RGBA, r vector.Rect, k float64) {
	box := rectPx(r, k)
	fillRect(img, box, mutedCol)
	strokeRect(img, box, borderCol, lineWidth(k))
	face := textlayout.Face()
	lh := float64(textlayout.LineHeight(face))
	drawText(img, face, consoleTxt, r.X+cardPad, r.Y+cardPad, labelCol, k)
	drawText(img, face, consoleSub, r.X+cardPad, r.Y+cardPad+lh+4, labelCol, k)
}

func drawGrid(img *image.RGBA, canvas image.Rectangle, k float64) {
	step := float64(gridStep) * k
	for x := step; x < float64(canvas.Max.X); x += step {
		xi := int(math.Round(x))
		fillRect(img, image.Rect(xi, canvas.Min.Y, xi+1, canvas.Max.Y), gridCol)
	}
	for y := step; y < float64(canvas.Max.Y); y += step {
		yi := int(math.Round(y))
		fillRect(img, image.Rect(canvas.Min.X, yi, canvas.Max.X, yi+1), gridCol)
	}
}

// drawText sets s at scene position (x, top) in the 1x face, then scales
// the glyphs up to the pixel ratio so labels keep their proportions.
func drawText(img *image.RGBA, face font.Face, s string, x, top float64, col color.RGBA, k float64) {
	s = textlayout.Printable(s)
	w := textlayout.Advance(face, s)
	h := textlayout.LineHeight(face)
	if w <= 0 || h <= 0 {
		return
	}
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, textlayout.Ascent(face)),
	}
	d.DrawString(s)
	dst := rectPx(vector.R(x, top, float64(w), float64(h)), k)
	draw.NearestNeighbor.Scale(img, dst, tile, tile.Bounds(), draw.Over, nil)
}

// fitContain scales a w x h image into box keeping its aspect ratio and
// centers it.
func fitContain(w, h float64, box vector.Rect) vector.Rect {
	if w <= 0 || h <= 0 {
		return vector.R(box.X, box.Y, 0, 0)
	}
	s := math.Min(box.W/w, box.H/h)
	dw, dh := w*s, h*s
	return vector.R(box.X+(box.W-dw)/2, box.Y+(box.H-dh)/2, dw, dh)
}

func px(v, k float64) int { return int(math.Round(v * k)) }

func rectPx(r vector.Rect, k float64) image.Rectangle {
	return image.Rect(px(r.X, k), px(r.Y, k), px(r.X+r.W, k), px(r.Y+r.H, k))
}

func lineWidth(k float64) int { return max(1, int(math.Round(k))) }

// strokeRect draws a border of width lw inside r.
func strokeRect(img *image.RGBA, r image.Rectangle, col color.RGBA, lw int) {
	if r.Empty() {
		return
	}
	lw = min(lw, r.Dx()/2, r.Dy()/2)
	lw = max(lw, 1)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw), col)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y), col)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y), col)
	fillRect(img, image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	r = r.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}
