/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"

	"tplstudio/internal/domain"
)

// SVGOptions controls the vector rendition. Resolve, when set, turns media
// sources into hrefs for image cards.
type SVGOptions struct {
	Resolve func(src string) string
}

const svgFont = "Helvetica, Arial, sans-serif"

// WriteSVG writes s as a standalone SVG document in scene units.
func WriteSVG(w io.Writer, s Scene, opt SVGOptions) error {
	if err := s.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, format, args...)
	}

	sz := s.Size()
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", sz.W, sz.H, sz.W, sz.H)
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", sz.W, sz.H)

	gc := svgColor(gridCol)
	wf("  <g stroke=\"%s\" stroke-width=\"1\">\n", gc)
	for x := float64(gridStep); x < s.Canvas.W; x += gridStep {
		wf("    <line x1=\"%g\" y1=\"0\" x2=\"%g\" y2=\"%g\"/>\n", x, x, s.Canvas.H)
	}
	for y := float64(gridStep); y < s.Canvas.H; y += gridStep {
		wf("    <line x1=\"0\" y1=\"%g\" x2=\"%g\" y2=\"%g\"/>\n", y, s.Canvas.W, y)
	}
	wf("  </g>\n")
	bc := svgColor(borderCol)
	wf("  <rect x=\"0.5\" y=\"0.5\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\"/>\n", s.Canvas.W-1, s.Canvas.H-1, bc)

	for _, c := range s.Cards {
		wf("  <g data-ref=\"%s\" data-kind=\"%s\">\n", escAttr(c.RefID), c.Kind)
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#ffffff\" stroke=\"%s\"/>\n", c.X, c.Y, c.W, c.H, bc)
		x := c.X + cardPad
		y := c.Y + cardPad + 10
		wf("    <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"10\" letter-spacing=\"1\" fill=\"%s\">%s</text>\n", x, y, svgFont, svgColor(labelCol), escText(c.Label))
		y += 18
		wf("    <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"13\" fill=\"%s\">%s</text>\n", x, y, svgFont, svgColor(titleCol), escText(c.Title))
		if href := mediaHref(c, opt); href != "" {
			top := y + 10
			if w, h := c.W-2*cardPad, c.Y+c.H-cardPad-top; w > 0 && h > 0 {
				wf("    <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"xMidYMid meet\" href=\"%s\"/>\n", x, top, w, h, escAttr(href))
			}
		}
		wf("  </g>\n")
	}

	if cr, ok := s.ConsoleRect(); ok {
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\"/>\n", cr.X, cr.Y, cr.W, cr.H, svgColor(mutedCol), bc)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"10\" fill=\"%s\">%s</text>\n", cr.X+cardPad, cr.Y+cardPad+10, svgFont, svgColor(labelCol), consoleTxt)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"10\" fill=\"%s\">%s</text>\n", cr.X+cardPad, cr.Y+cardPad+26, svgFont, svgColor(labelCol), consoleSub)
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func mediaHref(c Card, opt SVGOptions) string {
	if opt.Resolve == nil || c.Src == "" || c.Kind != domain.KindImage {
		return ""
	}
	return opt.Resolve(c.Src)
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", "\n", " ", "\r", "")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escAttr(s string) string { return attrEscaper.Replace(s) }

func escText(s string) string { return textEscaper.Replace(s) }
