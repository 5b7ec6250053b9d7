/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tplstudio/internal/domain"
)

// Format names an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatZip  Format = "zip"
)

// Formats lists the supported encodings.
var Formats = []Format{FormatPNG, FormatPDF, FormatSVG, FormatJSON, FormatZip}

var ErrUnknownFormat = errors.New("export: unknown format")

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, k := range Formats {
		if f == k {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	case FormatZip:
		return "application/zip"
	}
	return "application/json"
}

// FileName is the default download name.
func (f Format) FileName() string {
	switch f {
	case FormatPNG:
		return PNGFileName
	case FormatPDF:
		return PDFFileName
	case FormatSVG:
		return SVGFileName
	case FormatZip:
		return BundleFileName
	}
	return SnapshotFileName
}

// Options configures Encode.
type Options struct {
	Rasterizer Rasterizer
	SVG        SVGOptions
}

// Encode writes the composition as f. JSON writes the snapshot, zip bundles
// every format, and the rest render the scene.
func Encode(ctx context.Context, w io.Writer, f Format, snap domain.Snapshot, s Scene, opt Options) error {
	switch f {
	case FormatPNG:
		return opt.Rasterizer.WritePNG(ctx, w, s)
	case FormatPDF:
		capture, err := opt.Rasterizer.Capture(ctx, s)
		if err != nil {
			return err
		}
		return WritePDF(w, capture)
	case FormatSVG:
		return WriteSVG(w, s, opt.SVG)
	case FormatJSON:
		return WriteSnapshotJSON(w, snap)
	case FormatZip:
		return WriteBundle(ctx, w, snap, s, opt)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
