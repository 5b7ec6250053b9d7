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
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"tplstudio/internal/vector"
	"tplstudio/internal/version"
)

const captureImage = "capture"

// WritePDF places a PNG capture on one A4 landscape page, scaled to fit
// and centered.
func WritePDF(w io.Writer, capture []byte) error {
	cfg, err := png.DecodeConfig(bytes.NewReader(capture))
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrEmptyRegion
	}

	pdf := gofpdf.New("L", "pt", "A4", "")
	pdf.SetTitle("DIY composition", true)
	pdf.SetCreator(version.String(), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(captureImage, opt, bytes.NewReader(capture))
	pageW, pageH := pdf.GetPageSize()
	r := fitContain(float64(cfg.Width), float64(cfg.Height), vector.R(0, 0, pageW, pageH))
	pdf.ImageOptions(captureImage, r.X, r.Y, r.W, r.H, false, opt, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
