/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	"tplstudio/internal/layout"
	"tplstudio/internal/telemetry"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		format      string
		out         string
		catalogPath string
		mediaDir    string
		pixelRatio  float64
	)
	cmd := &cobra.Command{
		Use:   "export <diy-composition.json>",
		Short: "Render a saved composition snapshot",
		Long: `Render a composition snapshot written by the composition page or by
"GET /api/sessions/{id}/snapshot" as PNG, PDF or SVG. With --format json the
snapshot is validated and written back normalized; --format zip bundles all
of them. A bundle is accepted as input too.

Image cards show thumbnails when --media-dir points at a local copy of the
bucket; otherwise they render as placeholders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snap domain.Snapshot
			if export.IsBundle(data) {
				snap, err = export.ReadBundleSnapshot(data)
			} else {
				snap, err = export.ReadSnapshotJSON(bytes.NewReader(data))
			}
			if err != nil {
				return err
			}
			cat, err := c.openCatalog(cmd.Context(), catalogPath)
			if err != nil {
				return err
			}
			cat = cat.WithMedia(c.guesser(cmd.Context()).MediaFor)

			opts := c.surfaceOptions()
			scene := export.NewScene(snap, cat, layout.Stage(opts.StageW, opts.StageH))
			if pixelRatio <= 0 {
				pixelRatio = c.cfg.Export.PixelRatio
			}
			res := c.resolver()
			eo := export.Options{
				Rasterizer: export.Rasterizer{PixelRatio: pixelRatio, Thumbnail: export.DirThumbnails(mediaDir)},
				SVG:        export.SVGOptions{Resolve: res.ResolveURL},
			}

			if out == "" {
				out = filepath.Join(c.cfg.Export.OutDir, f.FileName())
			}
			err = export.WriteFile(out, func(w io.Writer) error {
				return export.Encode(cmd.Context(), w, f, snap, scene, eo)
			})
			if err != nil {
				return err
			}
			telemetry.Exported(string(f), len(scene.Cards))
			c.log.Info("exported", slog.String("format", string(f)), slog.String("path", out), slog.Int("cards", len(scene.Cards)))
			fmt.Fprintln(c.out, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "png", "output format: png, pdf, svg, json, zip")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: <export.out_dir>/diy-composition.<format>)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog document (default: catalog.path)")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "local bucket copy for image thumbnails")
	cmd.Flags().Float64Var(&pixelRatio, "pixel-ratio", 0, "raster scale (default: export.pixel_ratio)")
	return cmd
}
