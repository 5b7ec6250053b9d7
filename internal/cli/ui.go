/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tplstudio/internal/export"
	"tplstudio/internal/ui"
)

func (c *CLI) uiCommand() *cobra.Command {
	var (
		catalogPath   string
		overridesPath string
		mediaDir      string
	)
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Launch the desktop studio (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := c.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			ov, err := c.overrides(overridesPath)
			if err != nil {
				return err
			}
			ld, closeFn, err := c.mediaLoader(ctx, mediaMaxAge)
			if err != nil {
				return err
			}
			defer closeFn()

			res := c.resolver()
			thumbs := export.HTTPThumbnails(&http.Client{Timeout: 15 * time.Second}, res.ResolveURL)
			if mediaDir != "" {
				thumbs = export.DirThumbnails(mediaDir)
			}
			return ui.Run(ctx, ui.Options{
				Catalog:    cat,
				Surface:    c.surfaceOptions(),
				Index:      ld,
				Overrides:  ov,
				Resolver:   res,
				Thumbnails: thumbs,
				PixelRatio: c.cfg.Export.PixelRatio,
				OutDir:     c.cfg.Export.OutDir,
			})
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog document (default: catalog.path)")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "media overrides YAML (default: bundled)")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "local bucket copy for thumbnails instead of HTTP")
	return cmd
}
