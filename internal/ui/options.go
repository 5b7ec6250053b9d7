/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop front-end of the composition studio. The Fyne
// implementation is only compiled with -tags fyne; other builds get a stub
// Run that explains how to enable it.
package ui

import (
	"context"

	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	"tplstudio/internal/media"
	"tplstudio/internal/surface"
)

// IndexLoader produces the media index, usually a *media.Loader.
type IndexLoader interface {
	Load(ctx context.Context) (media.Index, error)
}

// Options are the collaborators of the studio window.
type Options struct {
	Catalog *domain.Catalog
	Surface surface.Options

	Index     IndexLoader
	Overrides media.Overrides
	Resolver  *media.Resolver
	// Thumbnails loads image previews for the canvas and for exports.
	Thumbnails export.ThumbnailFunc

	PixelRatio float64
	// OutDir is the folder offered by the export dialog.
	OutDir string
	// CrashDir receives crash reports and rescue snapshots.
	CrashDir string
}
