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
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"tplstudio/internal/audio"
	"tplstudio/internal/crash"
	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	applog "tplstudio/internal/log"
	"tplstudio/internal/media"
	"tplstudio/internal/surface"
	"tplstudio/internal/telemetry"
	"tplstudio/internal/version"
)

const mediaTimeout = 30 * time.Second

// Run opens the studio window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	rec := audio.NewRecorder(nil)
	sopts := opts.Surface
	sopts.Audio = rec
	sf := surface.New(opts.Catalog, sopts)
	defer crash.Recover(opts.CrashDir, sf)

	fyneApp := app.NewWithID("tplstudio")
	w := fyneApp.NewWindow("TPL Studio")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 860)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	sc := NewStudioCanvas(sf, opts.Thumbnails)
	updateStatus := func() {
		txt := fmt.Sprintf("seed %d | %d tiles | %d items | zoom %.0f%%", sf.Seed(), len(sf.Pool()), len(sf.Items()), sf.View().Scale*100)
		if id := rec.Looping(); id != "" {
			txt += " | looping " + id
		}
		status.SetText(txt)
	}
	sc.OnChange = updateStatus

	resolve := func(src string) string {
		if opts.Resolver != nil {
			return opts.Resolver.ResolveURL(src)
		}
		return src
	}

	loadMedia := func() {
		if opts.Index == nil {
			return
		}
		gen := sf.BeginMediaLoad()
		status.SetText("Loading media…")
		go func() {
			mctx, cancel := context.WithTimeout(ctx, mediaTimeout)
			defer cancel()
			idx, err := opts.Index.Load(mctx)
			fyne.Do(func() {
				if err != nil {
					l.Warn("media index unavailable", slog.Any("err", err))
					status.SetText("Media unavailable, showing text cards.")
					return
				}
				if !sf.ApplyMediaIndex(gen, media.Guesser{Index: idx, Overrides: opts.Overrides}) {
					return
				}
				preloadAudio(ctx, rec, sf.Catalog(), resolve, l)
				sc.Refresh()
				updateStatus()
			})
		}()
	}

	exportAs := func(f export.Format) {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			defer func() { _ = uc.Close() }()
			snap := sf.ExportSnapshot()
			scene := export.NewScene(snap, sf.Catalog(), sf.Layout())
			eo := export.Options{
				Rasterizer: export.Rasterizer{PixelRatio: opts.PixelRatio, Thumbnail: opts.Thumbnails},
				SVG:        export.SVGOptions{Resolve: resolve},
			}
			// synchronous on the UI goroutine, like the other dialogs
			if err := export.Encode(ctx, uc, f, snap, scene, eo); err != nil {
				l.Error("export failed", slog.String("format", string(f)), slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			telemetry.Exported(string(f), len(scene.Cards))
			status.SetText("Exported to " + uc.URI().Path())
		}, w)
		save.SetFileName(f.FileName())
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{"." + string(f)}))
		if opts.OutDir != "" {
			if abs, err := filepath.Abs(opts.OutDir); err == nil {
				if lu, err := fstorage.ListerForURI(fstorage.NewFileURI(abs)); err == nil {
					save.SetLocation(lu)
				}
			}
		}
		save.Show()
	}

	newPool := func() {
		sf.Refresh()
		sc.changed()
	}
	resetView := func() {
		sf.ResetView()
		sc.changed()
	}
	clearAll := func() {
		if len(sf.Items()) == 0 {
			return
		}
		dialog.ShowConfirm("Clear canvas", "Remove every item from the canvas?", func(ok bool) {
			if ok {
				sf.ClearAll()
				sc.changed()
			}
		}, w)
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRefreshIcon(), newPool),
		widget.NewToolbarAction(theme.ZoomFitIcon(), resetView),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), clearAll),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { exportAs(export.FormatPNG) }),
	)

	var exportItems []*fyne.MenuItem
	for _, f := range export.Formats {
		exportItems = append(exportItems, fyne.NewMenuItem(fmt.Sprintf("Export %s…", formatTitle(f)), func() { exportAs(f) }))
	}
	fileMenu := fyne.NewMenu("File", exportItems...)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("New Pool", newPool),
		fyne.NewMenuItem("Reset View", resetView),
		fyne.NewMenuItem("Reload Media", loadMedia),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected", func() {
			if sf.RemoveSelected() {
				sc.changed()
			}
		}),
		fyne.NewMenuItem("Clear Canvas", clearAll),
	)
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About TPL Studio", func() {
		dialog.ShowInformation("About", version.String(), w)
	}))
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, aboutMenu))

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) { sc.HandleKey(ev) })
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, sc))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})
	stop := context.AfterFunc(ctx, func() { fyne.Do(fyneApp.Quit) })
	defer stop()

	telemetry.SessionStarted("desktop")
	updateStatus()
	loadMedia()
	w.ShowAndRun()
	return nil
}

// preloadAudio registers every audio reference with the engine so a drop
// plays at once.
func preloadAudio(ctx context.Context, eng audio.Engine, cat *domain.Catalog, resolve func(string) string, l *slog.Logger) {
	for _, r := range cat.All() {
		m, ok := r.PrimaryMedia()
		if !ok || m.Kind() != domain.MediaAudio {
			continue
		}
		if err := eng.Load(ctx, r.ID, resolve(m.Source())); err != nil {
			l.Debug("audio preload failed", slog.String("ref", r.ID), slog.Any("err", err))
		}
	}
}

func formatTitle(f export.Format) string {
	switch f {
	case export.FormatPNG:
		return "PNG"
	case export.FormatPDF:
		return "PDF"
	case export.FormatSVG:
		return "SVG"
	case export.FormatZip:
		return "Bundle (ZIP)"
	}
	return "Snapshot JSON"
}
