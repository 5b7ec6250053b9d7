/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tplstudio/internal/domain"
	applog "tplstudio/internal/log"
)

// BundleManifest is the human readable entry at the root of a bundle.
const BundleManifest = "bundle.manifest.txt"

// BundleFileName is the default download name of a bundle.
const BundleFileName = "diy-composition.zip"

// ErrNoSnapshot is returned when a bundle carries no snapshot entry.
var ErrNoSnapshot = errors.New("export: bundle has no snapshot")

// WriteBundle zips the snapshot together with its PNG, PDF and SVG
// renditions. The PDF reuses the PNG capture.
func WriteBundle(ctx context.Context, w io.Writer, snap domain.Snapshot, s Scene, opt Options) error {
	l := applog.WithOperation(applog.WithComponent("export"), "bundle")
	capture, err := opt.Rasterizer.Capture(ctx, s)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	add := func(name string, write func(io.Writer) error) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: snap.CreatedAt})
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		if err := write(fw); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	manifest := fmt.Sprintf("TPL composition bundle\nCreated: %s\nItems: %d\nCards: %d\n",
		snap.CreatedAt.Format(time.RFC3339), len(snap.Items), len(s.Cards))
	entries := []struct {
		name  string
		write func(io.Writer) error
	}{
		{BundleManifest, func(w io.Writer) error { _, err := io.WriteString(w, manifest); return err }},
		{SnapshotFileName, func(w io.Writer) error { return WriteSnapshotJSON(w, snap) }},
		{PNGFileName, func(w io.Writer) error { _, err := w.Write(capture); return err }},
		{PDFFileName, func(w io.Writer) error { return WritePDF(w, capture) }},
		{SVGFileName, func(w io.Writer) error { return WriteSVG(w, s, opt.SVG) }},
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := add(e.name, e.write); err != nil {
			_ = zw.Close()
			l.Error("bundle build failed", slog.Any("err", err))
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	l.Debug("bundle written", slog.Int("entries", len(entries)), slog.Int("cards", len(s.Cards)))
	return nil
}

// ReadBundleSnapshot extracts the snapshot of a bundle held in data.
func ReadBundleSnapshot(data []byte) (domain.Snapshot, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open bundle: %w", err)
	}
	for _, f := range r.File {
		if f.Name != SnapshotFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()
		return ReadSnapshotJSON(rc)
	}
	return domain.Snapshot{}, ErrNoSnapshot
}

// IsBundle reports whether data starts like a zip archive.
func IsBundle(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
