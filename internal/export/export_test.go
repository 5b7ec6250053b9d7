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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tplstudio/internal/domain"
	"tplstudio/internal/layout"
	"tplstudio/internal/vector"
)

func sampleCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.Reference{
		{ID: "img", Type: domain.TypeFilm, Title: "Photo", Media: domain.Ref(domain.Image{Src: "image/a.png"})},
		{ID: "note", Type: domain.TypeJeuVideo, Title: "a & b <c>"},
		{ID: "clip", Type: domain.TypeMusique, Title: "Track", Media: domain.Ref(domain.Audio{Src: "audio/a.mp3"})},
	})
}

func sampleSnapshot() domain.Snapshot {
	return domain.NewSnapshot([]domain.CanvasItem{
		{ID: "c1", RefID: "img", Kind: domain.KindImage, Rect: vector.R(20, 20, 200, 150)},
		{ID: "c2", RefID: "note", Kind: domain.KindText, Rect: vector.R(300, 40, 220, 140)},
		{ID: "c3", RefID: "gone", Kind: domain.KindText, Rect: vector.R(300, 240, 220, 140)},
		{ID: "c4", RefID: "clip", Kind: domain.KindAudio, Rect: vector.R(20, 260, 240, 96)},
	}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func sampleScene() Scene {
	return NewScene(sampleSnapshot(), sampleCatalog(), layout.Stage(layout.DefaultStageW, layout.DefaultStageH))
}

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestNewSceneResolvesCards(t *testing.T) {
	s := sampleScene()
	if len(s.Cards) != 3 {
		t.Fatalf("want 3 cards (missing ref dropped), got %d", len(s.Cards))
	}
	want := []string{"IMAGE", "JEU VIDEO", "AUDIO"}
	for i, c := range s.Cards {
		if c.Label != want[i] {
			t.Fatalf("card %d label=%q want %q", i, c.Label, want[i])
		}
	}
	if s.Cards[0].Src != "image/a.png" {
		t.Fatalf("src=%q", s.Cards[0].Src)
	}
	if sz := s.Size(); sz.W != 744 || sz.H != 440+18+120 {
		t.Fatalf("size=%+v", sz)
	}
}

func TestRenderPixelRatioAndRegions(t *testing.T) {
	img, err := Rasterizer{}.Render(context.Background(), sampleScene())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1488 || b.Dy() != 1156 {
		t.Fatalf("bounds=%v", b)
	}
	checks := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"canvas border", 0, 0, borderCol},
		{"canvas body", 10, 10, white},
		{"grid line", 96, 20, gridCol},
		{"gap", 800, 898, white},
		{"console", 800, 1080, mutedCol},
		{"image placeholder", 240, 228, mutedCol},
	}
	for _, c := range checks {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Fatalf("%s at (%d,%d): got %v want %v", c.name, c.x, c.y, got, c.want)
		}
	}
}

func TestRenderDrawsThumbnail(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	var asked []string
	r := Rasterizer{PixelRatio: 2, Thumbnail: func(_ context.Context, src string) (image.Image, bool) {
		asked = append(asked, src)
		return solid(10, 10, red), true
	}}
	img, err := r.Render(context.Background(), sampleScene())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(asked) != 1 || asked[0] != "image/a.png" {
		t.Fatalf("thumbnail requests=%v", asked)
	}
	if got := img.RGBAAt(240, 228); got.R < 200 || got.G > 50 {
		t.Fatalf("thumbnail center not red: %v", got)
	}
}

func TestEmptyRegion(t *testing.T) {
	if _, err := (Rasterizer{}).Capture(context.Background(), Scene{}); !errors.Is(err, ErrEmptyRegion) {
		t.Fatalf("want ErrEmptyRegion, got %v", err)
	}
	if err := WriteSVG(io.Discard, Scene{}, SVGOptions{}); !errors.Is(err, ErrEmptyRegion) {
		t.Fatalf("svg: want ErrEmptyRegion, got %v", err)
	}
}

func TestCaptureIsPNG(t *testing.T) {
	data, err := Rasterizer{PixelRatio: 1}.Capture(context.Background(), sampleScene())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 744 || cfg.Height != 578 {
		t.Fatalf("size=%dx%d", cfg.Width, cfg.Height)
	}
}

func TestWritePDF(t *testing.T) {
	data, err := Rasterizer{}.Capture(context.Background(), sampleScene())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, data); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if err := WritePDF(io.Discard, []byte("nope")); err == nil {
		t.Fatalf("want error for non-png capture")
	}
}

func TestFitContainCentersOnLandscapeA4(t *testing.T) {
	r := fitContain(200, 100, vector.R(0, 0, 841.89, 595.28))
	if math.Abs(r.W-841.89) > 1e-6 || math.Abs(r.H-420.945) > 1e-6 {
		t.Fatalf("size=%vx%v", r.W, r.H)
	}
	if math.Abs(r.X) > 1e-6 || math.Abs(r.Y-(595.28-420.945)/2) > 1e-6 {
		t.Fatalf("origin=%v,%v", r.X, r.Y)
	}
	if z := fitContain(0, 10, vector.R(0, 0, 10, 10)); z.W != 0 || z.H != 0 {
		t.Fatalf("degenerate source should give an empty rect: %+v", z)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sampleScene(), SVGOptions{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "viewBox=\"0 0 744 578\"", "data-ref=\"img\"", "a &amp; b &lt;c&gt;", consoleTxt} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q", want)
		}
	}
	if strings.Contains(out, "<image") {
		t.Fatalf("no image elements expected without a resolver")
	}

	buf.Reset()
	opt := SVGOptions{Resolve: func(src string) string { return "https://cdn.example/" + src }}
	if err := WriteSVG(&buf, sampleScene(), opt); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.Contains(buf.String(), "href=\"https://cdn.example/image/a.png\"") {
		t.Fatalf("image href missing")
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshotJSON(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"version\": 1,") {
		t.Fatalf("want two-space indent, got %s", buf.String())
	}
	got, err := ReadSnapshotJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Items) != 4 || got.Items[2].RefID != "gone" || got.Items[3].W != 240 {
		t.Fatalf("items=%+v", got.Items)
	}

	buf.Reset()
	if err := WriteSnapshotJSON(&buf, domain.Snapshot{Version: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\"items\": []") {
		t.Fatalf("empty snapshot should carry an empty items array: %s", buf.String())
	}
	if _, err := ReadSnapshotJSON(strings.NewReader("{\"version\": 9, \"items\": []}")); err == nil {
		t.Fatalf("want error for a newer version")
	}
}

func TestDirThumbnails(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "image"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(4, 3, white)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "image", "a.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	thumb := DirThumbnails(root)
	img, ok := thumb(context.Background(), "image/a.png")
	if !ok || img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("local thumbnail not decoded: ok=%v", ok)
	}
	if _, ok := thumb(context.Background(), "https://cdn.example/image/a.png"); ok {
		t.Fatalf("absolute urls must not be read from disk")
	}
	if _, ok := thumb(context.Background(), "image/missing.png"); ok {
		t.Fatalf("missing file should report no thumbnail")
	}
}

func TestHTTPThumbnails(t *testing.T) {
	var body bytes.Buffer
	if err := png.Encode(&body, solid(2, 2, white)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body.Bytes())
	}))
	defer srv.Close()

	thumb := HTTPThumbnails(srv.Client(), func(src string) string { return srv.URL + "/" + src })
	if _, ok := thumb(context.Background(), "image/a.png"); !ok {
		t.Fatalf("want thumbnail over http")
	}
	if _, ok := thumb(context.Background(), "image/b.png"); ok {
		t.Fatalf("404 should report no thumbnail")
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "nested", SnapshotFileName)
	if err := WriteFile(p, func(w io.Writer) error { return WriteSnapshotJSON(w, sampleSnapshot()) }); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if st, err := os.Stat(p); err != nil || st.Size() == 0 {
		t.Fatalf("stat: %v", err)
	}

	bad := filepath.Join(filepath.Dir(p), PNGFileName)
	boom := errors.New("boom")
	if err := WriteFile(bad, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want writer error, got %v", err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("failed export should not leave a file behind")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": FormatPNG, ".PDF": FormatPDF, " svg ": FormatSVG, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FormatSVG.ContentType() != "image/svg+xml" || FormatJSON.FileName() != SnapshotFileName {
		t.Fatalf("unexpected format metadata")
	}
}

func TestEncode(t *testing.T) {
	ctx := context.Background()
	snap, s := sampleSnapshot(), sampleScene()
	opt := Options{Rasterizer: Rasterizer{PixelRatio: 1}}

	var buf bytes.Buffer
	if err := Encode(ctx, &buf, FormatJSON, snap, s, opt); err != nil {
		t.Fatalf("json: %v", err)
	}
	back, err := ReadSnapshotJSON(&buf)
	if err != nil || len(back.Items) != len(snap.Items) {
		t.Fatalf("json round trip: %d items, %v", len(back.Items), err)
	}

	buf.Reset()
	if err := Encode(ctx, &buf, FormatPDF, snap, s, opt); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf output missing header")
	}

	if err := Encode(ctx, io.Discard, Format("gif"), snap, s, opt); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if err := Encode(ctx, io.Discard, FormatPNG, snap, Scene{}, opt); !errors.Is(err, ErrEmptyRegion) {
		t.Fatalf("expected ErrEmptyRegion, got %v", err)
	}
}

func TestBundle(t *testing.T) {
	snap, s := sampleSnapshot(), sampleScene()
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, FormatZip, snap, s, Options{Rasterizer: Rasterizer{PixelRatio: 1}}); err != nil {
		t.Fatalf("bundle: %v", err)
	}
	data := buf.Bytes()
	if !IsBundle(data) {
		t.Fatalf("output is not a zip")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{BundleManifest, SnapshotFileName, PNGFileName, PDFFileName, SVGFileName} {
		if !names[want] {
			t.Fatalf("bundle lacks %s (has %v)", want, names)
		}
	}

	back, err := ReadBundleSnapshot(data)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if len(back.Items) != len(snap.Items) || back.Items[0].RefID != "img" {
		t.Fatalf("unexpected snapshot %+v", back)
	}
	if IsBundle([]byte(`{"version":1}`)) {
		t.Fatalf("json detected as bundle")
	}
}

func TestReadBundleWithoutSnapshot(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.txt"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBundleSnapshot(buf.Bytes()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}
