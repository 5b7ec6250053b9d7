/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tplstudio/internal/vector"
)

func TestMediaRefJSONIsTaggedUnion(t *testing.T) {
	in := `[{"kind":"image","src":"image/a.jpg","alt":"A"},{"kind":"video","src":"video/b.mp4","poster":"p.jpg"},{"kind":"audio","src":"audio/c.mp3","title":"C"}]`
	var refs []MediaRef
	if err := json.Unmarshal([]byte(in), &refs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := refs[0].Media.(Image); !ok {
		t.Fatalf("first should be Image, got %T", refs[0].Media)
	}
	if v, ok := refs[1].Media.(Video); !ok || v.Poster != "p.jpg" {
		t.Fatalf("second should be Video with poster, got %#v", refs[1].Media)
	}
	if a, ok := refs[2].Media.(Audio); !ok || a.Title != "C" || a.Source() != "audio/c.mp3" {
		t.Fatalf("third should be Audio, got %#v", refs[2].Media)
	}
	out, err := json.Marshal(refs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("wire form changed:\n got %s\nwant %s", out, in)
	}
}

func TestMediaRefRejectsUnknownKind(t *testing.T) {
	var m MediaRef
	if err := json.Unmarshal([]byte(`{"kind":"hologram","src":"x"}`), &m); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if err := json.Unmarshal([]byte(`{"src":"x"}`), &m); err == nil {
		t.Fatalf("missing kind accepted")
	}
}

func TestKinds(t *testing.T) {
	img := Reference{ID: "a", Media: Ref(Image{Src: "a.jpg"})}
	aud := Reference{ID: "b", Media: Ref(Audio{Src: "b.mp3"})}
	gal := Reference{ID: "c", MediaGallery: []MediaRef{{Media: Video{Src: "c.mp4"}}}}
	none := Reference{ID: "d"}

	if PoolKindFor(img) != KindImage || PoolKindFor(aud) != KindText || PoolKindFor(gal) != KindVideo || PoolKindFor(none) != KindText {
		t.Fatalf("pool kinds wrong")
	}
	if ItemKindFor(aud) != KindAudio {
		t.Fatalf("canvas kind for audio should be audio")
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog([]Reference{
		{ID: "texte-laboria-cuboniks-manifeste-xenofeministe-2019", Title: "Manifeste"},
		{ID: "film-été-2020", Title: "Été"},
		{ID: "film-été-2020", Title: "duplicate"},
		{ID: "", Title: "no id"},
	})
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if r, ok := c.ByID("film-été-2020"); !ok || r.Title != "Été" {
		t.Fatalf("first duplicate should win: %+v", r)
	}
	if _, ok := c.Lookup("texte-laboria-cuboniks-manifeste-xenofeministe-2019"); !ok {
		t.Fatalf("exact lookup failed")
	}
	if r, ok := c.Lookup("film-ete-2020"); !ok || r.Title != "Été" {
		t.Fatalf("normalized lookup failed")
	}
	if _, ok := c.Lookup("film-%C3%A9t%C3%A9-2020"); !ok {
		t.Fatalf("percent-encoded lookup failed")
	}
	var nilCat *Catalog
	if _, ok := nilCat.Lookup("x"); ok || nilCat.Len() != 0 {
		t.Fatalf("nil catalog should be empty")
	}
}

func TestNormalizeID(t *testing.T) {
	cases := map[string]string{
		"  Film-Été 2020 ": "film-ete-2020",
		"l'œuvre":          "l-uvre",
		"a---b":            "a-b",
		"--x--":            "x",
	}
	for in, want := range cases {
		if got := NormalizeID(in); got != want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithMediaKeepsExisting(t *testing.T) {
	c := NewCatalog([]Reference{
		{ID: "a", Media: Ref(Image{Src: "orig.jpg"})},
		{ID: "b"},
	})
	filled := c.WithMedia(func(r Reference) (Media, bool) {
		return Image{Src: r.ID + ".jpg"}, true
	})
	a, _ := filled.ByID("a")
	b, _ := filled.ByID("b")
	if a.Media.Source() != "orig.jpg" || b.Media.Source() != "b.jpg" {
		t.Fatalf("WithMedia result: %+v %+v", a.Media, b.Media)
	}
	if orig, _ := c.ByID("b"); orig.Media != nil {
		t.Fatalf("original catalog mutated")
	}
}

func TestSnapshotShape(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSnapshot([]CanvasItem{{ID: "canvas-1", RefID: "r1", Kind: KindImage, Rect: vector.R(10, 20, 240, 160)}}, at)
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"version":1,"createdAt":"2025-03-01T12:00:00Z","items":[{"refId":"r1","kind":"image","x":10,"y":20,"w":240,"h":160}]}`
	if string(b) != want {
		t.Fatalf("snapshot json:\n got %s\nwant %s", b, want)
	}
}

func TestPoolTileFlattensRect(t *testing.T) {
	b, _ := json.Marshal(PoolTile{ID: "pool-a", RefID: "a", Kind: KindText, Rect: vector.R(1, 2, 3, 4)})
	if !strings.Contains(string(b), `"x":1,"y":2,"w":3,"h":4`) {
		t.Fatalf("rect not flattened: %s", b)
	}
}

func TestYearLabelAndTypeLabel(t *testing.T) {
	if (Reference{Year: 2017}).YearLabel() != "2017" {
		t.Fatalf("year")
	}
	if (Reference{YearRange: &YearRange{2016, 2018}}).YearLabel() != "2016–2018" {
		t.Fatalf("range")
	}
	if TypeJeuVideo.Label() != "JEU VIDEO" || !TypePodcast.Valid() || ReferenceType("x").Valid() {
		t.Fatalf("type helpers")
	}
}
