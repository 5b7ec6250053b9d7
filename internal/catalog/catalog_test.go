/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tplstudio/internal/domain"
)

func TestLoadFileParsesReferences(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "references.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Project != "TPL" || len(s.References) != 3 {
		t.Fatalf("unexpected schema: project=%q refs=%d", s.Project, len(s.References))
	}
	song := s.References[1]
	if song.YearLabel() != "2001–2003" {
		t.Fatalf("year label = %q", song.YearLabel())
	}
	m, ok := song.PrimaryMedia()
	if !ok || m.Kind() != domain.MediaAudio || m.Source() != "audio/Ta Gueule.mp3" {
		t.Fatalf("media = %#v", m)
	}
	if s.References[0].Creator != "Mathieu Kassovitz" || s.References[1].Creator != "" {
		t.Fatalf("nullable creator not handled: %+v", s.References[:2])
	}
}

func TestOpenIndexesCatalog(t *testing.T) {
	cat, err := Open(filepath.Join("testdata", "references.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("len = %d", cat.Len())
	}
	if r, ok := cat.Lookup("l%E2%80%99%C3%A9cume"); !ok || r.Creator != "Boris Vian" {
		t.Fatalf("lookup of encoded id failed: %+v %v", r, ok)
	}
}

func TestParseInvalidFallsBack(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"references": [`,
		"missing project": `{"schemaVersion":"1","references":[]}`,
		"bad type":        `{"schemaVersion":"1","project":"p","references":[{"id":"a","type":"opera","title":"A"}]}`,
		"bad media kind":  `{"schemaVersion":"1","project":"p","references":[{"id":"a","type":"film","title":"A","media":{"kind":"gif","src":"x"}}]}`,
	}
	for name, doc := range cases {
		s, err := Parse([]byte(doc))
		if !errors.Is(err, ErrInvalidCatalog) {
			t.Fatalf("%s: want ErrInvalidCatalog, got %v", name, err)
		}
		if s.SchemaVersion != "0.0" || s.Project != "unknown" || len(s.References) != 0 {
			t.Fatalf("%s: fallback = %+v", name, s)
		}
	}
}

func TestValidateReportsProblems(t *testing.T) {
	problems, err := Validate([]byte(`{"schemaVersion":"1","project":"p","references":[{"id":"","type":"film","title":"A"}]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(problems) == 0 || !strings.Contains(strings.Join(problems, " "), "id") {
		t.Fatalf("expected id problem, got %v", problems)
	}
	ok, err := os.ReadFile(filepath.Join("testdata", "references.json"))
	if err != nil {
		t.Fatal(err)
	}
	if problems, _ := Validate(ok); len(problems) != 0 {
		t.Fatalf("valid file reported problems: %v", problems)
	}
}

func TestOpenInvalidReturnsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"project": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := Open(path)
	if !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("want ErrInvalidCatalog, got %v", err)
	}
	if cat == nil || cat.Len() != 0 {
		t.Fatalf("want empty catalog, got %v", cat)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.json")); err == nil || errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("missing file should be an I/O error, got %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("migrations/002_tpl_references_type.sql")
	if err != nil || v != 2 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	if _, err := parseVersion("nope.sql"); err == nil {
		t.Fatalf("expected error for unnumbered file")
	}
}
