/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openPGForTest(t *testing.T) *PGSource {
	t.Helper()
	dsn := os.Getenv("TPL_PG_DSN")
	if dsn == "" {
		t.Skip("TPL_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	src, err := OpenPG(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	return src
}

func TestPGImportAndLoad(t *testing.T) {
	src := openPGForTest(t)
	defer func() { _ = src.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := LoadFile(filepath.Join("testdata", "references.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := src.Import(ctx, s); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Project != "TPL" || len(got.References) != len(s.References) {
		t.Fatalf("loaded %q with %d refs", got.Project, len(got.References))
	}
	for i := range s.References {
		if got.References[i].ID != s.References[i].ID {
			t.Fatalf("order changed at %d: %s", i, got.References[i].ID)
		}
	}
	if len(got.Types) != 3 {
		t.Fatalf("types = %v", got.Types)
	}
}
