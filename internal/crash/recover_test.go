/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSnap struct {
	b   []byte
	err error
}

func (f fakeSnap) SnapshotJSON() ([]byte, error) { return f.b, f.err }

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func interceptUpload(t *testing.T) *[]byte {
	t.Helper()
	var got []byte
	old := uploadFn
	uploadFn = func(b []byte) { got = b }
	t.Cleanup(func() { uploadFn = old })
	return &got
}

func findFile(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func TestRecoverWritesReportAndRescue(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	uploaded := interceptUpload(t)
	dir := t.TempDir()

	func() {
		defer Recover(dir, fakeSnap{b: []byte(`{"version":1,"items":[]}`)})
		panic("boom")
	}()

	report := findFile(t, dir, "crash-", ".log")
	if report == "" {
		t.Fatalf("no crash report in %s", dir)
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", b)
	}
	rescue := findFile(t, dir, "rescue-", ".json")
	if rescue == "" {
		t.Fatalf("no rescue snapshot written")
	}
	if !bytes.Equal(*uploaded, b) {
		t.Fatalf("uploaded report differs from file")
	}
	if *code != 2 {
		t.Fatalf("exit code = %d, want 2", *code)
	}
}

func TestRecoverSnapshotErrorStillReports(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	interceptUpload(t)
	dir := t.TempDir()

	func() {
		defer Recover(dir, fakeSnap{err: errors.New("surface gone")})
		panic(errors.New("layout"))
	}()

	if findFile(t, dir, "crash-", ".log") == "" {
		t.Fatalf("report missing")
	}
	if findFile(t, dir, "rescue-", ".json") != "" {
		t.Fatalf("rescue should not exist when snapshot fails")
	}
	if *code != 2 {
		t.Fatalf("exit code = %d", *code)
	}
}

func TestRecoverNoPanicIsNoop(t *testing.T) {
	code := interceptExit(t)
	func() {
		defer Recover(t.TempDir(), nil)
	}()
	if *code != -1 {
		t.Fatalf("exit called without panic")
	}
}
