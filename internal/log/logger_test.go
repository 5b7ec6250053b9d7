/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitWritesJSONFile checks that the rotating file handler receives JSON
// records carrying the static and contextual attributes.
func TestInitWritesJSONFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "tpl.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "console", File: fpath, Writer: &console})

	l := WithOperation(WithComponent("layout"), "scatter")
	l.Info("placed", slog.Int("n", 18))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "tplstudio" {
		t.Fatalf("app attr: %v", m["app"])
	}
	if m["component"] != "layout" || m["op"] != "scatter" {
		t.Fatalf("context attrs: %v", m)
	}
	if m["n"] != float64(18) {
		t.Fatalf("n attr: %v", m["n"])
	}
	if !strings.Contains(console.String(), "[layout] placed") {
		t.Fatalf("console output missing component bracket: %q", console.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TPL_LOG_LEVEL", "warn")
	t.Setenv("TPL_LOG_FORMAT", "json")
	t.Setenv("TPL_LOG_SOURCE", "true")
	t.Setenv("TPL_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("TPL_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback: %q", v)
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "media"), slog.String("bucket", "tpl-web")}).WithGroup("idx")
	r := slog.NewRecord(time.Now(), slog.LevelError, "listing failed", 0)
	r.AddAttrs(slog.Int("files", 42), slog.Float64("ratio", 0.5), slog.String("path", "a b"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "[media]", "listing failed", "bucket=tpl-web", "idx.files=42", "idx.ratio=0.5", `idx.path="a b"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestTeeFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := tee{newConsoleHandler(&a, slog.LevelInfo, false), newConsoleHandler(&b, slog.LevelError, false)}
	l := slog.New(h)
	l.Info("only-a")
	l.Error("both")
	if !strings.Contains(a.String(), "only-a") || !strings.Contains(a.String(), "both") {
		t.Fatalf("first handler output: %q", a.String())
	}
	if strings.Contains(b.String(), "only-a") || !strings.Contains(b.String(), "both") {
		t.Fatalf("second handler output: %q", b.String())
	}
}
