/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a report file plus a last
// export of the composition the user was working on.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "tplstudio/internal/log"
	"tplstudio/internal/telemetry"
	"tplstudio/internal/version"
)

// exitFn and uploadFn are swapped in tests.
var (
	exitFn   = os.Exit
	uploadFn = func(report []byte) {
		telemetry.UploadCrash(report)
		telemetry.FlushDefault(2 * time.Second)
	}
)

// Snapshotter produces the JSON snapshot of the live composition. Compositions
// have no backing store, so a panic would otherwise lose the user's work.
type Snapshotter interface {
	SnapshotJSON() ([]byte, error)
}

// Recover captures a panic, logs it with the stack, writes a report into dir
// (os.TempDir when empty) and a rescue snapshot when snap is non-nil, then
// exits with code 2.
//
// Usage: defer crash.Recover(dir, surface)
func Recover(dir string, snap Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	if dir == "" {
		dir = os.TempDir()
	}
	stamp := time.Now().Format("20060102-150405")
	reportPath, report, err := writeReport(dir, stamp, r, stack)
	if err != nil {
		l.Error("crash report write failed", slog.Any("err", err))
	}
	uploadFn(report)
	if snap != nil {
		if p, err := writeRescue(dir, stamp, snap); err != nil {
			l.Error("rescue snapshot failed", slog.Any("err", err))
		} else {
			l.Info("rescue snapshot written", slog.String("path", p))
		}
	}

	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func writeReport(dir, stamp string, panicVal any, stack []byte) (string, []byte, error) {
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "TPL Studio Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, buf.Bytes(), err
	}
	return path, buf.Bytes(), os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeRescue(dir, stamp string, snap Snapshotter) (path string, err error) {
	// the snapshotter may itself be in a broken state
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	b, err := snap.SnapshotJSON()
	if err != nil {
		return "", err
	}
	path = filepath.Join(dir, fmt.Sprintf("rescue-%s.json", stamp))
	return path, os.WriteFile(path, b, 0o644)
}
