/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package audio defines the playback engine a surface talks to. Decoding and
// output belong to the front-end; headless sessions use Recorder.
package audio

import (
	"context"
	"fmt"
	"sync"
)

// Engine plays previews of audio references. Play calls for a clip that was
// never loaded are ignored.
type Engine interface {
	Ensure() error
	Load(ctx context.Context, id, url string) error
	PlayOneShot(id string)
	// StartLoop stops the current loop before starting the new one.
	StartLoop(id string)
	StopLoop()
	// SilenceHard stops everything that is playing right now.
	SilenceHard()
}

// Fetcher retrieves the bytes of a clip.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Call is one recorded engine call.
type Call struct {
	Op string
	ID string
}

// Recorder is an Engine without output. It keeps the loaded clips, the
// current loop and a log of calls, which makes it usable both for headless
// sessions and in tests.
type Recorder struct {
	mu      sync.Mutex
	fetch   Fetcher
	ready   bool
	clips   map[string]int
	looping string
	calls   []Call
}

// NewRecorder returns a Recorder. With a nil fetch, Load only remembers the
// clip id.
func NewRecorder(fetch Fetcher) *Recorder {
	return &Recorder{fetch: fetch, clips: map[string]int{}}
}

func (r *Recorder) Ensure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = true
	return nil
}

func (r *Recorder) Load(ctx context.Context, id, url string) error {
	if err := r.Ensure(); err != nil {
		return err
	}
	r.mu.Lock()
	_, ok := r.clips[id]
	r.mu.Unlock()
	if ok {
		return nil
	}
	var n int
	if r.fetch != nil {
		b, err := r.fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("load clip %s: %w", id, err)
		}
		n = len(b)
	}
	r.mu.Lock()
	r.clips[id] = n
	r.calls = append(r.calls, Call{Op: "load", ID: id})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) PlayOneShot(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clips[id]; !ok || !r.ready {
		return
	}
	r.calls = append(r.calls, Call{Op: "play", ID: id})
}

func (r *Recorder) StartLoop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clips[id]; !ok || !r.ready {
		return
	}
	r.stopLoopLocked()
	r.looping = id
	r.calls = append(r.calls, Call{Op: "loop", ID: id})
}

func (r *Recorder) StopLoop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLoopLocked()
}

func (r *Recorder) stopLoopLocked() {
	if r.looping == "" {
		return
	}
	r.calls = append(r.calls, Call{Op: "stop", ID: r.looping})
	r.looping = ""
}

func (r *Recorder) SilenceHard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLoopLocked()
	r.calls = append(r.calls, Call{Op: "silence"})
}

// Looping returns the id of the clip currently looping, if any.
func (r *Recorder) Looping() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.looping
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
