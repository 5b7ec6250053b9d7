/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tplstudio/internal/audio"
	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	"tplstudio/internal/interact"
	"tplstudio/internal/surface"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

var (
	ErrNoSession  = errors.New("server: no such session")
	ErrTooMany    = errors.New("server: too many sessions")
	ErrBadMessage = errors.New("server: bad message")
)

// Message is one client input, over the websocket or POST .../events.
type Message struct {
	Type    string                `json:"type"`
	Pointer *surface.PointerEvent `json:"pointer,omitempty"`
	Key     string                `json:"key,omitempty"`
	Wheel   *WheelEvent           `json:"wheel,omitempty"`
	Seed    *int32                `json:"seed,omitempty"`
	W       float64               `json:"w,omitempty"`
	H       float64               `json:"h,omitempty"`
}

type WheelEvent struct {
	Screen vector.Pt `json:"screen"`
	DeltaY float64   `json:"deltaY"`
}

// Message types.
const (
	MsgPointer    = "pointer"
	MsgKey        = "key"
	MsgWheel      = "wheel"
	MsgRefresh    = "refresh"
	MsgRegenerate = "regenerate"
	MsgResize     = "resize"
	MsgResetView  = "reset-view"
	MsgClear      = "clear"
	MsgState      = "state"
)

// Envelope is one server reply.
type Envelope struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// Stage is the geometry a client needs to draw the page.
type Stage struct {
	W       float64     `json:"w"`
	H       float64     `json:"h"`
	Canvas  vector.Rect `json:"canvas"`
	Console vector.Rect `json:"console"`
}

// State is what a client renders.
type State struct {
	ID       string              `json:"id"`
	Seed     int32               `json:"seed"`
	Mode     string              `json:"mode"`
	Selected string              `json:"selected,omitempty"`
	Captured int                 `json:"captured,omitempty"`
	View     viewport.View       `json:"view"`
	Stage    Stage               `json:"stage"`
	Pool     []domain.PoolTile   `json:"pool"`
	Items    []domain.CanvasItem `json:"items"`
	Ghost    *surface.Ghost      `json:"ghost,omitempty"`
	Guides   []vector.Guide      `json:"guides,omitempty"`
	// Audio maps the reference id of every audio item to a playable URL.
	Audio map[string]string `json:"audio,omitempty"`
}

type session struct {
	id string

	mu  sync.Mutex
	sf  *surface.Surface
	rec *audio.Recorder

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// CreateRequest opens a session. Zero values mean the configured defaults.
type CreateRequest struct {
	Seed *int32  `json:"seed,omitempty"`
	W    float64 `json:"w,omitempty"`
	H    float64 `json:"h,omitempty"`
}

func (s *Server) createSession(req CreateRequest) (*session, error) {
	opts := s.cfg.Surface
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.W > 0 {
		opts.StageW = req.W
	}
	if req.H > 0 {
		opts.StageH = req.H
	}
	rec := audio.NewRecorder(nil)
	opts.Audio = rec
	id := uuid.NewString()
	opts.Logger = s.log.With(slog.String("session", id))

	sess := &session{
		id:   id,
		sf:   surface.New(s.base, opts),
		rec:  rec,
		subs: map[chan struct{}]struct{}{},
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, ErrTooMany
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info("session created", slog.String("session", id), slog.Int("seed", int(opts.Seed)))
	s.loadMedia(sess, false)
	return sess, nil
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *Server) deleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// loadMedia fills the session's references from the media index in the
// background. A later load supersedes an earlier one still in flight.
func (s *Server) loadMedia(sess *session, force bool) {
	if s.deps.Index == nil {
		return
	}
	sess.mu.Lock()
	gen := sess.sf.BeginMediaLoad()
	sess.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.MediaTimeout)
		defer cancel()
		idx, err := s.mediaIndex(ctx, force)
		if err != nil {
			s.log.Warn("media index unavailable", slog.String("session", sess.id), slog.Any("err", err))
			return
		}
		sess.mu.Lock()
		applied := sess.sf.ApplyMediaIndex(gen, s.guesser(idx))
		if applied {
			s.preloadAudio(ctx, sess)
		}
		sess.mu.Unlock()
		if applied {
			sess.changed()
		}
	}()
}

// preloadAudio registers every audio reference of the catalog with the
// session engine so drops can play at once. Callers hold sess.mu.
func (s *Server) preloadAudio(ctx context.Context, sess *session) {
	for _, r := range sess.sf.Catalog().All() {
		m, ok := r.PrimaryMedia()
		if !ok || m.Kind() != domain.MediaAudio {
			continue
		}
		if err := sess.rec.Load(ctx, r.ID, s.resolve(m.Source())); err != nil {
			s.log.Debug("audio preload failed", slog.String("ref", r.ID), slog.Any("err", err))
		}
	}
}

// handle applies one message and reports whether the state changed.
func (sess *session) handle(msg Message) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sf := sess.sf
	switch msg.Type {
	case MsgPointer:
		if msg.Pointer == nil {
			return false, fmt.Errorf("%w: pointer payload missing", ErrBadMessage)
		}
		sf.Dispatch(*msg.Pointer)
	case MsgKey:
		if msg.Key == "" {
			return false, fmt.Errorf("%w: key missing", ErrBadMessage)
		}
		return sf.Key(msg.Key), nil
	case MsgWheel:
		if msg.Wheel == nil {
			return false, fmt.Errorf("%w: wheel payload missing", ErrBadMessage)
		}
		sf.Wheel(msg.Wheel.Screen, msg.Wheel.DeltaY)
	case MsgRefresh:
		sf.Refresh()
	case MsgRegenerate:
		if msg.Seed == nil {
			return false, fmt.Errorf("%w: seed missing", ErrBadMessage)
		}
		sf.RegeneratePool(*msg.Seed)
	case MsgResize:
		sf.SetStageSize(msg.W, msg.H)
	case MsgResetView:
		sf.ResetView()
	case MsgClear:
		sf.ClearAll()
	case MsgState:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown type %q", ErrBadMessage, msg.Type)
	}
	return true, nil
}

func (sess *session) state(resolve func(string) string) State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sf := sess.sf
	st := sf.Layout()
	out := State{
		ID:       sess.id,
		Seed:     sf.Seed(),
		Mode:     interact.ModeName(sf.Session().Mode),
		Selected: sf.Selected(),
		Captured: sf.Captured(),
		View:     sf.View(),
		Stage:    Stage{W: st.Stage.W, H: st.Stage.H, Canvas: st.Canvas, Console: st.Console},
		Pool:     sf.Pool(),
		Items:    sf.Items(),
		Guides:   sf.Guides(),
	}
	if g, ok := sf.Ghost(); ok {
		out.Ghost = &g
	}
	for id, src := range sf.AudioSources() {
		if u := resolve(src); u != "" {
			if out.Audio == nil {
				out.Audio = map[string]string{}
			}
			out.Audio[id] = u
		}
	}
	return out
}

// scene snapshots the canvas for export.
func (sess *session) scene() (domain.Snapshot, export.Scene) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	snap := sess.sf.ExportSnapshot()
	return snap, export.NewScene(snap, sess.sf.Catalog(), sess.sf.Layout())
}

func (sess *session) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	sess.subMu.Lock()
	sess.subs[ch] = struct{}{}
	sess.subMu.Unlock()
	return ch
}

func (sess *session) unsubscribe(ch chan struct{}) {
	sess.subMu.Lock()
	delete(sess.subs, ch)
	sess.subMu.Unlock()
}

// changed wakes every subscriber without blocking; a pending wake-up
// already covers this change.
func (sess *session) changed() {
	sess.subMu.Lock()
	defer sess.subMu.Unlock()
	for ch := range sess.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
