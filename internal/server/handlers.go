/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tplstudio/internal/domain"
	"tplstudio/internal/export"
	"tplstudio/internal/layout"
	"tplstudio/internal/surface"
	"tplstudio/internal/telemetry"
)

const maxBody = 1 << 20

// PoolResponse is the stateless pool for a seed and stage.
type PoolResponse struct {
	Seed  int32               `json:"seed"`
	Stage Stage               `json:"stage"`
	Pool  []domain.PoolTile   `json:"pool"`
	Stats layout.ScatterStats `json:"stats"`
}

type WallResponse struct {
	Seed  int32              `json:"seed"`
	Tiles []surface.WallTile `json:"tiles"`
}

type WorldResponse struct {
	Seed  int32              `json:"seed"`
	Tiles []layout.WorldTile `json:"tiles"`
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	q, err := parseStageQuery(r, s.cfg.Surface.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts := s.cfg.Surface
	opts.Seed, opts.StageW, opts.StageH = q.seed, q.w, q.h
	sf := surface.New(s.catalog(r.Context()), opts)
	st := sf.Layout()
	writeJSON(w, http.StatusOK, PoolResponse{
		Seed:  q.seed,
		Stage: Stage{W: st.Stage.W, H: st.Stage.H, Canvas: st.Canvas, Console: st.Console},
		Pool:  sf.Pool(),
		Stats: sf.PoolStats(),
	})
}

func (s *Server) handleWall(w http.ResponseWriter, r *http.Request) {
	q, err := parseStageQuery(r, s.cfg.Surface.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sf := surface.New(s.catalog(r.Context()), s.cfg.Surface)
	writeJSON(w, http.StatusOK, WallResponse{Seed: q.seed, Tiles: sf.MediaWall(q.seed, q.w, q.h)})
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	q, err := parseStageQuery(r, s.cfg.Surface.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	count := 120
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 5000 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("count must be within [0, 5000]"))
			return
		}
		count = n
	}
	ww, wh := q.w, q.h
	if r.URL.Query().Get("w") == "" {
		ww, wh = 4000, 3000
	}
	writeJSON(w, http.StatusOK, WorldResponse{Seed: q.seed, Tiles: layout.World(q.seed, count, ww, wh)})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.createSession(req)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	telemetry.SessionStarted("web")
	writeJSON(w, http.StatusCreated, sess.state(s.resolve))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.state(s.resolve))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.deleteSession(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, ErrNoSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent is the request/response twin of the websocket stream.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var msg Message
	if err := decodeBody(r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	changed, err := sess.handle(msg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if changed {
		sess.changed()
	}
	st := sess.state(s.resolve)
	writeJSON(w, http.StatusOK, Envelope{Type: MsgState, State: &st})
}

func (s *Server) handleMediaReload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	s.loadMedia(sess, true)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	snap, _ := sess.scene()
	w.Header().Set("Content-Type", "application/json")
	attachment(w, export.SnapshotFileName)
	if err := export.WriteSnapshotJSON(w, snap); err != nil {
		s.log.Warn("write snapshot failed", slog.Any("err", err))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	snap, scene := sess.scene()

	var buf bytes.Buffer
	opt := export.Options{Rasterizer: s.rasterizer(), SVG: export.SVGOptions{Resolve: s.resolve}}
	if err := export.Encode(r.Context(), &buf, format, snap, scene, opt); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, export.ErrEmptyRegion) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	telemetry.Exported(string(format), len(scene.Cards))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	attachment(w, format.FileName())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) rasterizer() export.Rasterizer {
	return export.Rasterizer{PixelRatio: s.cfg.PixelRatio, Thumbnail: s.deps.Thumbnails}
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return sess, true
}

type stageQuery struct {
	seed int32
	w, h float64
}

// parseStageQuery reads seed, w and h. Missing values fall back to def and
// the default stage; degenerate sizes are normalized later by layout.
func parseStageQuery(r *http.Request, def int32) (stageQuery, error) {
	q := r.URL.Query()
	out := stageQuery{seed: def, w: layout.DefaultStageW, h: layout.DefaultStageH}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return out, fmt.Errorf("bad seed %q", v)
		}
		out.seed = int32(n)
	}
	if v := q.Get("w"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, fmt.Errorf("bad w %q", v)
		}
		out.w = f
	}
	if v := q.Get("h"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return out, fmt.Errorf("bad h %q", v)
		}
		out.h = f
	}
	return out, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func attachment(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, Envelope{Type: "error", Error: err.Error()})
}
