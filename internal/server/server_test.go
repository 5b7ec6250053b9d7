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
	"context"
	"fmt"
	"image/png"
	"math"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tplstudio/internal/domain"
	"tplstudio/internal/interact"
	applog "tplstudio/internal/log"
	"tplstudio/internal/media"
	"tplstudio/internal/surface"
	"tplstudio/internal/vector"
)

func testCatalog() *domain.Catalog {
	refs := make([]domain.Reference, 0, 6)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("ref-%02d", i)
		refs = append(refs, domain.Reference{
			ID:    id,
			Type:  domain.TypeFilm,
			Title: "Film " + id,
			Media: domain.Ref(domain.Image{Src: "image/" + id + ".jpg"}),
		})
	}
	refs = append(refs, domain.Reference{ID: "poem", Type: domain.TypeTexte, Title: "Poem"})
	return domain.NewCatalog(refs)
}

type countingLoader struct {
	calls atomic.Int32
	files []media.File
}

func (l *countingLoader) Load(context.Context) (media.Index, error) {
	l.calls.Add(1)
	return media.NewIndex(l.files), nil
}

func newTestServer(t *testing.T, cfg Config, deps Deps) (*Server, *Client) {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = applog.Discard()
	}
	srv := New(cfg, testCatalog(), deps)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, NewClient(ts.URL + "/")
}

func seed(v int32) *int32 { return &v }

func pointer(kind interact.EventKind, x, y float64) Message {
	return Message{Type: MsgPointer, Pointer: &surface.PointerEvent{Kind: kind, Pointer: 1, Screen: vector.Pt{X: x, Y: y}}}
}

// dropFirstTile drags the first pool tile onto the canvas center.
func dropFirstTile(t *testing.T, c *Client, st State) State {
	t.Helper()
	if len(st.Pool) == 0 {
		t.Fatalf("empty pool")
	}
	from := st.View.WorldToScreen(st.Pool[0].Center())
	to := st.View.WorldToScreen(st.Stage.Canvas.Center())
	ctx := context.Background()
	var err error
	for _, msg := range []Message{
		pointer(interact.Down, from.X, from.Y),
		pointer(interact.Move, to.X, to.Y),
		pointer(interact.Up, to.X, to.Y),
	} {
		if st, err = c.Send(ctx, st.ID, msg); err != nil {
			t.Fatalf("send %s: %v", msg.Pointer.Kind, err)
		}
	}
	return st
}

func TestHealthz(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestPoolIsDeterministic(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	ctx := context.Background()
	a, err := c.Pool(ctx, 7, 1200, 700)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	b, err := c.Pool(ctx, 7, 1200, 700)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(a.Pool) == 0 || len(a.Pool) != len(b.Pool) {
		t.Fatalf("pool sizes %d vs %d", len(a.Pool), len(b.Pool))
	}
	for i := range a.Pool {
		if a.Pool[i] != b.Pool[i] {
			t.Fatalf("tile %d differs: %+v vs %+v", i, a.Pool[i], b.Pool[i])
		}
		if !strings.HasPrefix(a.Pool[i].ID, "pool-") {
			t.Fatalf("tile id %q", a.Pool[i].ID)
		}
	}
	if a.Stats.Placed != len(a.Pool) {
		t.Fatalf("stats placed=%d pool=%d", a.Stats.Placed, len(a.Pool))
	}
	if a.Stage.Canvas != vector.R(228, 78, 744, 440) {
		t.Fatalf("canvas=%+v", a.Stage.Canvas)
	}
}

func TestBadQueryIsRejected(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	err := c.doJSON(context.Background(), "GET", "/api/pool?seed=abc", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("want 400, got %v", err)
	}
}

func TestWallCoversCatalog(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	wall, err := c.Wall(context.Background(), 3, 1600, 900)
	if err != nil {
		t.Fatalf("wall: %v", err)
	}
	if len(wall.Tiles) != 6 {
		t.Fatalf("want every reference on the wall, got %d", len(wall.Tiles))
	}
	for _, tl := range wall.Tiles {
		if tl.X < 0 || tl.Y < 0 || tl.X+tl.W > 1600 || tl.Y+tl.H > 900 {
			t.Fatalf("tile outside world: %+v", tl)
		}
	}
}

func TestSessionDropAndExport(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	ctx := context.Background()
	st, err := c.CreateSession(ctx, CreateRequest{Seed: seed(1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.ID == "" || st.Mode != "idle" || st.Seed != 1 {
		t.Fatalf("initial state %+v", st)
	}
	refID := st.Pool[0].RefID
	st = dropFirstTile(t, c, st)
	if len(st.Items) != 1 || st.Items[0].RefID != refID {
		t.Fatalf("items=%+v", st.Items)
	}
	if it := st.Items[0]; math.Abs(it.X+it.W/2-372) > 1e-6 || math.Abs(it.Y+it.H/2-220) > 1e-6 {
		t.Fatalf("item not centered on the drop point: %+v", it)
	}
	if st.Mode != "idle" || st.Ghost != nil || st.Captured != 0 {
		t.Fatalf("gesture leftovers: %+v", st)
	}

	snap, err := c.Snapshot(ctx, st.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Version != domain.SnapshotVersion || len(snap.Items) != 1 {
		t.Fatalf("snapshot=%+v", snap)
	}

	data, err := c.Export(ctx, st.ID, "png")
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width != 744*2 || cfg.Height != (440+18+120)*2 {
		t.Fatalf("png config %+v err=%v", cfg, err)
	}
	if data, err = c.Export(ctx, st.ID, "pdf"); err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("pdf: %v", err)
	}
	if data, err = c.Export(ctx, st.ID, "svg"); err != nil || !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("svg: %v", err)
	}
	if _, err := c.Export(ctx, st.ID, "gif"); err == nil {
		t.Fatalf("want error for unknown format")
	}
}

func TestMessagesAndErrors(t *testing.T) {
	_, c := newTestServer(t, Config{}, Deps{})
	ctx := context.Background()
	st, err := c.CreateSession(ctx, CreateRequest{Seed: seed(5)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st, err = c.Send(ctx, st.ID, Message{Type: MsgRefresh}); err != nil || st.Seed != 6 {
		t.Fatalf("refresh: seed=%d err=%v", st.Seed, err)
	}
	if st, err = c.Send(ctx, st.ID, Message{Type: MsgRegenerate, Seed: seed(42)}); err != nil || st.Seed != 42 {
		t.Fatalf("regenerate: seed=%d err=%v", st.Seed, err)
	}
	fitted := st.View
	if st, err = c.Send(ctx, st.ID, Message{Type: MsgWheel, Wheel: &WheelEvent{Screen: vector.Pt{X: 600, Y: 350}, DeltaY: -100}}); err != nil || st.View.Scale <= fitted.Scale {
		t.Fatalf("wheel: view=%+v err=%v", st.View, err)
	}
	if st, err = c.Send(ctx, st.ID, Message{Type: MsgResetView}); err != nil || st.View != fitted {
		t.Fatalf("reset view: view=%+v want %+v err=%v", st.View, fitted, err)
	}
	for _, bad := range []Message{{Type: "bogus"}, {Type: MsgPointer}, {Type: MsgRegenerate}} {
		if _, err := c.Send(ctx, st.ID, bad); err == nil || !strings.Contains(err.Error(), "400") {
			t.Fatalf("%q: want 400, got %v", bad.Type, err)
		}
	}
	if err := c.DeleteSession(ctx, st.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.State(ctx, st.ID); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want 404 after delete, got %v", err)
	}
}

func TestSessionLimit(t *testing.T) {
	_, c := newTestServer(t, Config{MaxSessions: 1}, Deps{})
	ctx := context.Background()
	if _, err := c.CreateSession(ctx, CreateRequest{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateSession(ctx, CreateRequest{}); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("want 503, got %v", err)
	}
}

func TestMediaIndexIsSharedAndApplied(t *testing.T) {
	loader := &countingLoader{files: []media.File{media.NewFile(domain.MediaImage, "image/poem.jpg")}}
	srv, c := newTestServer(t, Config{}, Deps{Index: loader, Resolver: media.NewResolver("https://cdn.example", "")})
	ctx := context.Background()

	st, err := c.CreateSession(ctx, CreateRequest{Seed: seed(1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	srv.wg.Wait()
	sess, err := srv.lookup(st.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	sess.mu.Lock()
	poem, _ := sess.sf.Catalog().ByID("poem")
	sess.mu.Unlock()
	if m, ok := poem.PrimaryMedia(); !ok || m.Source() != "image/poem.jpg" {
		t.Fatalf("poem should carry the guessed image, got %v", m)
	}

	if _, err := c.CreateSession(ctx, CreateRequest{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	srv.wg.Wait()
	if n := loader.calls.Load(); n != 1 {
		t.Fatalf("index should be loaded once, got %d", n)
	}
	if err := c.doJSON(ctx, "POST", "/api/sessions/"+st.ID+"/media/reload", nil, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	srv.wg.Wait()
	if n := loader.calls.Load(); n != 2 {
		t.Fatalf("reload should force a second load, got %d", n)
	}
}

func TestWebsocketStream(t *testing.T) {
	srv := New(Config{AllowAll: true}, testCatalog(), Deps{Logger: applog.Discard()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	c := NewClient(ts.URL)
	ctx := context.Background()
	st, err := c.CreateSession(ctx, CreateRequest{Seed: seed(9)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + st.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() Envelope {
		t.Helper()
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		return env
	}
	if env := read(); env.Type != MsgState || env.State == nil || env.State.Seed != 9 {
		t.Fatalf("first envelope %+v", env)
	}
	if err := conn.WriteJSON(Message{Type: MsgRefresh}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := read(); env.State == nil || env.State.Seed != 10 {
		t.Fatalf("after refresh %+v", env)
	}
	if err := conn.WriteJSON(Message{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := read(); env.Type != "error" || !strings.Contains(env.Error, "bogus") {
		t.Fatalf("want error envelope, got %+v", env)
	}

	// changes made over HTTP reach the stream too
	if _, err := c.Send(ctx, st.ID, Message{Type: MsgRegenerate, Seed: seed(77)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if env := read(); env.State == nil || env.State.Seed != 77 {
		t.Fatalf("after http regenerate %+v", env)
	}
}
