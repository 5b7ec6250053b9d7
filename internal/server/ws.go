/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleEvents streams a session: client messages in, state envelopes out.
// Every connection to the same session sees every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", slog.Any("err", err))
		return
	}
	defer conn.Close()

	notify := sess.subscribe()
	defer sess.unsubscribe(notify)

	errs := make(chan error, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxBody)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Warn("websocket read", slog.String("session", sess.id), slog.Any("err", err))
				}
				return
			}
			changed, err := sess.handle(msg)
			switch {
			case err != nil:
				select {
				case errs <- err:
				default:
				}
			case changed:
				sess.changed()
			case msg.Type == MsgState:
				// an explicit state request only answers this connection
				select {
				case notify <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	send := func(env Envelope) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(env); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				s.log.Debug("websocket write", slog.String("session", sess.id), slog.Any("err", err))
			}
			return false
		}
		return true
	}

	st := sess.state(s.resolve)
	if !send(Envelope{Type: MsgState, State: &st}) {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case err := <-errs:
			if !send(Envelope{Type: "error", Error: err.Error()}) {
				return
			}
		case <-notify:
			st := sess.state(s.resolve)
			if !send(Envelope{Type: MsgState, State: &st}) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
