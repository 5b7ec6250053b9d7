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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tplstudio/internal/domain"
)

// Client is a minimal HTTP client for the session API.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a client. baseURL may include a trailing slash; it will
// be normalized.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var env Envelope
		if json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env) == nil && env.Error != "" {
			return nil, fmt.Errorf("server %s %s: %s: %s", method, u.Path, resp.Status, env.Error)
		}
		return nil, fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Health pings /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Pool(ctx context.Context, seed int32, w, h float64) (PoolResponse, error) {
	var out PoolResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/pool?"+stageValues(seed, w, h).Encode(), nil, &out)
	return out, err
}

func (c *Client) Wall(ctx context.Context, seed int32, w, h float64) (WallResponse, error) {
	var out WallResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/wall?"+stageValues(seed, w, h).Encode(), nil, &out)
	return out, err
}

// CreateSession opens a session and returns its first state.
func (c *Client) CreateSession(ctx context.Context, req CreateRequest) (State, error) {
	var st State
	err := c.doJSON(ctx, http.MethodPost, "/api/sessions", req, &st)
	return st, err
}

func (c *Client) State(ctx context.Context, id string) (State, error) {
	var st State
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &st)
	return st, err
}

// Send posts one message and returns the resulting state.
func (c *Client) Send(ctx context.Context, id string, msg Message) (State, error) {
	var env Envelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/events", msg, &env); err != nil {
		return State{}, err
	}
	if env.State == nil {
		return State{}, fmt.Errorf("server sent no state")
	}
	return *env.State, nil
}

func (c *Client) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/snapshot", nil, &snap)
	return snap, err
}

// Export downloads the session rendered as png, pdf or svg.
func (c *Client) Export(ctx context.Context, id, format string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/export."+format, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

func stageValues(seed int32, w, h float64) url.Values {
	v := url.Values{}
	v.Set("seed", fmt.Sprint(seed))
	if w > 0 {
		v.Set("w", fmt.Sprint(w))
	}
	if h > 0 {
		v.Set("h", fmt.Sprint(h))
	}
	return v
}
