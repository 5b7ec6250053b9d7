/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage events and crash reports.
// Nothing leaves the machine unless TPL_TELEMETRY_OPT_IN is set and an
// endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "tplstudio/internal/log"
	"tplstudio/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn    = "TPL_TELEMETRY_OPT_IN"
	EnvEvents   = "TPL_TELEMETRY_URL"
	EnvCrash    = "TPL_CRASH_UPLOAD_URL"
	EnvTimeout  = "TPL_TELEMETRY_TIMEOUT"
	EnvDebugLog = "TPL_TELEMETRY_DEBUG"
)

// Event names.
const (
	EventSessionStarted = "session_started"
	EventExported       = "composition_exported"
	EventCatalogLoaded  = "catalog_loaded"
)

// maxPropLen bounds string props so free text never ends up in an event.
const maxPropLen = 64

type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEvents)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrash)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebugLog) != "",
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client sends events from one background goroutine. The queue is bounded;
// events are dropped when it is full or a request fails.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan map[string]any
	pending sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
	defaultMu     sync.Mutex
)

func std() *Client {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		if defaultClient == nil {
			defaultClient = New(FromEnv())
		}
		defaultMu.Unlock()
	})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// SetDefault installs c as the package client and returns the previous one.
func SetDefault(c *Client) *Client {
	std()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events would be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

func Enabled() bool { return std().Enabled() }

// Event queues a named event. Only scalar props are kept and strings are
// cut to a short length.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if v, ok := scalar(v); ok {
			payload[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Done()
	}
}

func Event(name string, props map[string]any) { std().Event(name, props) }

// SessionStarted records which front-end opened a composition.
func SessionStarted(frontEnd string) {
	Event(EventSessionStarted, map[string]any{"frontend": frontEnd})
}

// Exported records an export by format and item count.
func Exported(format string, items int) {
	Event(EventExported, map[string]any{"format": format, "items": items})
}

// CatalogLoaded records where the catalog came from and its size.
func CatalogLoaded(source string, refs int) {
	Event(EventCatalogLoaded, map[string]any{"source": source, "refs": refs})
}

func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case bool, int, int32, int64, float64:
		return x, true
	case string:
		if len(x) > maxPropLen {
			x = x[:maxPropLen]
		}
		return x, true
	}
	return nil, false
}

// Flush waits until every queued event and crash upload finished, or ctx
// is done.
func (c *Client) Flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the sender. Queued events are dropped.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			buf, _ := json.Marshal(item)
			c.post(c.cfg.EventsURL, "application/json", buf)
			c.pending.Done()
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report when opted in and a crash URL is set.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.pending.Add(1)
	go func(b []byte) {
		defer c.pending.Done()
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b)
	}(append([]byte(nil), report...))
}

func UploadCrash(report []byte) { std().UploadCrash(report) }

// FlushDefault flushes the package client, bounded by timeout.
func FlushDefault(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	std().Flush(ctx)
}
