/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	applog "tplstudio/internal/log"
)

// Cache persists the last listing so a session can start offline.
type Cache interface {
	LoadFiles(ctx context.Context) ([]File, time.Time, error)
	SaveFiles(ctx context.Context, files []File) error
}

// Loader produces the media index: from the cache when it is fresh enough,
// otherwise from the lister, falling back to a stale cache when listing
// fails.
type Loader struct {
	Lister Lister
	Cache  Cache
	// MaxAge is how long a cached listing is trusted. 0 means always list.
	MaxAge time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// ErrNoSource is returned when neither a lister nor a usable cache exists.
var ErrNoSource = errors.New("media: no lister and no cached index")

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return applog.WithComponent("media")
}

// Load returns the index. It honors ctx cancellation so callers can drop a
// load that outlived its surface.
func (l *Loader) Load(ctx context.Context) (Index, error) {
	lg := applog.WithOperation(l.logger(), "load_index")
	var cached []File
	var cachedAt time.Time
	if l.Cache != nil {
		files, at, err := l.Cache.LoadFiles(ctx)
		switch {
		case err != nil:
			lg.Warn("read media cache failed", slog.Any("err", err))
		case len(files) > 0:
			cached, cachedAt = files, at
			if l.MaxAge > 0 && l.now().Sub(at) < l.MaxAge {
				lg.Debug("using cached index", slog.Int("files", len(files)), slog.Time("at", at))
				return NewIndex(files), nil
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return Index{}, err
	}
	if l.Lister == nil {
		if cached != nil {
			return NewIndex(cached), nil
		}
		return Index{}, ErrNoSource
	}

	files, err := l.Lister.List(ctx)
	if err != nil {
		if ctx.Err() == nil && cached != nil {
			lg.Warn("listing failed, using stale cache", slog.Any("err", err), slog.Time("cached_at", cachedAt))
			return NewIndex(cached), nil
		}
		return Index{}, fmt.Errorf("list media: %w", err)
	}
	if l.Cache != nil {
		if err := l.Cache.SaveFiles(ctx, files); err != nil {
			lg.Warn("write media cache failed", slog.Any("err", err))
		}
	}
	lg.Info("media index loaded", slog.Int("files", len(files)))
	return NewIndex(files), nil
}

// StaticLister serves a fixed set of files.
type StaticLister []File

func (s StaticLister) List(context.Context) ([]File, error) { return append([]File(nil), s...), nil }
