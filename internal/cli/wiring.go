/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tplstudio/internal/catalog"
	"tplstudio/internal/domain"
	"tplstudio/internal/layout"
	applog "tplstudio/internal/log"
	"tplstudio/internal/media"
	"tplstudio/internal/storage"
	"tplstudio/internal/surface"
	"tplstudio/internal/telemetry"
	"tplstudio/internal/vector"
	"tplstudio/internal/viewport"
)

// mediaMaxAge is how long a cached bucket listing is trusted by serve and ui.
const mediaMaxAge = 15 * time.Minute

func (c *CLI) surfaceOptions() surface.Options {
	l, v := c.cfg.Layout, c.cfg.Viewport
	return surface.Options{
		Seed:     c.cfg.General.Seed,
		PoolSize: l.PoolSize,
		StageW:   l.StageDefaultW,
		StageH:   l.StageDefaultH,
		Scatter: layout.ScatterOptions{
			MinW:        l.TileMinW,
			MaxW:        l.TileMaxW,
			MinH:        l.TileMinH,
			MaxH:        l.TileMaxH,
			Margin:      layout.DefaultScatterOptions.Margin,
			Gap:         l.TileGap,
			MaxAttempts: l.MaxAttempts,
		},
		Radial:   layout.RadialOptions{Passes: l.RelaxPasses},
		Viewport: viewport.Options{MinZoom: v.MinZoom, MaxZoom: v.MaxZoom, FitBoost: v.FitBoost, FitPadding: v.FitPadding},
		Snap: vector.SnapOptions{
			Threshold:     l.SnapThresholdPx,
			SnapToEdges:   l.SnapToGuides,
			SnapToCenters: l.SnapToGuides,
		},
	}
}

// openCatalog picks the catalog source: an explicit path, then the
// configured file, then Postgres, then the empty fallback. A document that
// fails validation is logged and served as the fallback.
func (c *CLI) openCatalog(ctx context.Context, path string) (*domain.Catalog, error) {
	l := applog.WithOperation(c.log, "open_catalog")
	if path == "" {
		path = c.cfg.Catalog.Path
	}
	if path != "" {
		cat, err := catalog.Open(path)
		switch {
		case errors.Is(err, catalog.ErrInvalidCatalog):
			l.Warn("catalog invalid, using fallback", slog.String("path", path), slog.Any("err", err))
			return cat, nil
		case err != nil:
			return nil, err
		}
		l.Info("catalog loaded", slog.String("path", path), slog.Int("references", cat.Len()))
		telemetry.CatalogLoaded("file", cat.Len())
		return cat, nil
	}
	if dsn := c.cfg.Catalog.PostgresDSN; dsn != "" {
		src, err := catalog.OpenPG(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer func() { _ = src.Close() }()
		s, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		l.Info("catalog loaded from postgres", slog.Int("references", len(s.References)))
		telemetry.CatalogLoaded("postgres", len(s.References))
		return domain.NewCatalog(s.References), nil
	}
	l.Warn("no catalog configured, using fallback")
	return domain.NewCatalog(catalog.Fallback(time.Now()).References), nil
}

// mediaLoader builds the index loader over the sqlite cache and, when a
// storage endpoint or key is configured, the S3 lister. The returned func
// closes the cache.
func (c *CLI) mediaLoader(ctx context.Context, maxAge time.Duration) (*media.Loader, func(), error) {
	st := c.cfg.Storage
	ld := &media.Loader{MaxAge: maxAge, Logger: applog.WithComponent("media")}
	closeFn := func() {}

	path := st.CachePath
	if path == "" {
		if p, err := storage.DefaultCachePath(); err == nil {
			path = p
		}
	}
	if path != "" {
		mc, err := storage.OpenMediaCache(path)
		if err != nil {
			c.log.Warn("media cache unavailable", slog.String("path", path), slog.Any("err", err))
		} else {
			ld.Cache = mc
			closeFn = func() { _ = mc.Close() }
		}
	}
	if st.Endpoint != "" || st.AccessKeyID != "" {
		lister, err := media.NewS3Lister(ctx, media.S3Config{
			Bucket:          st.Bucket,
			Region:          st.Region,
			Endpoint:        st.Endpoint,
			PathStyle:       st.PathStyle,
			AccessKeyID:     st.AccessKeyID,
			SecretAccessKey: c.secret,
		})
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("s3 lister: %w", err)
		}
		ld.Lister = lister
	}
	return ld, closeFn, nil
}

func (c *CLI) resolver() *media.Resolver {
	return media.NewResolver(c.cfg.Storage.PublicBaseURL, c.cfg.Storage.Bucket)
}

// overrides returns the curated media overrides, from path when given.
func (c *CLI) overrides(path string) (media.Overrides, error) {
	if path == "" {
		return media.DefaultOverrides(), nil
	}
	return media.LoadOverrides(path)
}

// guesser fills reference media from the bundled overrides and whatever
// index the loader can produce. Loading is best effort.
func (c *CLI) guesser(ctx context.Context) media.Guesser {
	g := media.Guesser{Overrides: media.DefaultOverrides()}
	ld, closeFn, err := c.mediaLoader(ctx, mediaMaxAge)
	if err != nil {
		c.log.Warn("media index unavailable", slog.Any("err", err))
		return g
	}
	defer closeFn()
	if idx, err := ld.Load(ctx); err == nil {
		g.Index = idx
	} else {
		c.log.Debug("media index not loaded", slog.Any("err", err))
	}
	return g
}
