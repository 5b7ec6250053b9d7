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
	"net/http"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"tplstudio/internal/export"
	applog "tplstudio/internal/log"
	"tplstudio/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr          string
		catalogPath   string
		overridesPath string
		maxSessions   int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the composition API over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := c.openCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			ov, err := c.overrides(overridesPath)
			if err != nil {
				return err
			}
			ld, closeFn, err := c.mediaLoader(ctx, mediaMaxAge)
			if err != nil {
				return err
			}
			defer closeFn()

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			res := c.resolver()
			origins := c.cfg.Server.CORSOrigins
			srv := server.New(server.Config{
				Addr:        addr,
				AllowAll:    len(origins) == 0 || slices.Contains(origins, "*"),
				Origins:     origins,
				Surface:     c.surfaceOptions(),
				PixelRatio:  c.cfg.Export.PixelRatio,
				MaxSessions: maxSessions,
			}, cat, server.Deps{
				Index:      ld,
				Overrides:  ov,
				Resolver:   res,
				Thumbnails: export.HTTPThumbnails(&http.Client{Timeout: 10 * time.Second}, res.ResolveURL),
				Logger:     applog.WithComponent("server"),
			})
			return runServer(ctx, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog document (default: catalog.path)")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "media overrides YAML (default: bundled)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "live session limit")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down with a grace
// period.
func runServer(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
