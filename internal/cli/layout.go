/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"tplstudio/internal/layout"
	"tplstudio/internal/server"
	"tplstudio/internal/surface"
)

type layoutFlags struct {
	seed    int32
	w, h    float64
	catalog string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int32Var(&f.seed, "seed", 0, "layout seed (default: general.seed)")
	cmd.Flags().Float64Var(&f.w, "width", 0, "stage width (default: layout.stage_default_w)")
	cmd.Flags().Float64Var(&f.h, "height", 0, "stage height (default: layout.stage_default_h)")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog document (default: catalog.path)")
}

func (f *layoutFlags) apply(cmd *cobra.Command, opts surface.Options) surface.Options {
	if cmd.Flags().Changed("seed") {
		opts.Seed = f.seed
	}
	if f.w > 0 {
		opts.StageW = f.w
	}
	if f.h > 0 {
		opts.StageH = f.h
	}
	return opts
}

func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print a seeded layout as JSON",
	}

	var sf layoutFlags
	scatter := &cobra.Command{
		Use:   "scatter",
		Short: "Scatter the reference pool around the canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.openCatalog(cmd.Context(), sf.catalog)
			if err != nil {
				return err
			}
			opts := sf.apply(cmd, c.surfaceOptions())
			s := surface.New(cat, opts)
			st := s.Layout()
			return writeIndented(c.out, server.PoolResponse{
				Seed:  s.Seed(),
				Stage: server.Stage{W: st.Stage.W, H: st.Stage.H, Canvas: st.Canvas, Console: st.Console},
				Pool:  s.Pool(),
				Stats: s.PoolStats(),
			})
		},
	}
	sf.register(scatter)

	var rf layoutFlags
	radial := &cobra.Command{
		Use:   "radial",
		Short: "Lay the whole catalog on the golden angle media wall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.openCatalog(cmd.Context(), rf.catalog)
			if err != nil {
				return err
			}
			opts := rf.apply(cmd, c.surfaceOptions())
			s := surface.New(cat, opts)
			st := s.Layout()
			return writeIndented(c.out, server.WallResponse{
				Seed:  opts.Seed,
				Tiles: s.MediaWall(opts.Seed, st.Stage.W, st.Stage.H),
			})
		},
	}
	rf.register(radial)

	var (
		wf    layoutFlags
		count int
	)
	world := &cobra.Command{
		Use:   "world",
		Short: "Scatter decorative tiles over a large world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := wf.apply(cmd, c.surfaceOptions())
			w, h := 4000.0, 3000.0
			if wf.w > 0 && wf.h > 0 {
				w, h = wf.w, wf.h
			}
			return writeIndented(c.out, server.WorldResponse{
				Seed:  opts.Seed,
				Tiles: layout.World(opts.Seed, count, w, h),
			})
		},
	}
	wf.register(world)
	world.Flags().IntVar(&count, "count", 120, "number of tiles")

	cmd.AddCommand(scatter, radial, world)
	return cmd
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
