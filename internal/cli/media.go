/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tplstudio/internal/domain"
	"tplstudio/internal/media"
)

func (c *CLI) mediaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Refresh and inspect the bucket media index",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "index",
		Short: "List the bucket and refresh the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ld, closeFn, err := c.mediaLoader(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer closeFn()
			if ld.Lister == nil {
				return errors.New("storage.endpoint or storage.access_key_id must be set to list the bucket")
			}
			idx, err := ld.Load(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range domain.MediaKinds {
				fmt.Fprintf(c.out, "%-6s %d\n", k, len(idx.Files(k)))
			}
			return nil
		},
	})

	var (
		catalogPath   string
		overridesPath string
	)
	match := &cobra.Command{
		Use:   "match",
		Short: "Show the media each reference resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.openCatalog(cmd.Context(), catalogPath)
			if err != nil {
				return err
			}
			ov, err := c.overrides(overridesPath)
			if err != nil {
				return err
			}
			ld, closeFn, err := c.mediaLoader(cmd.Context(), mediaMaxAge)
			if err != nil {
				return err
			}
			defer closeFn()
			idx, err := ld.Load(cmd.Context())
			if err != nil && !errors.Is(err, media.ErrNoSource) {
				return err
			}
			g := media.Guesser{Index: idx, Overrides: ov}
			res := c.resolver()

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSOURCE\tURL")
			for _, r := range cat.All() {
				m, ok := g.MediaFor(r)
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\t-\n", r.ID)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, m.Kind(), m.Source(), res.ResolveURL(m.Source()))
			}
			return tw.Flush()
		},
	}
	match.Flags().StringVar(&catalogPath, "catalog", "", "catalog document (default: catalog.path)")
	match.Flags().StringVar(&overridesPath, "overrides", "", "media overrides YAML (default: bundled)")
	cmd.AddCommand(match)
	return cmd
}
