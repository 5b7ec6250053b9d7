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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tplstudio/internal/catalog"
)

// ErrCatalogProblems is returned by catalog validate when the document does
// not conform.
var ErrCatalogProblems = errors.New("catalog has schema violations")

func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and import reference catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <references.json>",
		Short: "Check a catalog document against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			problems, err := catalog.Validate(data)
			if err != nil {
				return err
			}
			if len(problems) == 0 {
				s, err := catalog.Parse(data)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "ok: %d references (project %s)\n", len(s.References), s.Project)
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(c.out, p)
			}
			return fmt.Errorf("%w: %d", ErrCatalogProblems, len(problems))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <references.json>",
		Short: "Replace the Postgres catalog with a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Catalog.PostgresDSN == "" {
				return errors.New("catalog.postgres_dsn (or TPL_PG_DSN) is not set")
			}
			s, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			src, err := catalog.OpenPG(cmd.Context(), c.cfg.Catalog.PostgresDSN)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()
			if err := src.Import(cmd.Context(), s); err != nil {
				return err
			}
			c.log.Info("catalog imported", slog.Int("references", len(s.References)), slog.String("project", s.Project))
			fmt.Fprintf(c.out, "imported %d references\n", len(s.References))
			return nil
		},
	})
	return cmd
}
