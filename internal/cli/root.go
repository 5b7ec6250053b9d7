/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the tplstudio command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tplstudio/internal/config"
	applog "tplstudio/internal/log"
	"tplstudio/internal/version"
)

// CLI carries the loaded configuration and the output stream shared by all
// commands.
type CLI struct {
	out    io.Writer
	cfg    config.AppConfig
	secret string
	log    *slog.Logger

	verbose    bool
	configPath string
	// loadConfig is swapped in tests.
	loadConfig func() (config.AppConfig, string, error)
}

// New returns a CLI writing command output to out.
func New(out io.Writer) *CLI {
	return &CLI{out: out, cfg: config.Defaults(), log: applog.Discard(), loadConfig: config.Load}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tplstudio",
		Short:         "Compose reference boards from a scattered media pool",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.out)
	root.SetVersionTemplate("tplstudio {{.Version}}\n")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.mediaCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.uiCommand())
	return root
}

func (c *CLI) setup() error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, c.configPath); err != nil {
			return err
		}
	}
	cfg, secret, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg, c.secret = cfg, secret

	opts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if c.verbose {
		opts.Level = "debug"
	}
	applog.Init(opts)
	c.log = applog.WithComponent("cli")
	return nil
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return New(os.Stdout).RootCommand().ExecuteContext(ctx)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(c.out, version.String())
			return err
		},
	}
}
