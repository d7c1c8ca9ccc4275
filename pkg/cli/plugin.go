// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/packager"
	"github.com/urfave/cli/v3"
)

func pluginCmd() *cli.Command {
	return &cli.Command{
		Name:                  "plugin",
		EnableShellCompletion: true,
		Usage:                 "create, validate and package plugins",
		Commands: []*cli.Command{
			pluginNewCmd(),
			pluginLintCmd(),
			pluginPackageCmd(),
		},
	}
}

func pluginNewCmd() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "scaffold a new plugin folder",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "folder to create the plugin in (default \"./<name>\")"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, 0, "name")
			if err != nil {
				return err
			}
			dir := cmd.String("path")
			if dir == "" {
				dir = name
			}

			if err := writeYAMLFile(filepath.Join(dir, "package.yaml"), manifest.MetaData{
				Name: name,
				Tag:  "0.1.0",
			}); err != nil {
				return reportCLIError(err)
			}
			if err := writeYAMLFile(filepath.Join(dir, "config.yaml"), manifest.RunConfig{}); err != nil {
				return reportCLIError(err)
			}
			if err := os.MkdirAll(filepath.Join(dir, "functions"), 0o755); err != nil {
				return reportCLIError(qerrors.Wrap(qerrors.CodeIO, "create functions folder", err))
			}

			slog.Info("scaffolded plugin", "name", name, "path", dir)
			fmt.Fprintf(cmd.Writer, "created plugin %q at %s\n", name, dir)
			return nil
		},
	}
}

func pluginLintCmd() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "parse and validate a plugin folder without packaging it",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			plugin, err := manifest.LoadPluginFolder(path)
			if err != nil {
				return reportCLIError(err)
			}
			if err := plugin.Validate(); err != nil {
				return reportCLIError(err)
			}
			slog.Info("plugin is valid", "name", plugin.Metadata.Name, "tag", plugin.Metadata.Tag)
			fmt.Fprintf(cmd.Writer, "%s@%s is valid\n", plugin.Metadata.Name, plugin.Metadata.Tag)
			return nil
		},
	}
}

func pluginPackageCmd() *cli.Command {
	return &cli.Command{
		Name:      "package",
		Usage:     "pack a plugin folder into a distributable archive",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dest", Aliases: []string{"d"}, Value: ".", Usage: "destination folder for the archive"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing archive"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			plugin, err := manifest.LoadPluginFolder(path)
			if err != nil {
				return reportCLIError(err)
			}
			if err := plugin.Validate(); err != nil {
				return reportCLIError(err)
			}

			readme, err := packager.FindReadme(path)
			if err != nil {
				return reportCLIError(err)
			}

			version, archive, err := packager.Pack(plugin, readme, time.Now().UTC())
			if err != nil {
				return reportCLIError(err)
			}

			dest := filepath.Join(cmd.String("dest"), version.URL)
			if !cmd.Bool("force") {
				if _, statErr := os.Stat(dest); statErr == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite", dest)
				}
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return reportCLIError(qerrors.Wrap(qerrors.CodeIO, "create destination folder", err))
			}
			if err := os.WriteFile(dest, archive, 0o644); err != nil {
				return reportCLIError(qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", dest), err))
			}

			slog.Info("packaged plugin", "name", version.Name, "tag", version.Tag, "digest", version.Digest, "path", dest)
			fmt.Fprintf(cmd.Writer, "packaged %s-%s.tgz (%s)\n", version.Name, version.Tag, version.Digest)
			return nil
		},
	}
}
