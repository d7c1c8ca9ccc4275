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

	"github.com/pollination/queenbee/pkg/config"
	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/registry"
	"github.com/pollination/queenbee/pkg/serve"
	"github.com/pollination/queenbee/pkg/transport"
	"github.com/urfave/cli/v3"
)

func repoCmd() *cli.Command {
	return &cli.Command{
		Name:                  "repo",
		EnableShellCompletion: true,
		Usage:                 "manage repository folders and the locally registered repository list",
		Commands: []*cli.Command{
			repoInitCmd(),
			repoIndexCmd(),
			repoAddCmd(),
			repoListCmd(),
			repoRemoveCmd(),
			repoSearchCmd(),
			repoGetCmd(),
			repoServeCmd(),
		},
	}
}

func repoInitCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "create an empty repository folder layout",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			for _, sub := range []string{"plugins", "recipes"} {
				if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
					return reportCLIError(qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create %s", sub), err))
				}
			}
			idx := manifest.NewRepositoryIndex()
			if err := writeIndexFile(path, *idx); err != nil {
				return reportCLIError(err)
			}

			slog.Info("initialized repository", "path", path)
			fmt.Fprintf(cmd.Writer, "initialized repository at %s\n", path)
			return nil
		},
	}
}

func repoIndexCmd() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "(re)generate a repository's index.json from its archives",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "merge", Aliases: []string{"m"}, Usage: "merge discovered archives into the existing index instead of replacing it"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "when merging, overwrite entries whose digest differs"},
			&cli.BoolFlag{Name: "skip", Aliases: []string{"s"}, Usage: "when merging, keep the existing entry on digest conflict instead of failing"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}

			var idx manifest.RepositoryIndex
			if cmd.Bool("merge") {
				existing, err := readIndexFile(path)
				if err != nil {
					return reportCLIError(err)
				}
				idx, err = registry.MergeFolder(existing, path, cmd.Bool("force"), cmd.Bool("skip"))
				if err != nil {
					return reportCLIError(err)
				}
			} else {
				idx, err = registry.GenerateFromFolder(path)
				if err != nil {
					return reportCLIError(err)
				}
			}

			if err := writeIndexFile(path, idx); err != nil {
				return reportCLIError(err)
			}

			slog.Info("indexed repository", "path", path, "plugins", len(idx.Plugin), "recipes", len(idx.Recipe))
			fmt.Fprintf(cmd.Writer, "indexed %d plugins and %d recipes\n", len(idx.Plugin), len(idx.Recipe))
			return nil
		},
	}
}

func repoAddCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "register a repository under a local name",
		ArgsUsage: "<name> <url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing repository with the same name"},
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, 0, "name")
			if err != nil {
				return err
			}
			url, err := requireArg(cmd, 1, "url")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}
			if _, exists := cfg.RepositoryByName(name); exists && !cmd.Bool("force") {
				return fmt.Errorf("repository %q already registered, use --force to overwrite", name)
			}
			cfg.SetRepository(config.Repository{Name: name, Path: url})
			if err := cfg.Write(); err != nil {
				return reportCLIError(err)
			}

			slog.Info("added repository", "name", name, "url", url)
			fmt.Fprintf(cmd.Writer, "added repository %q -> %s\n", name, url)
			return nil
		},
	}
}

func repoListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list the locally registered repositories",
		Flags: []cli.Flag{outputFlag, formatFlag, configFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}
			return renderResult(ctx, cmd, cfg.Repositories)
		},
	}
}

func repoRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "unregister a repository",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, 0, "name")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}
			if !cfg.RemoveRepository(name) {
				return fmt.Errorf("no repository named %q", name)
			}
			if err := cfg.Write(); err != nil {
				return reportCLIError(err)
			}

			slog.Info("removed repository", "name", name)
			fmt.Fprintf(cmd.Writer, "removed repository %q\n", name)
			return nil
		},
	}
}

func repoSearchCmd() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "search registered repositories for plugins and recipes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "limit the search to one registered repository"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "limit the search to one package kind (plugin, recipe)"},
			&cli.StringFlag{Name: "query", Aliases: []string{"s"}, Usage: "substring or keyword query"},
			outputFlag,
			formatFlag,
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}

			var kind *manifest.PackageKind
			if t := cmd.String("type"); t != "" {
				k := manifest.PackageKind(t)
				kind = &k
			}

			repos := cfg.Repositories
			if name := cmd.String("repo"); name != "" {
				repo, ok := cfg.RepositoryByName(name)
				if !ok {
					return fmt.Errorf("no repository named %q", name)
				}
				repos = []config.Repository{repo}
			}

			var results []manifest.PackageVersion
			fetcher := transport.New()
			for _, repo := range repos {
				idx, err := fetchIndex(ctx, fetcher, cfg, repo)
				if err != nil {
					return reportCLIError(err)
				}
				decorated := registry.DecorateSlug(idx, repo.Name)
				results = append(results, registry.Search(decorated, kind, cmd.String("query"))...)
			}

			return renderResult(ctx, cmd, results)
		},
	}
}

func repoGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "fetch a single package's metadata from a registered repository",
		ArgsUsage: "<kind> <repo> <name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Value: "latest", Usage: "package tag to fetch"},
			outputFlag,
			formatFlag,
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kindArg, err := requireArg(cmd, 0, "kind")
			if err != nil {
				return err
			}
			repoName, err := requireArg(cmd, 1, "repo")
			if err != nil {
				return err
			}
			name, err := requireArg(cmd, 2, "name")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}
			repo, ok := cfg.RepositoryByName(repoName)
			if !ok {
				return fmt.Errorf("no repository named %q", repoName)
			}

			fetcher := transport.New()
			idx, err := fetchIndex(ctx, fetcher, cfg, repo)
			if err != nil {
				return reportCLIError(err)
			}

			pv, ok := registry.PackageByTag(idx, manifest.PackageKind(kindArg), name, cmd.String("tag"))
			if !ok {
				return reportCLIError(qerrors.New(qerrors.CodePackageNotFound,
					fmt.Sprintf("%s %s@%s not found in %s", kindArg, name, cmd.String("tag"), repoName)))
			}
			return renderResult(ctx, cmd, pv)
		},
	}
}

func repoServeCmd() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "serve a repository folder over HTTP",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Value: "0.0.0.0", Usage: "listen address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "listen port"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			cfg := serve.DefaultConfig(path, cmd.String("address"), int(cmd.Int("port")))
			server := serve.New(cfg)

			slog.Info("serving repository", "path", path, "address", cfg.Address, "port", cfg.Port)
			if err := server.Run(ctx); err != nil {
				return reportCLIError(err)
			}
			return nil
		},
	}
}

// fetchIndex resolves repo's index.json: a non-HTTP(S) source is read
// from disk as a folder path, an HTTP(S) one is fetched through fetcher
// with any configured auth header for its source.
func fetchIndex(ctx context.Context, fetcher *transport.Fetcher, cfg *config.Config, repo config.Repository) (manifest.RepositoryIndex, error) {
	source := repo.Path
	if !isRemoteSource(source) {
		return readIndexFile(source)
	}

	indexURL := joinIndexURL(source)
	data, err := fetcher.Fetch(ctx, indexURL, authHeaderForSource(cfg, indexURL))
	if err != nil {
		return manifest.RepositoryIndex{}, err
	}
	var idx manifest.RepositoryIndex
	if err := decodeIndexJSON(data, &idx); err != nil {
		return manifest.RepositoryIndex{}, err
	}
	return idx, nil
}

func isRemoteSource(source string) bool {
	return len(source) > 7 && (source[:7] == "http://" || source[:8] == "https://")
}

func joinIndexURL(source string) string {
	if source[len(source)-1] == '/' {
		return source + "index.json"
	}
	return source + "/index.json"
}
