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

	"github.com/pollination/queenbee/pkg/dependency"
	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/packager"
	"github.com/urfave/cli/v3"
)

func recipeCmd() *cli.Command {
	return &cli.Command{
		Name:                  "recipe",
		EnableShellCompletion: true,
		Usage:                 "create, lock, validate and package recipes",
		Commands: []*cli.Command{
			recipeNewCmd(),
			recipeInstallCmd(),
			recipeLinkCmd(),
			recipeLintCmd(),
			recipePackageCmd(),
		},
	}
}

func recipeNewCmd() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "scaffold a new recipe folder",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, 0, "name")
			if err != nil {
				return err
			}

			if err := writeYAMLFile(filepath.Join(name, "recipe.yaml"), manifest.MetaData{
				Name: name,
				Tag:  "0.1.0",
			}); err != nil {
				return reportCLIError(err)
			}
			if err := writeYAMLFile(filepath.Join(name, "dependencies.yaml"), struct {
				Dependencies []manifest.Dependency `json:"dependencies" yaml:"dependencies"`
			}{}); err != nil {
				return reportCLIError(err)
			}
			if err := writeYAMLFile(filepath.Join(name, "flow", "main.yaml"), manifest.DAG{
				Name:     manifest.MainDAGName,
				Tasks:    []manifest.Task{},
				FailFast: true,
			}); err != nil {
				return reportCLIError(err)
			}

			slog.Info("scaffolded recipe", "name", name)
			fmt.Fprintf(cmd.Writer, "created recipe %q\n", name)
			return nil
		},
	}
}

func recipeInstallCmd() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "resolve and fetch a recipe's dependencies, caching them under .dependencies",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			recipe, err := manifest.LoadRecipeFolder(path)
			if err != nil {
				return reportCLIError(err)
			}
			if err := recipe.Validate(); err != nil {
				return reportCLIError(err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}

			resolver := dependency.New(newFetcher())
			locked, err := resolver.Lock(ctx, recipe, authHeaderForSource(cfg, firstDependencySource(recipe)))
			if err != nil {
				return reportCLIError(err)
			}

			if err := dependency.WriteDependencyLock(path, locked.Dependencies); err != nil {
				return reportCLIError(err)
			}
			if err := dependency.WriteDependenciesFolder(path, locked); err != nil {
				return reportCLIError(err)
			}

			slog.Info("installed dependencies", "recipe", recipe.Metadata.Name, "count", len(locked.Dependencies))
			fmt.Fprintf(cmd.Writer, "locked %d dependencies for %s\n", len(locked.Dependencies), recipe.Metadata.Name)
			return nil
		},
	}
}

func recipeLinkCmd() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "point a dependency at a local folder for iterative development",
		ArgsUsage: "<dependency> <local-path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dep, err := requireArg(cmd, 0, "dependency")
			if err != nil {
				return err
			}
			localPath, err := requireArg(cmd, 1, "local-path")
			if err != nil {
				return err
			}

			// the recipe folder itself is the current directory: unlike
			// "recipe lint"/"recipe package", which take an explicit path,
			// link operates on the recipe in the working directory so it
			// can be run repeatedly during local development.
			recipe, err := manifest.LoadRecipeFolder(".")
			if err != nil {
				return reportCLIError(err)
			}

			linked, err := dependency.LinkDependency(recipe, dep, localPath)
			if err != nil {
				return reportCLIError(err)
			}
			if err := dependency.WriteDependencyLock(".", linked.Dependencies); err != nil {
				return reportCLIError(err)
			}

			slog.Info("linked dependency", "dependency", dep, "path", localPath)
			fmt.Fprintf(cmd.Writer, "linked %s to %s\n", dep, localPath)
			return nil
		},
	}
}

func recipeLintCmd() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "parse and validate a recipe folder without packaging it",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "upload", Aliases: []string{"u"}, Usage: "additionally resolve dependencies against configured repositories"},
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			recipe, err := manifest.LoadRecipeFolder(path)
			if err != nil {
				return reportCLIError(err)
			}
			if err := recipe.Validate(); err != nil {
				return reportCLIError(err)
			}

			if cmd.Bool("upload") {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return reportCLIError(err)
				}
				resolver := dependency.New(newFetcher())
				if _, err := resolver.Lock(ctx, recipe, authHeaderForSource(cfg, firstDependencySource(recipe))); err != nil {
					return reportCLIError(err)
				}
			}

			slog.Info("recipe is valid", "name", recipe.Metadata.Name, "tag", recipe.Metadata.Tag)
			fmt.Fprintf(cmd.Writer, "%s@%s is valid\n", recipe.Metadata.Name, recipe.Metadata.Tag)
			return nil
		},
	}
}

func recipePackageCmd() *cli.Command {
	return &cli.Command{
		Name:      "package",
		Usage:     "lock and pack a recipe folder into a distributable archive",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Value: ".", Usage: "destination repository folder"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing archive"},
			&cli.BoolFlag{Name: "no-update", Usage: "prefer the .dependencies cache over refetching"},
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, 0, "path")
			if err != nil {
				return err
			}
			recipe, err := manifest.LoadRecipeFolder(path)
			if err != nil {
				return reportCLIError(err)
			}
			if err := recipe.Validate(); err != nil {
				return reportCLIError(err)
			}

			locked, err := lockRecipe(ctx, cmd, path, recipe)
			if err != nil {
				return reportCLIError(err)
			}
			recipe.Dependencies = locked.Dependencies

			readme, err := packager.FindReadme(path)
			if err != nil {
				return reportCLIError(err)
			}
			version, archive, err := packager.Pack(recipe, readme, time.Now().UTC())
			if err != nil {
				return reportCLIError(err)
			}

			dest := filepath.Join(cmd.String("repo"), "recipes", version.URL)
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

			slog.Info("packaged recipe", "name", version.Name, "tag", version.Tag, "digest", version.Digest, "path", dest)
			fmt.Fprintf(cmd.Writer, "packaged %s-%s.tgz (%s)\n", version.Name, version.Tag, version.Digest)
			return nil
		},
	}
}

// lockRecipe resolves recipe's dependencies, writing the lockfile and the
// offline cache back to path, unless --no-update asked to read the cache
// back instead of refetching.
func lockRecipe(ctx context.Context, cmd *cli.Command, path string, recipe manifest.Recipe) (dependency.LockResult, error) {
	if cmd.Bool("no-update") {
		return lockFromCache(path, recipe)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return dependency.LockResult{}, err
	}
	resolver := dependency.New(newFetcher())
	locked, err := resolver.Lock(ctx, recipe, authHeaderForSource(cfg, firstDependencySource(recipe)))
	if err != nil {
		return dependency.LockResult{}, err
	}
	if err := dependency.WriteDependencyLock(path, locked.Dependencies); err != nil {
		return dependency.LockResult{}, err
	}
	if err := dependency.WriteDependenciesFolder(path, locked); err != nil {
		return dependency.LockResult{}, err
	}
	return locked, nil
}

// lockFromCache builds a LockResult entirely out of recipe's already
// digest-pinned dependencies and path's .dependencies cache, without any
// network access.
func lockFromCache(path string, recipe manifest.Recipe) (dependency.LockResult, error) {
	byDigest := make(map[string]dependency.Resolved, len(recipe.Dependencies))
	for _, dep := range recipe.Dependencies {
		if dep.Digest == "" {
			return dependency.LockResult{}, qerrors.New(qerrors.CodeDependencyNotFound,
				fmt.Sprintf("dependency %q has no locked digest; run recipe install first", dep.RefName()))
		}
		resource, err := dependency.ReadDependencyManifest(path, packageKindOf(dep.Kind), dep.Digest)
		if err != nil {
			return dependency.LockResult{}, err
		}
		byDigest[dep.Digest] = dependency.Resolved{Dependency: dep, Manifest: resource}
	}
	return dependency.LockResult{Dependencies: recipe.Dependencies, ByDigest: byDigest}, nil
}

// packageKindOf maps a Dependency's Kind to the PackageKind its archive
// is indexed under; the two enums share string values but are distinct
// types so a direct cast would not compile.
func packageKindOf(kind manifest.DependencyKind) manifest.PackageKind {
	if kind == manifest.DependencyPlugin {
		return manifest.PackageKindPlugin
	}
	return manifest.PackageKindRecipe
}

// firstDependencySource returns the source URI of recipe's first
// dependency, enough to resolve which configured auth entry (if any)
// applies; individual dependencies may still carry different hosts, which
// the resolver's own per-fetch authHeader argument does not yet vary by,
// matching the single authHeader parameter pkg/dependency.Resolver.Lock
// exposes.
func firstDependencySource(recipe manifest.Recipe) string {
	if len(recipe.Dependencies) == 0 {
		return ""
	}
	return recipe.Dependencies[0].Source
}
