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

package dependency

import (
	"fmt"
	"os"
	"path/filepath"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"

	"gopkg.in/yaml.v3"
)

// dependenciesFolderName is the offline bake cache `recipe install`
// populates inside a recipe folder.
const dependenciesFolderName = ".dependencies"

// dependenciesFileName is the digest-pinned dependency list written back
// to a recipe folder after a successful lock, distinct from the
// dependenciesFolderName manifest cache.
const dependenciesFileName = "dependencies.yaml"

// WriteDependencyLock writes recipeDir/dependencies.yaml with deps,
// replacing whatever dependency list the folder previously held. Callers
// pass LockResult.Dependencies so the file on disk is always digest-pinned
// once a lock has succeeded.
func WriteDependencyLock(recipeDir string, deps []manifest.Dependency) error {
	wrapper := struct {
		Dependencies []manifest.Dependency `json:"dependencies" yaml:"dependencies"`
	}{Dependencies: deps}
	return writeYAMLAtomic(filepath.Join(recipeDir, dependenciesFileName), wrapper)
}

// WriteDependenciesFolder populates recipeDir/.dependencies/{plugins,
// recipes}/<digest>.yaml with the manifest of every dependency discovered
// during locked's resolution, so a later offline bake or package can read
// them back without refetching. The folder is rebuilt under a temporary
// name and renamed into place, so a cancellation leaves the prior state
// untouched.
func WriteDependenciesFolder(recipeDir string, locked LockResult) error {
	finalDir := filepath.Join(recipeDir, dependenciesFolderName)
	tmpDir := finalDir + ".tmp"

	if err := os.RemoveAll(tmpDir); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("clear stale %s", tmpDir), err)
	}
	for _, sub := range []string{"plugins", "recipes"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, sub), 0o755); err != nil {
			return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create %s", sub), err)
		}
	}

	for digest, resolved := range locked.ByDigest {
		sub := "recipes"
		if resolved.Manifest.Kind() == manifest.PackageKindPlugin {
			sub = "plugins"
		}
		path := filepath.Join(tmpDir, sub, digest+".yaml")
		if err := writeYAML(path, resolved.Manifest); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(finalDir); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("clear %s", finalDir), err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("install %s", finalDir), err)
	}
	return nil
}

// ReadDependencyManifest reads back the cached manifest for digest from
// recipeDir's .dependencies folder, decoding it as kind. It returns
// CodeDependencyNotFound if the cache has no entry for digest, so callers
// can fall back to a network fetch.
func ReadDependencyManifest(recipeDir string, kind manifest.PackageKind, digest string) (manifest.Resource, error) {
	sub := "recipes"
	if kind == manifest.PackageKindPlugin {
		sub = "plugins"
	}
	path := filepath.Join(recipeDir, dependenciesFolderName, sub, digest+".yaml")
	if kind == manifest.PackageKindPlugin {
		var p manifest.Plugin
		if err := readYAML(path, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	var r manifest.Recipe
	if err := readYAML(path, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// LinkDependency rewrites the dependency in recipe whose ref-name matches
// ref so its Source points at a "file://" URI over localPath, clearing its
// Digest and Version so resolution bypasses the registry for that entry
// until it is relinked or unlinked. It returns CodeDependencyNotFound if
// no dependency matches ref.
func LinkDependency(recipe manifest.Recipe, ref, localPath string) (manifest.Recipe, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return recipe, qerrors.Wrap(qerrors.CodeInvalidArgument, fmt.Sprintf("resolve %s", localPath), err)
	}

	linked := false
	deps := make([]manifest.Dependency, len(recipe.Dependencies))
	copy(deps, recipe.Dependencies)
	for i, dep := range deps {
		if dep.RefName() != ref {
			continue
		}
		dep.Source = "file://" + filepath.ToSlash(abs)
		dep.Digest = ""
		dep.Version = ""
		deps[i] = dep
		linked = true
	}
	if !linked {
		return recipe, qerrors.New(qerrors.CodeDependencyNotFound, fmt.Sprintf("no dependency named %q", ref))
	}
	recipe.Dependencies = deps
	return recipe, nil
}

// writeYAML writes v to path as YAML, creating parent directories as
// needed.
func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create directory for %s", path), err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, fmt.Sprintf("encode %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// writeYAMLAtomic writes v to path via a temp-file-then-rename so a
// cancellation or crash mid-write never leaves a truncated file behind.
func writeYAMLAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create directory for %s", path), err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, fmt.Sprintf("encode %s", path), err)
	}

	tmp, err := os.CreateTemp(dir, ".dependencies-*.yaml")
	if err != nil {
		return qerrors.Wrap(qerrors.CodeIO, "create temp dependencies file", err)
	}
	tmpPath := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", tmpPath), err)
	}
	if err := tmp.Close(); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("close %s", tmpPath), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("install %s", path), err)
	}
	removeTmp = false
	return nil
}

// readYAML decodes the YAML document at path into out.
func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return qerrors.New(qerrors.CodeDependencyNotFound, fmt.Sprintf("no cached manifest at %s", path))
		}
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return qerrors.Wrap(qerrors.CodeParse, fmt.Sprintf("decode %s", path), err)
	}
	return nil
}
