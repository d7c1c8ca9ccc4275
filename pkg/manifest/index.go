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

package manifest

import "time"

// RepositoryIndex groups a repository's PackageVersions by name, separately
// for plugins and recipes. The on-disk/HTTP-served form is index.json
// pkg/registry owns generation, merge, search and lookup behavior
// over this type.
type RepositoryIndex struct {
	Generated time.Time                   `json:"generated" yaml:"generated"`
	Plugin    map[string][]PackageVersion `json:"plugin" yaml:"plugin"`
	Recipe    map[string][]PackageVersion `json:"recipe" yaml:"recipe"`
}

// NewRepositoryIndex returns an empty index ready for population.
func NewRepositoryIndex() *RepositoryIndex {
	return &RepositoryIndex{
		Plugin: make(map[string][]PackageVersion),
		Recipe: make(map[string][]PackageVersion),
	}
}

// versionsFor returns the map for the given package kind.
func (idx *RepositoryIndex) versionsFor(kind PackageKind) map[string][]PackageVersion {
	if kind == PackageKindPlugin {
		return idx.Plugin
	}
	return idx.Recipe
}

// ByName returns every PackageVersion recorded under name for the given
// kind, in insertion order.
func (idx *RepositoryIndex) ByName(kind PackageKind, name string) []PackageVersion {
	return idx.versionsFor(kind)[name]
}

// Set replaces the full slice of versions recorded under name for kind,
// used by pkg/registry when generating or merging an index.
func (idx *RepositoryIndex) Set(kind PackageKind, name string, versions []PackageVersion) {
	idx.versionsFor(kind)[name] = versions
}

// Append adds pv to the versions recorded under its own name for kind.
func (idx *RepositoryIndex) Append(kind PackageKind, pv PackageVersion) {
	m := idx.versionsFor(kind)
	m[pv.Name] = append(m[pv.Name], pv)
}

// AllKinds returns ("plugin", idx.Plugin) and ("recipe", idx.Recipe),
// convenient for code that must iterate both maps uniformly (merge,
// search, from_folder).
func (idx *RepositoryIndex) AllKinds() []struct {
	Kind     PackageKind
	Versions map[string][]PackageVersion
} {
	return []struct {
		Kind     PackageKind
		Versions map[string][]PackageVersion
	}{
		{PackageKindPlugin, idx.Plugin},
		{PackageKindRecipe, idx.Recipe},
	}
}
