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
	"os"
	"path/filepath"
	"testing"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDependencyLockRoundTrips(t *testing.T) {
	dir := t.TempDir()
	deps := []manifest.Dependency{
		{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file://repo", Digest: "abc123"},
	}
	require.NoError(t, WriteDependencyLock(dir, deps))

	data, err := os.ReadFile(filepath.Join(dir, dependenciesFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "grid-gen")
	assert.Contains(t, string(data), "abc123")
}

func TestWriteDependenciesFolderWritesEachKind(t *testing.T) {
	dir := t.TempDir()
	locked := LockResult{
		ByDigest: map[string]Resolved{
			"digest-plugin": {
				Dependency: manifest.Dependency{Kind: manifest.DependencyPlugin, Name: "grid-gen"},
				Manifest:   manifest.Plugin{Metadata: manifest.MetaData{Name: "grid-gen", Tag: "0.1.0"}},
			},
			"digest-recipe": {
				Dependency: manifest.Dependency{Kind: manifest.DependencyRecipe, Name: "daylight"},
				Manifest:   manifest.Recipe{Metadata: manifest.MetaData{Name: "daylight", Tag: "1.0.0"}},
			},
		},
	}
	require.NoError(t, WriteDependenciesFolder(dir, locked))

	_, err := os.Stat(filepath.Join(dir, dependenciesFolderName, "plugins", "digest-plugin.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, dependenciesFolderName, "recipes", "digest-recipe.yaml"))
	require.NoError(t, err)

	resource, err := ReadDependencyManifest(dir, manifest.PackageKindPlugin, "digest-plugin")
	require.NoError(t, err)
	assert.Equal(t, "grid-gen", resource.ResourceMetadata().Name)
}

func TestWriteDependenciesFolderReplacesPriorContent(t *testing.T) {
	dir := t.TempDir()
	first := LockResult{ByDigest: map[string]Resolved{
		"stale": {Manifest: manifest.Plugin{Metadata: manifest.MetaData{Name: "stale", Tag: "0.0.1"}}},
	}}
	require.NoError(t, WriteDependenciesFolder(dir, first))

	second := LockResult{ByDigest: map[string]Resolved{
		"fresh": {Manifest: manifest.Plugin{Metadata: manifest.MetaData{Name: "fresh", Tag: "0.0.2"}}},
	}}
	require.NoError(t, WriteDependenciesFolder(dir, second))

	_, err := os.Stat(filepath.Join(dir, dependenciesFolderName, "plugins", "stale.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, dependenciesFolderName, "plugins", "fresh.yaml"))
	require.NoError(t, err)
}

func TestReadDependencyManifestMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadDependencyManifest(dir, manifest.PackageKindRecipe, "nope")
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeDependencyNotFound, se.Code)
}

func TestLinkDependencyRewritesSourceAndClearsDigest(t *testing.T) {
	recipe := manifest.Recipe{
		Dependencies: []manifest.Dependency{
			{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "https://repo.example/index.json", Digest: "abc"},
		},
	}
	local := t.TempDir()

	linked, err := LinkDependency(recipe, "grid-gen", local)
	require.NoError(t, err)
	assert.Empty(t, linked.Dependencies[0].Digest)
	assert.Empty(t, linked.Dependencies[0].Version)
	assert.Contains(t, linked.Dependencies[0].Source, "file://")
}

func TestLinkDependencyUnknownRef(t *testing.T) {
	recipe := manifest.Recipe{Dependencies: []manifest.Dependency{{Name: "grid-gen"}}}
	_, err := LinkDependency(recipe, "missing", t.TempDir())
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeDependencyNotFound, se.Code)
}
