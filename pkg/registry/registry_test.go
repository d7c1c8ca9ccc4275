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

package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/packager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, dir, name, tag string, created time.Time) manifest.PackageVersion {
	t.Helper()
	p := manifest.Plugin{
		Metadata: manifest.MetaData{Name: name, Tag: tag, Keywords: []string{"grid"}},
	}
	version, archive, err := packager.Pack(p, "", created)
	require.NoError(t, err)

	pluginsDir := filepath.Join(dir, "plugins")
	require.NoError(t, os.MkdirAll(pluginsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginsDir, version.URL), archive, 0o644))
	return version
}

func TestGenerateFromFolder(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "grid-gen", "0.1.0", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	idx, err := GenerateFromFolder(dir)
	require.NoError(t, err)
	require.Len(t, idx.Plugin["grid-gen"], 1)
	assert.Equal(t, "0.1.0", idx.Plugin["grid-gen"][0].Tag)
	assert.Empty(t, idx.Plugin["grid-gen"][0].Manifest)
}

func TestMergeFolderInsertsNewAndKeepsSame(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "grid-gen", "0.1.0", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	existing := *manifest.NewRepositoryIndex()
	merged, err := MergeFolder(existing, dir, false, false)
	require.NoError(t, err)
	require.Len(t, merged.Plugin["grid-gen"], 1)

	mergedAgain, err := MergeFolder(merged, dir, false, false)
	require.NoError(t, err)
	assert.Len(t, mergedAgain.Plugin["grid-gen"], 1)
}

func TestMergeFolderConflictWithoutForceOrSkip(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "grid-gen", "0.1.0", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	existing := *manifest.NewRepositoryIndex()
	existing.Plugin["grid-gen"] = []manifest.PackageVersion{{
		Name: "grid-gen", Tag: "0.1.0", Digest: "stale-digest", Kind: manifest.PackageKindPlugin,
	}}

	_, err := MergeFolder(existing, dir, false, false)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodePackageConflict, se.Code)
}

func TestMergeFolderForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	version := writePlugin(t, dir, "grid-gen", "0.1.0", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	existing := *manifest.NewRepositoryIndex()
	existing.Plugin["grid-gen"] = []manifest.PackageVersion{{
		Name: "grid-gen", Tag: "0.1.0", Digest: "stale-digest", Kind: manifest.PackageKindPlugin,
	}}

	merged, err := MergeFolder(existing, dir, true, false)
	require.NoError(t, err)
	assert.Equal(t, version.Digest, merged.Plugin["grid-gen"][0].Digest)
}

func TestPackageByTagLatest(t *testing.T) {
	idx := *manifest.NewRepositoryIndex()
	idx.Plugin["grid-gen"] = []manifest.PackageVersion{
		{Name: "grid-gen", Tag: "0.1.0", Created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "grid-gen", Tag: "0.2.0", Created: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	pv, ok := PackageByTag(idx, manifest.PackageKindPlugin, "grid-gen", "latest")
	require.True(t, ok)
	assert.Equal(t, "0.2.0", pv.Tag)
}

func TestSearchSubstringAndFuzzy(t *testing.T) {
	idx := *manifest.NewRepositoryIndex()
	idx.Plugin["grid-gen"] = []manifest.PackageVersion{{Name: "grid-gen", Tag: "0.1.0", Keywords: []string{"mesh"}}}

	exact := Search(idx, nil, "grid")
	require.Len(t, exact, 1)

	fuzzy := Search(idx, nil, "gridgn")
	require.Len(t, fuzzy, 1)
	assert.Equal(t, "grid-gen", fuzzy[0].Name)

	none := Search(idx, nil, "completely-unrelated-name")
	assert.Empty(t, none)
}

func TestDecorateSlug(t *testing.T) {
	idx := *manifest.NewRepositoryIndex()
	idx.Plugin["grid-gen"] = []manifest.PackageVersion{{Name: "grid-gen", Tag: "0.1.0"}}

	decorated := DecorateSlug(idx, "pollination")
	assert.Equal(t, "pollination/grid-gen", decorated.Plugin["grid-gen"][0].Slug)
}
