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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoInitCreatesLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "myrepo")

	cmd := repoInitCmd()
	cmd.Writer = &bytes.Buffer{}
	require.NoError(t, cmd.Run(context.Background(), []string{"init", dir}))

	assert.DirExists(t, filepath.Join(dir, "plugins"))
	assert.DirExists(t, filepath.Join(dir, "recipes"))
	assert.FileExists(t, filepath.Join(dir, "index.json"))
}

func TestRepoIndexGeneratesFromArchives(t *testing.T) {
	repoDir := setupLocalRepo(t, "indexdep")

	cmd := repoIndexCmd()
	cmd.Writer = &bytes.Buffer{}
	require.NoError(t, cmd.Run(context.Background(), []string{"index", repoDir}))

	idx, err := readIndexFile(repoDir)
	require.NoError(t, err)
	assert.Len(t, idx.Plugin["indexdep"], 1)
}

func TestRepoIndexMergeKeepsExistingOnSkip(t *testing.T) {
	repoDir := setupLocalRepo(t, "mergedep")
	require.NoError(t, repoIndexCmd().Run(context.Background(), []string{"index", repoDir}))

	// The archive is left as it is, so this merge with --skip runs over an
	// already indexed digest and must keep the indexed entry unchanged.
	before, err := readIndexFile(repoDir)
	require.NoError(t, err)
	require.Len(t, before.Plugin["mergedep"], 1)

	cmd := repoIndexCmd()
	cmd.Writer = &bytes.Buffer{}
	require.NoError(t, cmd.Run(context.Background(), []string{"index", repoDir, "--merge", "--skip"}))

	after, err := readIndexFile(repoDir)
	require.NoError(t, err)
	assert.Equal(t, before.Plugin["mergedep"][0].Digest, after.Plugin["mergedep"][0].Digest)
}

func TestRepoAddListRemove(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	addCmd := repoAddCmd()
	addCmd.Writer = &bytes.Buffer{}
	require.NoError(t, addCmd.Run(context.Background(), []string{"add", "myrepo", "https://example.test/repo", "--config", configPath}))

	listOut := &bytes.Buffer{}
	listCmd := repoListCmd()
	listCmd.Writer = listOut
	require.NoError(t, listCmd.Run(context.Background(), []string{"list", "--config", configPath, "--format", "json"}))
	assert.Contains(t, listOut.String(), "myrepo")

	removeCmd := repoRemoveCmd()
	removeCmd.Writer = &bytes.Buffer{}
	require.NoError(t, removeCmd.Run(context.Background(), []string{"remove", "myrepo", "--config", configPath}))

	listOut.Reset()
	require.NoError(t, listCmd.Run(context.Background(), []string{"list", "--config", configPath, "--format", "json"}))
	assert.NotContains(t, listOut.String(), "myrepo")
}

func TestRepoAddRefusesDuplicateWithoutForce(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, repoAddCmd().Run(context.Background(), []string{"add", "dup", "https://example.test/one", "--config", configPath}))

	err := repoAddCmd().Run(context.Background(), []string{"add", "dup", "https://example.test/two", "--config", configPath})
	assert.Error(t, err)

	require.NoError(t, repoAddCmd().Run(context.Background(), []string{"add", "dup", "https://example.test/two", "--config", configPath, "--force"}))
}

func TestRepoGetFetchesPackageMetadataFromLocalRepo(t *testing.T) {
	repoDir := setupLocalRepo(t, "getdep")
	require.NoError(t, repoIndexCmd().Run(context.Background(), []string{"index", repoDir}))

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, repoAddCmd().Run(context.Background(), []string{"add", "local", repoDir, "--config", configPath}))

	out := &bytes.Buffer{}
	cmd := repoGetCmd()
	cmd.Writer = out
	require.NoError(t, cmd.Run(context.Background(), []string{"get", string(manifest.PackageKindPlugin), "local", "getdep", "--tag", "0.1.0", "--config", configPath, "--format", "json"}))
	assert.Contains(t, out.String(), "getdep")
}

func TestRepoSearchAcrossRegisteredRepos(t *testing.T) {
	repoDir := setupLocalRepo(t, "searchdep")
	require.NoError(t, repoIndexCmd().Run(context.Background(), []string{"index", repoDir}))

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, repoAddCmd().Run(context.Background(), []string{"add", "local", repoDir, "--config", configPath}))

	out := &bytes.Buffer{}
	cmd := repoSearchCmd()
	cmd.Writer = out
	require.NoError(t, cmd.Run(context.Background(), []string{"search", "--config", configPath, "--query", "searchdep", "--format", "json"}))
	assert.Contains(t, out.String(), "searchdep")
}

func TestRepoGetUnknownRepoFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := repoGetCmd()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"get", "plugin", "nope", "something", "--config", configPath})
	assert.Error(t, err)
}

func TestJoinIndexURL(t *testing.T) {
	assert.Equal(t, "https://example.test/index.json", joinIndexURL("https://example.test"))
	assert.Equal(t, "https://example.test/index.json", joinIndexURL("https://example.test/"))
}

func TestIsRemoteSource(t *testing.T) {
	assert.True(t, isRemoteSource("https://example.test"))
	assert.True(t, isRemoteSource("http://example.test"))
	assert.False(t, isRemoteSource("/local/path"))
	assert.False(t, isRemoteSource(os.TempDir()))
}
