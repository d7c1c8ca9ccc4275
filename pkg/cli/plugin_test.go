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

func TestPluginNewScaffoldsValidFolder(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "myplugin")

	out := &bytes.Buffer{}
	cmd := pluginNewCmd()
	cmd.Writer = out

	err := cmd.Run(context.Background(), []string{"new", "myplugin", "--path", pluginDir})
	require.NoError(t, err)

	plugin, err := manifest.LoadPluginFolder(pluginDir)
	require.NoError(t, err)
	assert.Equal(t, "myplugin", plugin.Metadata.Name)
	require.NoError(t, plugin.Validate())
}

func TestPluginLintRejectsInvalidFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.yaml"), []byte("tag: 0.1.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("image: demo\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "functions"), 0o755))

	cmd := pluginLintCmd()
	cmd.Writer = &bytes.Buffer{}

	err := cmd.Run(context.Background(), []string{"lint", dir})
	assert.Error(t, err)
}

func TestPluginPackageWritesArchive(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "myplugin")
	require.NoError(t, pluginNewCmd().Run(context.Background(), []string{"new", "myplugin", "--path", pluginDir}))

	destDir := filepath.Join(dir, "out")
	cmd := pluginPackageCmd()
	cmd.Writer = &bytes.Buffer{}

	err := cmd.Run(context.Background(), []string{"package", pluginDir, "--dest", destDir})
	require.NoError(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "myplugin-0.1.0")
}

func TestPluginPackageRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "myplugin")
	require.NoError(t, pluginNewCmd().Run(context.Background(), []string{"new", "myplugin", "--path", pluginDir}))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, pluginPackageCmd().Run(context.Background(), []string{"package", pluginDir, "--dest", destDir}))

	err := pluginPackageCmd().Run(context.Background(), []string{"package", pluginDir, "--dest", destDir})
	assert.Error(t, err)

	require.NoError(t, pluginPackageCmd().Run(context.Background(), []string{"package", pluginDir, "--dest", destDir, "--force"}))
}
