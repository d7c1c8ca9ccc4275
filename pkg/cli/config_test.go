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
	"path/filepath"
	"testing"

	"github.com/pollination/queenbee/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAuthAddRequiresAToken(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := configAuthAddCmd()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"add", "example.test", "--config", configPath})
	assert.Error(t, err)
}

func TestConfigAuthAddAndRemove(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	addCmd := configAuthAddCmd()
	addCmd.Writer = &bytes.Buffer{}
	require.NoError(t, addCmd.Run(context.Background(), []string{
		"add", "example.test", "--access-token", "secret", "--config", configPath,
	}))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.Len(t, cfg.Auth, 1)
	assert.Equal(t, "example.test", cfg.Auth[0].Domain)
	assert.Equal(t, "secret", cfg.Auth[0].AccessToken)

	// adding again for the same domain replaces, not duplicates.
	require.NoError(t, addCmd.Run(context.Background(), []string{
		"add", "example.test", "--access-token", "other", "--config", configPath,
	}))
	cfg, err = config.Load(configPath)
	require.NoError(t, err)
	require.Len(t, cfg.Auth, 1)
	assert.Equal(t, "other", cfg.Auth[0].AccessToken)

	removeCmd := configAuthRemoveCmd()
	removeCmd.Writer = &bytes.Buffer{}
	require.NoError(t, removeCmd.Run(context.Background(), []string{"remove", "example.test", "--config", configPath}))

	cfg, err = config.Load(configPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth)
}

func TestConfigAuthRemoveUnknownDomainFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := configAuthRemoveCmd()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"remove", "nope.test", "--config", configPath})
	assert.Error(t, err)
}

func TestConfigViewRendersConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, configAuthAddCmd().Run(context.Background(), []string{
		"add", "example.test", "--access-token", "secret", "--config", configPath,
	}))

	out := &bytes.Buffer{}
	cmd := configViewCmd()
	cmd.Writer = out
	require.NoError(t, cmd.Run(context.Background(), []string{"view", "--config", configPath, "--format", "json"}))
	assert.Contains(t, out.String(), "example.test")
}
