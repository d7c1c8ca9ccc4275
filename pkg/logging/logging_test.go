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

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewStructuredLoggerWritesJSONWithModuleAndVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("queenbee", "1.2.3", slog.LevelInfo, &buf)
	logger.Info("bake complete", "digest", "abc123")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "queenbee", record["module"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "bake complete", record["msg"])
	assert.Equal(t, "abc123", record["digest"])
}

func TestNewLogLoggerBridges(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("queenbee", "dev", slog.LevelInfo, &buf)
	std := NewLogLogger(logger, slog.LevelInfo)
	std.Println("legacy message")

	assert.Contains(t, buf.String(), "legacy message")
}
