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

import (
	"os"
	"path/filepath"
	"testing"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInlineImportFromMergesReferencedFile(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "base.yaml", "command: rtrace -n {{inputs.count}}\n")
	main := writeYAML(t, dir, "function.yaml", "name: rtrace\nimport_from: base.yaml\n")

	doc, err := InlineImportFrom(main)
	require.NoError(t, err)
	assert.Equal(t, "rtrace", doc["name"])
	assert.Equal(t, "rtrace -n {{inputs.count}}", doc["command"])
	assert.NotContains(t, doc, "import_from")
}

func TestInlineImportFromEnclosingKeyWins(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "base.yaml", "name: from-base\n")
	main := writeYAML(t, dir, "function.yaml", "name: from-main\nimport_from: base.yaml\n")

	doc, err := InlineImportFrom(main)
	require.NoError(t, err)
	assert.Equal(t, "from-main", doc["name"])
}

func TestInlineImportFromDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "a.yaml", "import_from: b.yaml\n")
	b := writeYAML(t, dir, "b.yaml", "import_from: a.yaml\n")

	_, err := InlineImportFrom(b)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeCycleDetected, se.Code)
}

func TestInlineImportFromNestedMaps(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "shared-input.yaml", "required: true\n")
	main := writeYAML(t, dir, "function.yaml", "name: rtrace\ninputs:\n  count:\n    import_from: shared-input.yaml\n")

	doc, err := InlineImportFrom(main)
	require.NoError(t, err)
	inputs, ok := doc["inputs"].(map[string]any)
	require.True(t, ok)
	count, ok := inputs["count"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, count["required"])
}
