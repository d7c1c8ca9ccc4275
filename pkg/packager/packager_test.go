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

package packager

import (
	"encoding/json"
	"testing"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	mio "github.com/pollination/queenbee/pkg/manifest/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlugin() manifest.Plugin {
	return manifest.Plugin{
		Metadata: manifest.MetaData{Name: "grid-gen", Tag: "0.1.0"},
		Config:   manifest.RunConfig{},
		Functions: []manifest.Function{
			{
				Name:    "generate",
				Inputs:  []mio.Descriptor{mio.NewInput(mio.OwnerFunction, mio.KindString, "size")},
				Outputs: []mio.Descriptor{mio.NewOutput(mio.OwnerFunction, mio.KindFile, "grid")},
				Command: "generate --size {{inputs.size}}",
			},
		},
	}
}

func TestPackThenUnpackRoundTrip(t *testing.T) {
	p := testPlugin()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	version, archive, err := Pack(p, "# grid-gen", created)
	require.NoError(t, err)
	assert.Equal(t, "grid-gen-0.1.0.tgz", version.URL)
	assert.Equal(t, manifest.PackageKindPlugin, version.Kind)
	assert.NotEmpty(t, version.Digest)

	unpacked, err := Unpack(archive, version.Digest, true)
	require.NoError(t, err)
	assert.Equal(t, version.Digest, unpacked.Version.Digest)
	assert.Equal(t, "# grid-gen", unpacked.Version.README)

	var roundTripped manifest.Plugin
	require.NoError(t, json.Unmarshal(unpacked.ResourceBytes, &roundTripped))
	assert.Equal(t, p.Metadata.Name, roundTripped.Metadata.Name)
}

func TestPackIsDeterministic(t *testing.T) {
	p := testPlugin()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, archiveA, err := Pack(p, "readme", created)
	require.NoError(t, err)
	_, archiveB, err := Pack(p, "readme", created)
	require.NoError(t, err)

	assert.Equal(t, archiveA, archiveB)
}

func TestUnpackDigestMismatch(t *testing.T) {
	p := testPlugin()
	_, archive, err := Pack(p, "", time.Now())
	require.NoError(t, err)

	_, err = Unpack(archive, "not-the-real-digest", true)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeDigestMismatch, se.Code)
}

func TestUnpackRejectsEmptyInput(t *testing.T) {
	_, err := Unpack([]byte{}, "", false)
	assert.Error(t, err)
}
