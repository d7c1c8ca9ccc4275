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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyRefNamePrefersAlias(t *testing.T) {
	d := Dependency{Name: "grid-gen", Alias: "gg"}
	assert.Equal(t, "gg", d.RefName())

	d = Dependency{Name: "grid-gen"}
	assert.Equal(t, "grid-gen", d.RefName())
}

func TestDependencyIsLocked(t *testing.T) {
	assert.False(t, Dependency{}.IsLocked())
	assert.True(t, Dependency{Digest: "abc123"}.IsLocked())
}

func TestDependencyValidateRequiresFields(t *testing.T) {
	err := Dependency{}.Validate()
	require.Error(t, err)
}

func TestDependencyValidateRejectsUnknownKind(t *testing.T) {
	d := Dependency{Kind: "bogus", Name: "grid-gen", Version: "0.1.0", Source: "https://api.pollination.cloud"}
	require.Error(t, d.Validate())
}

func TestDependencyValidateOK(t *testing.T) {
	d := Dependency{Kind: DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "https://api.pollination.cloud"}
	assert.NoError(t, d.Validate())
}
