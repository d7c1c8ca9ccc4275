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
)

func TestPackageVersionMatchesQuerySubstringOnName(t *testing.T) {
	pv := PackageVersion{Name: "grid-generation", Keywords: []string{"radiance"}}
	assert.True(t, pv.MatchesQuery("grid-gen"))
	assert.True(t, pv.MatchesQuery("GRID-GEN"))
	assert.False(t, pv.MatchesQuery("daylight"))
}

func TestPackageVersionMatchesQueryExactKeyword(t *testing.T) {
	pv := PackageVersion{Name: "grid-generation", Keywords: []string{"radiance"}}
	assert.True(t, pv.MatchesQuery("radiance"))
	assert.True(t, pv.MatchesQuery("RADIANCE"))
	assert.False(t, pv.MatchesQuery("radian"))
}

func TestPackageVersionMatchesQueryEmptyMatchesEverything(t *testing.T) {
	assert.True(t, PackageVersion{}.MatchesQuery(""))
}

func TestPackageVersionWithoutBodyStripsBody(t *testing.T) {
	pv := PackageVersion{
		Name:     "grid-gen",
		README:   "# Grid Gen",
		License:  &License{Name: "MIT"},
		Manifest: map[string]any{"metadata": "x"},
	}
	stripped := pv.WithoutBody()
	assert.Empty(t, stripped.README)
	assert.Nil(t, stripped.License)
	assert.Nil(t, stripped.Manifest)
	assert.Equal(t, "grid-gen", stripped.Name)
}
