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

	mio "github.com/pollination/queenbee/pkg/manifest/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskArgumentNamesAndNeedsSet(t *testing.T) {
	task := Task{
		Name:     "trace",
		Template: "rtrace",
		Needs:    []string{"gen-grid", "gen-octree"},
		Arguments: []mio.Binding{
			{Role: mio.RoleArgument, Kind: mio.KindInteger, Name: "count", Value: []byte("3")},
			{Role: mio.RoleArgument, Kind: mio.KindFile, Name: "octree", Value: []byte(`"{{tasks.gen-octree.return.octree}}"`)},
		},
	}

	assert.Equal(t, []string{"count", "octree"}, task.ArgumentNames())
	assert.Equal(t, map[string]bool{"gen-grid": true, "gen-octree": true}, task.NeedsSet())
}

func TestTaskValidateRequiresNameAndTemplate(t *testing.T) {
	err := Task{}.Validate()
	require.Error(t, err)
	verrs, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, verrs.Unwrap(), 2)
}

func TestTaskValidateRejectsDuplicateNeeds(t *testing.T) {
	task := Task{Name: "trace", Template: "rtrace", Needs: []string{"a", "a"}}
	require.Error(t, task.Validate())
}

func TestTaskValidateOK(t *testing.T) {
	task := Task{Name: "trace", Template: "rtrace", Needs: []string{"gen-grid"}}
	assert.NoError(t, task.Validate())
}
