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
	"encoding/json"
	"testing"

	mio "github.com/pollination/queenbee/pkg/manifest/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDAG() DAG {
	return DAG{
		Name:   MainDAGName,
		Inputs: []mio.Descriptor{{Owner: mio.OwnerDAG, Kind: mio.KindInteger, Role: mio.RoleInput, Name: "count", Required: true}},
		Tasks: []Task{
			{Name: "gen-grid", Template: "grid-gen"},
			{Name: "trace", Template: "rtrace", Needs: []string{"gen-grid"}},
		},
	}
}

func TestDAGTaskByName(t *testing.T) {
	d := testDAG()
	task, ok := d.TaskByName("trace")
	require.True(t, ok)
	assert.Equal(t, "rtrace", task.Template)

	_, ok = d.TaskByName("does-not-exist")
	assert.False(t, ok)
}

func TestDAGInputNamesAndHasInput(t *testing.T) {
	d := testDAG()
	assert.Equal(t, []string{"count"}, d.InputNames())
	assert.True(t, d.HasInput("count"))
	assert.False(t, d.HasInput("missing"))
}

func TestDAGValidateOK(t *testing.T) {
	assert.NoError(t, testDAG().Validate())
}

func TestDAGValidateRejectsDuplicateTaskNames(t *testing.T) {
	d := testDAG()
	d.Tasks = append(d.Tasks, Task{Name: "trace", Template: "other"})
	require.Error(t, d.Validate())
}

func TestDAGValidateRejectsUnknownNeeds(t *testing.T) {
	d := DAG{
		Name:  MainDAGName,
		Tasks: []Task{{Name: "trace", Template: "rtrace", Needs: []string{"does-not-exist"}}},
	}
	require.Error(t, d.Validate())
}

func TestDAGValidateRequiresName(t *testing.T) {
	require.Error(t, DAG{}.Validate())
}

func TestDAGUnmarshalJSONDefaultsFailFastTrue(t *testing.T) {
	var d DAG
	require.NoError(t, json.Unmarshal([]byte(`{"name":"main","tasks":[]}`), &d))
	assert.True(t, d.FailFast)
}

func TestDAGUnmarshalJSONHonorsExplicitFailFastFalse(t *testing.T) {
	var d DAG
	require.NoError(t, json.Unmarshal([]byte(`{"name":"main","tasks":[],"fail_fast":false}`), &d))
	assert.False(t, d.FailFast)
}

func TestDAGUnmarshalJSONHonorsExplicitFailFastTrue(t *testing.T) {
	var d DAG
	require.NoError(t, json.Unmarshal([]byte(`{"name":"main","tasks":[],"fail_fast":true}`), &d))
	assert.True(t, d.FailFast)
}
