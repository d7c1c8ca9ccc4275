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

package io

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminatorRoundTrip(t *testing.T) {
	d := NewInput(OwnerDAG, KindString, "grid")
	d.Default = json.RawMessage(`"room"`)
	d.Required = false

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"DAGStringInput"`)

	var got Descriptor
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, OwnerDAG, got.Owner)
	assert.Equal(t, KindString, got.Kind)
	assert.Equal(t, RoleInput, got.Role)
	assert.Equal(t, "grid", got.Name)
}

func TestDiscriminatorUnknownFails(t *testing.T) {
	_, _, _, err := ParseDiscriminator("BogusThing")
	assert.Error(t, err)
}

func TestBindingRoundTrip(t *testing.T) {
	b := Binding{Kind: KindPath, Role: RoleArgument, Name: "input_path"}
	raw, _ := json.Marshal("{{inputs.grid}}")
	b.Value = raw

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"TaskPathArgument"`)

	var got Binding
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, KindPath, got.Kind)
	assert.Equal(t, RoleArgument, got.Role)
	v, err := got.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "{{inputs.grid}}", v)
}

func TestBindingRejectsNonTaskOwner(t *testing.T) {
	raw := []byte(`{"type":"DAGStringInput","name":"x","value":"y"}`)
	var b Binding
	err := b.UnmarshalJSON(raw)
	assert.Error(t, err)
}

func TestDescriptorValidate(t *testing.T) {
	d := NewInput(OwnerFunction, KindString, "")
	err := d.Validate()
	assert.Error(t, err)
}

func TestValueKindIsArtifact(t *testing.T) {
	assert.True(t, KindFile.IsArtifact())
	assert.True(t, KindFolder.IsArtifact())
	assert.True(t, KindPath.IsArtifact())
	assert.False(t, KindString.IsArtifact())
}

func TestDescriptorValidateValueNoSpecAcceptsAnything(t *testing.T) {
	d := NewInput(OwnerFunction, KindInteger, "count")
	assert.NoError(t, d.ValidateValue(json.RawMessage(`"not even a number"`)))
}

func TestDescriptorValidateValueAgainstSpec(t *testing.T) {
	d := NewInput(OwnerFunction, KindInteger, "count")
	d.Spec = json.RawMessage(`{"type":"integer","minimum":1}`)

	assert.NoError(t, d.ValidateValue(json.RawMessage(`3`)))
	assert.Error(t, d.ValidateValue(json.RawMessage(`0`)))
	assert.Error(t, d.ValidateValue(json.RawMessage(`"three"`)))
}

func TestDescriptorValidateRejectsDefaultViolatingSpec(t *testing.T) {
	d := NewInput(OwnerFunction, KindInteger, "count")
	d.Spec = json.RawMessage(`{"type":"integer","minimum":1}`)
	d.Default = json.RawMessage(`0`)
	assert.Error(t, d.Validate())
}

func TestDescriptorValidateAcceptsDefaultSatisfyingSpec(t *testing.T) {
	d := NewInput(OwnerFunction, KindInteger, "count")
	d.Spec = json.RawMessage(`{"type":"integer","minimum":1}`)
	d.Default = json.RawMessage(`5`)
	assert.NoError(t, d.Validate())
}
