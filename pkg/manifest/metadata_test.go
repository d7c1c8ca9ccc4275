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

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaDataValidateRequiresNameAndTag(t *testing.T) {
	err := MetaData{}.Validate()
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeSchemaViolation, se.Code)
}

func TestMetaDataValidateOK(t *testing.T) {
	err := MetaData{Name: "grid-gen", Tag: "0.1.0"}.Validate()
	assert.NoError(t, err)
}

func TestMetaDataValidateCollectsBothErrors(t *testing.T) {
	err := MetaData{}.Validate()
	require.Error(t, err)
	verrs, ok := err.(qerrors.ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 2)
}
