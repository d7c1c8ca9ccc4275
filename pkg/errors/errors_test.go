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

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(CodeDependencyNotFound, "resource not found")
	assert.Equal(t, CodeDependencyNotFound, err.Code)
	assert.Equal(t, "resource not found", err.Message)
	assert.Nil(t, err.Cause)
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(CodeInternal, "operation failed", cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.True(t, errors.Is(err, cause))
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("timeout")
	ctx := map[string]any{
		"url": "https://example.test/index.json",
	}

	err := WrapWithContext(CodeUnreachableRepo, "fetch failed", cause, ctx)

	assert.Equal(t, CodeUnreachableRepo, err.Code)
	require := assert.New(t)
	require.NotNil(err.Context)
	require.Equal("https://example.test/index.json", err.Context["url"])
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CodePackageNotFound, "not found"),
			expected: "[PACKAGE_NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(CodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(CodeInternal, "wrapped", cause)

	assert.True(t, errors.Is(err.Unwrap(), cause))
	assert.True(t, errors.Is(err, cause))
}

func TestNewDigestMismatch(t *testing.T) {
	err := NewDigestMismatch("abc", "def")
	assert.Equal(t, CodeDigestMismatch, err.Code)
	assert.Equal(t, "abc", err.Context["expected"])
	assert.Equal(t, "def", err.Context["actual"])
}

func TestNewUnreachableRepoIsRetryable(t *testing.T) {
	err := NewUnreachableRepo("https://example.test", errors.New("connection refused"))
	assert.True(t, err.Retryable)
	assert.Equal(t, CodeUnreachableRepo, err.Code)
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Nil(t, errs.OrNil())

	errs = append(errs, New(CodeSchemaViolation, "duplicate name: a"))
	errs = append(errs, New(CodeRefUnresolved, "tasks.missing.result"))

	err := errs.OrNil()
	require := assert.New(t)
	require.Error(err)
	require.Contains(err.Error(), "2 validation error(s)")
	require.Contains(err.Error(), "duplicate name: a")
}

func TestAsStructuredError(t *testing.T) {
	err := New(CodeCycleDetected, "cycle")
	wrapped := Wrap(CodeInternal, "outer", err)

	serr, ok := AsStructuredError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeInternal, serr.Code)
}
