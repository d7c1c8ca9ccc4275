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
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// CodeParse indicates malformed JSON/YAML, an unknown type discriminator,
	// or a cycle in import_from.
	CodeParse ErrorCode = "PARSE_ERROR"
	// CodeSchemaViolation indicates a required field is missing, a spec
	// validation failed, or a name is duplicated within its scope.
	CodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	// CodeRefUnresolved indicates an InputRef/TaskRef/ItemRef target is
	// absent or out of scope.
	CodeRefUnresolved ErrorCode = "REF_UNRESOLVED"
	// CodeTemplateMismatch indicates a task argument is missing for a
	// required template input, or a task return is absent from the
	// template's outputs.
	CodeTemplateMismatch ErrorCode = "TEMPLATE_MISMATCH"
	// CodeDependencyNotFound indicates a dependency could not be located in
	// a repository index.
	CodeDependencyNotFound ErrorCode = "DEP_NOT_FOUND"
	// CodePackageNotFound indicates a package archive could not be located.
	CodePackageNotFound ErrorCode = "PACKAGE_NOT_FOUND"
	// CodePackageConflict indicates an index merge found a same-named
	// package version with a different digest and no force/skip flag was
	// given.
	CodePackageConflict ErrorCode = "PACKAGE_CONFLICT"
	// CodeDigestMismatch indicates a fetched manifest's digest does not
	// match the digest recorded in a lock or index.
	CodeDigestMismatch ErrorCode = "DIGEST_MISMATCH"
	// CodeCorruptArchive indicates a package archive could not be unpacked.
	CodeCorruptArchive ErrorCode = "CORRUPT_ARCHIVE"
	// CodeUnreachableRepo indicates a transport failure reaching a
	// repository.
	CodeUnreachableRepo ErrorCode = "UNREACHABLE_REPO"
	// CodeCycleDetected indicates a cycle in the dependency graph or in
	// import_from inlining.
	CodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// CodeIO indicates a filesystem failure.
	CodeIO ErrorCode = "IO_ERROR"
	// CodeInternal indicates a condition the core could not otherwise
	// classify.
	CodeInternal ErrorCode = "INTERNAL"
	// CodeInvalidArgument indicates a caller supplied an invalid parameter
	// to a core API, as opposed to an authored-manifest problem.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// StructuredError provides structured error information for observability.
// It includes an error code for programmatic handling, a human-readable
// message, the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code      ErrorCode
	Message   string
	Cause     error
	Context   map[string]any
	Retryable bool
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		b.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s=%v", k, v)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Context: context}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// WithContext returns a copy of e with the given context key set, leaving e
// untouched.
func (e *StructuredError) WithContext(key string, value any) *StructuredError {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &StructuredError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Context:   ctx,
		Retryable: e.Retryable,
	}
}

// NewRefUnresolved reports a reference that could not be resolved in scope.
func NewRefUnresolved(ref string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    CodeRefUnresolved,
		Message: fmt.Sprintf("reference %q could not be resolved", ref),
		Context: context,
	}
}

// NewDigestMismatch reports a digest that did not match the expected value.
func NewDigestMismatch(expected, actual string) *StructuredError {
	return &StructuredError{
		Code:    CodeDigestMismatch,
		Message: fmt.Sprintf("digest mismatch: expected %s, got %s", expected, actual),
		Context: map[string]any{"expected": expected, "actual": actual},
	}
}

// NewUnreachableRepo reports a transport failure. Transport failures are the
// only retryable error kind in the taxonomy.
func NewUnreachableRepo(url string, cause error) *StructuredError {
	return &StructuredError{
		Code:      CodeUnreachableRepo,
		Message:   fmt.Sprintf("could not reach repository at %s", url),
		Cause:     cause,
		Context:   map[string]any{"url": url},
		Retryable: true,
	}
}

// AsStructuredError unwraps err looking for a *StructuredError, for callers
// that prefer a plain boolean check over errors.As boilerplate.
func AsStructuredError(err error) (*StructuredError, bool) {
	var serr *StructuredError
	if stderrors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}

// ValidationErrors is a batch of StructuredErrors accumulated during a
// single parse or bake pass, so an author sees every problem at once
// instead of one error per fix-and-retry cycle.
type ValidationErrors []*StructuredError

// Error implements the error interface by joining every message, one
// failure per line.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation error(s):\n\t%s", len(v), strings.Join(msgs, "\n\t"))
}

// Unwrap exposes each constituent error for errors.Is/errors.As, using the
// standard library's multi-error convention so AsStructuredError can reach
// into a batch returned by Flatten instead of only matching a bare
// *StructuredError.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// OrNil returns v as an error, or nil if v is empty.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Flatten merges zero or more errors into a single ValidationErrors batch,
// skipping nils and splicing in the elements of any nested ValidationErrors
// rather than nesting them. Non-StructuredError values are wrapped as
// CodeInternal. Callers typically end a multi-check Validate method with
// `return errs.OrNil()`.
func Flatten(errs ...error) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		switch e := err.(type) {
		case ValidationErrors:
			out = append(out, e...)
		case *StructuredError:
			out = append(out, e)
		default:
			out = append(out, Wrap(CodeInternal, err.Error(), err))
		}
	}
	return out
}
