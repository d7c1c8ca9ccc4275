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

package serve

import (
	stderrors "errors"
	"net/http"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/serializer"

	"github.com/google/uuid"
)

// ErrorResponse is the JSON body written by writeError. Errors reported
// by http.ServeFile, such as a missing archive file, use its plain-text
// body instead.
type ErrorResponse struct {
	Code      string         `json:"code" yaml:"code"`
	Message   string         `json:"message" yaml:"message"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	RequestID string         `json:"requestId" yaml:"requestId"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Retryable bool           `json:"retryable" yaml:"retryable"`
}

// ErrCodeRateLimitExceeded is a serve-local error code without a
// matching qerrors.ErrorCode: it is a transport condition, not a manifest
// or package one.
const ErrCodeRateLimitExceeded qerrors.ErrorCode = "RATE_LIMIT_EXCEEDED"

// ErrCodeMethodNotAllowed mirrors the HTTP-level condition the same way.
const ErrCodeMethodNotAllowed qerrors.ErrorCode = "METHOD_NOT_ALLOWED"

// writeError writes an ErrorResponse with the given status and code.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code qerrors.ErrorCode, message string, retryable bool, details map[string]any) {
	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// httpStatusFromCode maps a canonical error code to an HTTP status.
func httpStatusFromCode(code qerrors.ErrorCode) int {
	switch code {
	case qerrors.CodeInvalidArgument, qerrors.CodeSchemaViolation, qerrors.CodeParse:
		return http.StatusBadRequest
	case qerrors.CodePackageNotFound, qerrors.CodeDependencyNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case qerrors.CodePackageConflict, qerrors.CodeDigestMismatch:
		return http.StatusConflict
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case qerrors.CodeUnreachableRepo:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func retryableFromCode(code qerrors.ErrorCode) bool {
	switch code {
	case ErrCodeRateLimitExceeded, qerrors.CodeUnreachableRepo, qerrors.CodeInternal, qerrors.CodeIO:
		return true
	default:
		return false
	}
}

// writeErrorFromErr writes an ErrorResponse derived from err, falling
// back to qerrors.CodeInternal when err is not a *qerrors.StructuredError.
func writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	if err == nil {
		writeError(w, r, http.StatusInternalServerError, qerrors.CodeInternal, fallbackMessage, true, nil)
		return
	}

	var se *qerrors.StructuredError
	if stderrors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = fallbackMessage
		}
		writeError(w, r, httpStatusFromCode(se.Code), se.Code, msg, retryableFromCode(se.Code), se.Context)
		return
	}

	writeError(w, r, http.StatusInternalServerError, qerrors.CodeInternal, fallbackMessage, true,
		map[string]any{"error": err.Error()})
}
