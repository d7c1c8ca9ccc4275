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

// Package transport is the single entry point through which the rest of
// the module reads bytes off the wire or off disk: a "file:" URI (or a
// bare local path) is read directly, an "http(s)" URI is GETed with a
// fixed User-Agent and the caller's opaque Authorization value, and an
// "oci://" reference is pulled through pkg/ociregistry. Callers
// that need digest verification or archive unpacking layer that on top of
// the bytes Fetch returns; this package only ever moves bytes.
package transport
