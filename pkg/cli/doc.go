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

// Package cli wires the queenbee command line onto the core packages: one
// urfave/cli/v3 command per leaf operation, grouped under "plugin",
// "recipe", "repo" and "config". Every Action parses its flags, calls
// exactly one core function, and renders the result with pkg/serializer or
// reports a *qerrors.StructuredError with a non-zero exit code.
package cli
