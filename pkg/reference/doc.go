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

// Package reference parses "{{…}}" template strings embedded in task
// arguments, returns and loop bindings, classifies each match into one of
// the reference variants (InputRef, TaskRef, ItemRef, ValueRef,
// ValueListRef, or an opaque workflow reference reserved for the execution
// engine), and enforces the visibility/scope rules of a single DAG
// (invariants 4-6).
package reference
