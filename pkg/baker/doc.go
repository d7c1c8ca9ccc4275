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

// Package baker merges a Recipe with the manifests of its transitive
// dependencies into a manifest.BakedRecipe: every local DAG is renamed to
// a globally-unique identifier, every task's template reference is
// rewritten to point at that identifier, templates contributed by
// dependencies are flattened and deduplicated, and every task is
// validated against its resolved template.
package baker
