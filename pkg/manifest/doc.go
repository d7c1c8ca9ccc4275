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

// Package manifest is the typed in-memory representation of Plugins,
// Recipes, DAGs, Functions and their I/O, with JSON/YAML (de)serialization
// and stable canonical-digest hashing.
//
// Every manifest type is a sum-of-products schema carrying a mandatory
// "type" discriminator string on the wire (for example "DAGStringInput",
// "FunctionFileOutput", "TaskPathArgument"). Decoding selects the concrete
// Go representation by looking the discriminator up in a registry; an
// unrecognized discriminator is a fatal parse error.
//
// Canonical JSON used for digests serializes struct fields in declared
// order, map keys sorted (encoding/json already does this). Fields without
// an omitempty tag are written even when they hold their zero value; fields
// tagged omitempty are left out when empty, so an unset optional field and
// one explicitly set to its zero value digest the same. Digest is
// lowercase-hex SHA-256 of that canonical form.
package manifest
