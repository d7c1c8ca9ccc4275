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
	"fmt"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// Plugin is a named, versioned collection of Functions sharing one run
// configuration. A Plugin's digest is the SHA-256 of its canonical JSON.
type Plugin struct {
	Metadata  MetaData   `json:"metadata" yaml:"metadata"`
	Config    RunConfig  `json:"config" yaml:"config"`
	Functions []Function `json:"functions" yaml:"functions"`
}

// Digest returns the SHA-256 of the Plugin's canonical JSON.
func (p Plugin) Digest() (string, error) {
	return Digest(p)
}

// ResourceMetadata returns the Plugin's MetaData, satisfying Resource.
func (p Plugin) ResourceMetadata() MetaData {
	return p.Metadata
}

// Kind reports the package kind a Plugin packs as.
func (p Plugin) Kind() PackageKind {
	return PackageKindPlugin
}

// FunctionByName returns the named Function, or false if no such Function
// exists.
func (p Plugin) FunctionByName(name string) (Function, bool) {
	for _, f := range p.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Validate checks metadata, Function name uniqueness (invariant 1), and
// recursively validates every Function.
func (p Plugin) Validate() error {
	var errs []error
	errs = append(errs, p.Metadata.Validate())

	seen := make(map[string]bool, len(p.Functions))
	for _, f := range p.Functions {
		if seen[f.Name] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("duplicate function name %q in plugin %s", f.Name, p.Metadata.Name)))
			continue
		}
		seen[f.Name] = true
		errs = append(errs, f.Validate())
	}
	return qerrors.Flatten(errs...).OrNil()
}
