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
	mio "github.com/pollination/queenbee/pkg/manifest/io"
)

// Function is a single-command leaf template owned by a Plugin. Config is
// empty on the copy held inline in a Plugin's Functions list (it is shared
// there at the Plugin level) and populated only on the clone the baker
// produces for its Templates, which embeds the owning Plugin's run
// configuration onto each Function it flattens.
type Function struct {
	Name    string           `json:"name" yaml:"name"`
	Inputs  []mio.Descriptor `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []mio.Descriptor `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Command string           `json:"command" yaml:"command"`
	Config  RunConfig        `json:"config,omitempty" yaml:"config,omitempty"`
}

// InputNames returns the names of the function's inputs, in order.
func (f Function) InputNames() []string {
	names := make([]string, len(f.Inputs))
	for i, in := range f.Inputs {
		names[i] = in.Name
	}
	return names
}

// RequiredInputNames returns the names of the function's required inputs.
func (f Function) RequiredInputNames() []string {
	var names []string
	for _, in := range f.Inputs {
		if in.Required {
			names = append(names, in.Name)
		}
	}
	return names
}

// OutputNames returns the names of the function's outputs, in order.
func (f Function) OutputNames() []string {
	names := make([]string, len(f.Outputs))
	for i, out := range f.Outputs {
		names[i] = out.Name
	}
	return names
}

// Validate checks name uniqueness (invariant 1) within the function's own
// input and output lists and that every descriptor is internally valid.
func (f Function) Validate() error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "function name is required"))
	}
	errs = append(errs, validateUniqueIO(f.Inputs, fmt.Sprintf("function %s inputs", f.Name))...)
	errs = append(errs, validateUniqueIO(f.Outputs, fmt.Sprintf("function %s outputs", f.Name))...)
	for _, in := range f.Inputs {
		errs = append(errs, in.Validate())
	}
	for _, out := range f.Outputs {
		errs = append(errs, out.Validate())
	}
	return qerrors.Flatten(errs...).OrNil()
}

func validateUniqueIO(descs []mio.Descriptor, scope string) []error {
	seen := make(map[string]bool, len(descs))
	var errs []error
	for _, d := range descs {
		if seen[d.Name] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("duplicate name %q in %s", d.Name, scope)))
			continue
		}
		seen[d.Name] = true
	}
	return errs
}
