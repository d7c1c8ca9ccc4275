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
	"encoding/json"
	"fmt"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	mio "github.com/pollination/queenbee/pkg/manifest/io"
)

// MainDAGName is the reserved name every Recipe's flow must contain
// (invariant 2).
const MainDAGName = "main"

// DAG is a named template composed of Tasks.
type DAG struct {
	Name     string           `json:"name" yaml:"name"`
	Inputs   []mio.Descriptor `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []mio.Descriptor `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Tasks    []Task           `json:"tasks" yaml:"tasks"`
	FailFast bool             `json:"fail_fast" yaml:"fail_fast"`
}

// UnmarshalJSON decodes a DAG, defaulting FailFast to true when the
// document omits "fail_fast" entirely, matching the original's
// fail_fast: bool = Field(True, ...) default.
func (d *DAG) UnmarshalJSON(data []byte) error {
	type alias DAG
	aux := struct {
		FailFast *bool `json:"fail_fast"`
		*alias
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode dag: %w", err)
	}
	if aux.FailFast == nil {
		d.FailFast = true
	} else {
		d.FailFast = *aux.FailFast
	}
	return nil
}

// TaskByName returns the named Task, or false if absent.
func (d DAG) TaskByName(name string) (Task, bool) {
	for _, t := range d.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// InputNames returns the names of the DAG's inputs, in order.
func (d DAG) InputNames() []string {
	names := make([]string, len(d.Inputs))
	for i, in := range d.Inputs {
		names[i] = in.Name
	}
	return names
}

// HasInput reports whether the DAG declares an input with the given name
// (invariant 4: every InputRef must resolve against this set).
func (d DAG) HasInput(name string) bool {
	for _, in := range d.Inputs {
		if in.Name == name {
			return true
		}
	}
	return false
}

// Validate checks name uniqueness (invariant 1: task names within the DAG,
// input/output names within their lists), that every `needs` entry names a
// task in the same DAG (invariant 3), and recursively validates every Task
// and descriptor. It does not resolve template references — that is the
// reference resolver and baker's job, since it requires the enclosing
// Recipe/dependency scope.
func (d DAG) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "dag name is required"))
	}
	errs = append(errs, validateUniqueIO(d.Inputs, fmt.Sprintf("dag %s inputs", d.Name))...)
	errs = append(errs, validateUniqueIO(d.Outputs, fmt.Sprintf("dag %s outputs", d.Name))...)
	for _, in := range d.Inputs {
		errs = append(errs, in.Validate())
	}
	for _, out := range d.Outputs {
		errs = append(errs, out.Validate())
	}

	taskNames := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if taskNames[t.Name] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("dag %s: duplicate task name %q", d.Name, t.Name)))
			continue
		}
		taskNames[t.Name] = true
	}
	for _, t := range d.Tasks {
		errs = append(errs, t.Validate())
		for _, need := range t.Needs {
			if !taskNames[need] {
				errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation,
					fmt.Sprintf("dag %s: task %s needs unknown task %q", d.Name, t.Name, need)))
			}
		}
	}
	return qerrors.Flatten(errs...).OrNil()
}
