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

// Task is one node of a DAG: a bound invocation of a template (another DAG
// in the same Recipe, or "<dependency-ref>/<member>").
type Task struct {
	Name      string        `json:"name" yaml:"name"`
	Template  string        `json:"template" yaml:"template"`
	Needs     []string      `json:"needs,omitempty" yaml:"needs,omitempty"`
	Arguments []mio.Binding `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Returns   []mio.Binding `json:"returns,omitempty" yaml:"returns,omitempty"`
	Loop      *string       `json:"loop,omitempty" yaml:"loop,omitempty"`
	SubFolder *string       `json:"sub_folder,omitempty" yaml:"sub_folder,omitempty"`
}

// ArgumentNames returns the names of the task's bound arguments.
func (t Task) ArgumentNames() []string {
	names := make([]string, len(t.Arguments))
	for i, a := range t.Arguments {
		names[i] = a.Name
	}
	return names
}

// NeedsSet returns t.Needs as a lookup set.
func (t Task) NeedsSet() map[string]bool {
	set := make(map[string]bool, len(t.Needs))
	for _, n := range t.Needs {
		set[n] = true
	}
	return set
}

// Validate checks the task's own shape: a name, a template reference, and
// that no `needs` entry is repeated. Cross-task and cross-DAG invariants
// (3-8) are enforced by the owning DAG/Recipe/baker, which have the
// surrounding scope a single Task cannot see on its own.
func (t Task) Validate() error {
	var errs []error
	if t.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "task name is required"))
	}
	if t.Template == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("task %s: template is required", t.Name)))
	}
	seen := make(map[string]bool, len(t.Needs))
	for _, n := range t.Needs {
		if seen[n] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("task %s: duplicate needs entry %q", t.Name, n)))
		}
		seen[n] = true
	}
	return qerrors.Flatten(errs...).OrNil()
}
