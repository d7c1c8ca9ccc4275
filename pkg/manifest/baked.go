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
	mio "github.com/pollination/queenbee/pkg/manifest/io"
)

// BakedRecipe is a Recipe with all transitive dependencies inlined: its
// local DAGs renamed to "<digest>/<name>", every task template reference
// rewritten to a "<digest>/<member>" identifier, and the flattened,
// deduplicated collection of templates a dependency contributed attached.
// Produced by pkg/baker, which rejects any task template reference that
// does not resolve into Flow ∪ Templates; it does not reject a contributed
// template that no task happens to reference, since a dependency's
// unreferenced templates are ordinary (reusable functions a recipe doesn't
// happen to call yet, or transitively reachable only from a sibling
// dependency).
type BakedRecipe struct {
	Metadata     MetaData     `json:"metadata" yaml:"metadata"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
	Flow         []DAG        `json:"flow" yaml:"flow"`
	Digest       string       `json:"digest" yaml:"digest"`
	Templates    []Function   `json:"templates" yaml:"templates"`
}

// TemplateNames returns the set of template names BakedRecipe provides:
// every renamed Flow DAG plus every Templates Function.
func (b BakedRecipe) TemplateNames() map[string]bool {
	names := make(map[string]bool, len(b.Flow)+len(b.Templates))
	for _, d := range b.Flow {
		names[d.Name] = true
	}
	for _, f := range b.Templates {
		names[f.Name] = true
	}
	return names
}

// TemplateInputsOutputs returns the required-input names and output names
// of the template identified by name, looking first in Flow (DAGs) then in
// Templates (Functions). ok is false if name resolves to neither.
func (b BakedRecipe) TemplateInputsOutputs(name string) (requiredInputs, outputs []string, ok bool) {
	for _, d := range b.Flow {
		if d.Name == name {
			for _, in := range d.Inputs {
				if in.Required {
					requiredInputs = append(requiredInputs, in.Name)
				}
			}
			return requiredInputs, d.OutputNames(), true
		}
	}
	for _, f := range b.Templates {
		if f.Name == name {
			return f.RequiredInputNames(), f.OutputNames(), true
		}
	}
	return nil, nil, false
}

// TemplateInputDescriptors returns the full input descriptors (including
// Spec) of the template identified by name, looking first in Flow (DAGs)
// then in Templates (Functions). ok is false if name resolves to neither.
func (b BakedRecipe) TemplateInputDescriptors(name string) (inputs []mio.Descriptor, ok bool) {
	for _, d := range b.Flow {
		if d.Name == name {
			return d.Inputs, true
		}
	}
	for _, f := range b.Templates {
		if f.Name == name {
			return f.Inputs, true
		}
	}
	return nil, false
}

// OutputNames returns the DAG's output names, in order.
func (d DAG) OutputNames() []string {
	names := make([]string, len(d.Outputs))
	for i, out := range d.Outputs {
		names[i] = out.Name
	}
	return names
}
