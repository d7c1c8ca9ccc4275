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

package reference

import (
	"fmt"
	"regexp"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// pattern matches "{{...}}" template placeholders, tolerating surrounding
// whitespace inside the braces.
var pattern = regexp.MustCompile(`{{\s*([_a-zA-Z0-9.\-\$#\?]*)\s*}}`)

// Kind classifies a parsed reference.
type Kind string

const (
	KindInput       Kind = "input"
	KindTask        Kind = "task"
	KindItem        Kind = "item"
	KindValue       Kind = "value"
	KindValueList   Kind = "value_list"
	KindWorkflowRef Kind = "workflow"
)

// Reference is a single classified "{{…}}" citation found in a manifest
// string.
type Reference struct {
	Kind Kind
	Raw  string // the full "{{…}}" text as it appeared in the source string

	// Variable is set for KindInput ("inputs.<variable>").
	Variable string

	// Task and TaskVariable are set for KindTask ("tasks.<task>.<var>").
	Task         string
	TaskVariable string

	// Path is set for KindItem when the loop item is dereferenced by path
	// ("item.<path>"); empty for a bare "item".
	Path string
}

// FindAll extracts and classifies every "{{…}}" reference in s. A string
// with no matches returns a nil, non-error result — most manifest string
// fields (e.g. literal argument values) contain no references at all.
func FindAll(s string) ([]Reference, error) {
	matches := pattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		ref, err := classify(m[1])
		if err != nil {
			return nil, err
		}
		ref.Raw = m[0]
		refs = append(refs, ref)
	}
	return refs, nil
}

// classify segments body (the text between "{{" and "}}") on "." and
// dispatches on the first segment.
func classify(body string) (Reference, error) {
	segments := strings.Split(body, ".")
	if len(segments) == 0 || segments[0] == "" {
		return Reference{}, qerrors.New(qerrors.CodeRefUnresolved, fmt.Sprintf("empty reference %q", body))
	}

	switch segments[0] {
	case "inputs":
		if len(segments) != 2 || segments[1] == "" {
			return Reference{}, qerrors.New(qerrors.CodeRefUnresolved, fmt.Sprintf("malformed input reference %q: expected inputs.<name>", body))
		}
		return Reference{Kind: KindInput, Variable: segments[1]}, nil

	case "tasks":
		if len(segments) != 3 || segments[1] == "" || segments[2] == "" {
			return Reference{}, qerrors.New(qerrors.CodeRefUnresolved, fmt.Sprintf("malformed task reference %q: expected tasks.<task>.<var>", body))
		}
		return Reference{Kind: KindTask, Task: segments[1], TaskVariable: segments[2]}, nil

	case "item":
		if len(segments) == 1 {
			return Reference{Kind: KindItem}, nil
		}
		return Reference{Kind: KindItem, Path: strings.Join(segments[1:], ".")}, nil

	case "self":
		return Reference{Kind: KindWorkflowRef}, nil

	default:
		// Reserved for the external execution engine (workflow variables
		// such as run id, timestamps); the core treats these as opaque
		// passthrough for an unrecognized prefix.
		return Reference{Kind: KindWorkflowRef}, nil
	}
}

// IsReference reports whether s is exactly one "{{…}}" placeholder with no
// surrounding text, the shape every Binding.Value uses when it points at a
// dynamic source rather than holding a literal.
func IsReference(s string) bool {
	return pattern.MatchString(s) && pattern.FindString(s) == strings.TrimSpace(s)
}

// ClassifyBindingValue classifies a Task argument/return value string: a
// sole "{{…}}" placeholder resolves to its parsed Reference; anything else
// is a literal, returned as KindValue (or KindValueList when raw is a JSON
// array, which the caller detects and passes isList=true).
func ClassifyBindingValue(raw string, isList bool) (Reference, error) {
	if IsReference(raw) {
		refs, err := FindAll(raw)
		if err != nil {
			return Reference{}, err
		}
		return refs[0], nil
	}
	if isList {
		return Reference{Kind: KindValueList, Raw: raw}, nil
	}
	return Reference{Kind: KindValue, Raw: raw}, nil
}

// Scope is the set of names visible to references inside one DAG: its own
// declared inputs, and for each task its declared returns plus whether it
// is itself a loop (an ItemRef source) and which tasks are its direct
// predecessors via `needs`.
type Scope struct {
	DAGInputs map[string]bool
	// TaskReturns maps task name -> set of return names that task exposes.
	TaskReturns map[string]map[string]bool
	// TaskIsLoop marks which tasks have a `loop` binding.
	TaskIsLoop map[string]bool
}

// NewScope builds an empty Scope ready for population by the caller
// (typically the baker, which has the Task/DAG data already loaded).
func NewScope() *Scope {
	return &Scope{
		DAGInputs:   map[string]bool{},
		TaskReturns: map[string]map[string]bool{},
		TaskIsLoop:  map[string]bool{},
	}
}

// Check validates ref against scope for a binding that belongs to task
// taskName with predecessor set needs (invariants 4-6). An InputRef must
// name a DAG input; a TaskRef must name a task in needs that exposes that
// return; an ItemRef is valid only when taskName itself has a loop.
func (s *Scope) Check(ref Reference, taskName string, needs map[string]bool) error {
	switch ref.Kind {
	case KindInput:
		if !s.DAGInputs[ref.Variable] {
			return qerrors.NewRefUnresolved(ref.Raw, map[string]any{"task": taskName, "kind": "input"})
		}
		return nil

	case KindTask:
		if !needs[ref.Task] {
			return qerrors.NewRefUnresolved(ref.Raw, map[string]any{"task": taskName, "kind": "task", "target": ref.Task})
		}
		returns, ok := s.TaskReturns[ref.Task]
		if !ok || !returns[ref.TaskVariable] {
			return qerrors.NewRefUnresolved(ref.Raw, map[string]any{"task": taskName, "kind": "task", "target": ref.Task, "variable": ref.TaskVariable})
		}
		return nil

	case KindItem:
		if !s.TaskIsLoop[taskName] {
			return qerrors.NewRefUnresolved(ref.Raw, map[string]any{"task": taskName, "kind": "item"})
		}
		return nil

	default:
		// KindValue/KindValueList/KindWorkflowRef carry no scope obligation.
		return nil
	}
}
