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

// Package io holds the discriminated I/O descriptor variants shared by
// Functions, DAGs and Tasks: typed inputs/outputs on templates, and typed
// arguments/returns on task bindings. Every variant carries a mandatory
// "type" discriminator on the wire (e.g. "DAGStringInput",
// "FunctionFileOutput", "TaskPathArgument") built from an owner
// (DAG/Function/Task), a value kind (String/Integer/.../Path) and a role
// (Input/Output/Argument/Return).
package io

import (
	"encoding/json"
	"fmt"

	qerrors "github.com/pollination/queenbee/pkg/errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValueKind is the semantic type carried by an I/O descriptor.
type ValueKind string

const (
	KindString  ValueKind = "String"
	KindInteger ValueKind = "Integer"
	KindNumber  ValueKind = "Number"
	KindBoolean ValueKind = "Boolean"
	KindArray   ValueKind = "Array"
	KindJSON    ValueKind = "JSON"
	KindFile    ValueKind = "File"
	KindFolder  ValueKind = "Folder"
	KindPath    ValueKind = "Path"
)

// IsArtifact reports whether a value kind is file-backed (as opposed to a
// parameter kind). TaskRef resolution branches on this to decide
// whether a reference targets a file/folder/path artifact or a parameter.
func (k ValueKind) IsArtifact() bool {
	switch k {
	case KindFile, KindFolder, KindPath:
		return true
	default:
		return false
	}
}

func (k ValueKind) valid() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean, KindArray, KindJSON, KindFile, KindFolder, KindPath:
		return true
	default:
		return false
	}
}

// Owner identifies which manifest construct an I/O descriptor belongs to.
type Owner string

const (
	OwnerDAG      Owner = "DAG"
	OwnerFunction Owner = "Function"
	OwnerTask     Owner = "Task"
)

// Role identifies the direction/purpose of an I/O descriptor.
type Role string

const (
	RoleInput    Role = "Input"
	RoleOutput   Role = "Output"
	RoleArgument Role = "Argument"
	RoleReturn   Role = "Return"
)

// Discriminator builds the wire "type" value, e.g. "DAGStringInput".
func Discriminator(owner Owner, kind ValueKind, role Role) string {
	return string(owner) + string(kind) + string(role)
}

// ParseDiscriminator decomposes a wire "type" string back into its parts.
// Unknown discriminators return an error wrapping CodeParse, per the
// invariant that unknown discriminators are fatal.
func ParseDiscriminator(disc string) (Owner, ValueKind, Role, error) {
	owners := []Owner{OwnerDAG, OwnerFunction, OwnerTask}
	roles := []Role{RoleInput, RoleOutput, RoleArgument, RoleReturn}
	kinds := []ValueKind{KindString, KindInteger, KindNumber, KindBoolean, KindArray, KindJSON, KindFile, KindFolder, KindPath}

	for _, o := range owners {
		if len(disc) <= len(o) || disc[:len(o)] != string(o) {
			continue
		}
		rest := disc[len(o):]
		for _, r := range roles {
			if len(rest) <= len(r) || rest[len(rest)-len(r):] != string(r) {
				continue
			}
			kindStr := rest[:len(rest)-len(r)]
			for _, k := range kinds {
				if string(k) == kindStr {
					return o, k, r, nil
				}
			}
		}
	}
	return "", "", "", qerrors.New(qerrors.CodeParse, fmt.Sprintf("unknown I/O discriminator %q", disc))
}

// Descriptor is the common shape shared by all Input/Output variants
// (DAG and Function level). Default and Spec are carried as raw JSON since
// their shape depends on Kind.
type Descriptor struct {
	Owner    Owner           `json:"-"`
	Kind     ValueKind       `json:"-"`
	Role     Role            `json:"-"`
	Name     string          `json:"name"`
	Default  json.RawMessage `json:"default,omitempty"`
	Required bool            `json:"required"`
	Spec     json.RawMessage `json:"spec,omitempty"`
	Aliases  []string        `json:"aliases,omitempty"`
}

// MarshalJSON renders the descriptor with its computed "type" discriminator.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type     string          `json:"type"`
		Name     string          `json:"name"`
		Default  json.RawMessage `json:"default,omitempty"`
		Required bool            `json:"required"`
		Spec     json.RawMessage `json:"spec,omitempty"`
		Aliases  []string        `json:"aliases,omitempty"`
	}
	return json.Marshal(wire{
		Type:     Discriminator(d.Owner, d.Kind, d.Role),
		Name:     d.Name,
		Default:  d.Default,
		Required: d.Required,
		Spec:     d.Spec,
		Aliases:  d.Aliases,
	})
}

// UnmarshalJSON decodes a descriptor, resolving Owner/Kind/Role from the
// "type" discriminator. The caller (DAG/Function decoder) is expected to
// check that Owner/Role match the slot the descriptor was found in.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type     string          `json:"type"`
		Name     string          `json:"name"`
		Default  json.RawMessage `json:"default,omitempty"`
		Required bool            `json:"required"`
		Spec     json.RawMessage `json:"spec,omitempty"`
		Aliases  []string        `json:"aliases,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode io descriptor: %w", err)
	}
	owner, kind, role, err := ParseDiscriminator(wire.Type)
	if err != nil {
		return err
	}
	d.Owner = owner
	d.Kind = kind
	d.Role = role
	d.Name = wire.Name
	d.Default = wire.Default
	d.Required = wire.Required
	d.Spec = wire.Spec
	d.Aliases = wire.Aliases
	return nil
}

// Validate checks the descriptor's own invariants: a recognized value
// kind, a non-empty name, aliases only on DAG-owned descriptors, and (when
// both Default and Spec are set) that Default satisfies Spec.
func (d Descriptor) Validate() error {
	var errs qerrors.ValidationErrors
	if !d.Kind.valid() {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("unknown value kind %q", d.Kind)))
	}
	if d.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "io descriptor name is required"))
	}
	if len(d.Aliases) > 0 && d.Owner != OwnerDAG {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("aliases are only valid on DAG io, got owner %q", d.Owner)))
	}
	if verr := d.ValidateValue(d.Default); verr != nil {
		if se, ok := qerrors.AsStructuredError(verr); ok {
			errs = append(errs, se)
		} else {
			errs = append(errs, qerrors.Wrap(qerrors.CodeSchemaViolation, "default value", verr))
		}
	}
	return errs.OrNil()
}

// ValidateValue checks value against Spec, a JSON-Schema document carried
// on the wire as raw JSON, the same hook the original queenbee input types
// use to validate a bound value against their "schema" annotation before
// accepting it. A descriptor with no Spec, or an empty value, accepts
// anything.
func (d Descriptor) ValidateValue(value json.RawMessage) error {
	if len(d.Spec) == 0 || len(value) == 0 {
		return nil
	}
	schema, err := jsonschema.CompileString(d.Name+".json", string(d.Spec))
	if err != nil {
		return qerrors.Wrap(qerrors.CodeSchemaViolation, fmt.Sprintf("io %q: invalid spec", d.Name), err)
	}
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return qerrors.Wrap(qerrors.CodeSchemaViolation, fmt.Sprintf("io %q: invalid value", d.Name), err)
	}
	if err := schema.Validate(decoded); err != nil {
		return qerrors.Wrap(qerrors.CodeSchemaViolation, fmt.Sprintf("io %q: value does not satisfy spec", d.Name), err)
	}
	return nil
}

// NewInput constructs a required-by-default input descriptor for the given
// owner (DAG or Function).
func NewInput(owner Owner, kind ValueKind, name string) Descriptor {
	return Descriptor{Owner: owner, Kind: kind, Role: RoleInput, Name: name, Required: true}
}

// NewOutput constructs an output descriptor for the given owner.
func NewOutput(owner Owner, kind ValueKind, name string) Descriptor {
	return Descriptor{Owner: owner, Kind: kind, Role: RoleOutput, Name: name}
}

// Binding is a Task-level argument or return: a name paired with a value
// that is either a literal or a "{{…}}" reference string, plus the value
// kind inherited from the template slot it binds (used for round-trip
// re-encoding of the "type" discriminator, e.g. "TaskPathArgument").
type Binding struct {
	Kind  ValueKind       `json:"-"`
	Role  Role            `json:"-"` // RoleArgument or RoleReturn
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the binding with its "Task<Kind><Role>" discriminator.
func (b Binding) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type  string          `json:"type"`
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	return json.Marshal(wire{
		Type:  Discriminator(OwnerTask, b.Kind, b.Role),
		Name:  b.Name,
		Value: b.Value,
	})
}

// UnmarshalJSON decodes a binding, resolving Kind/Role from its
// discriminator. Owner is always OwnerTask; a discriminator whose owner is
// not "Task" is rejected.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type  string          `json:"type"`
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode task binding: %w", err)
	}
	owner, kind, role, err := ParseDiscriminator(wire.Type)
	if err != nil {
		return err
	}
	if owner != OwnerTask {
		return qerrors.New(qerrors.CodeParse, fmt.Sprintf("expected Task-owned binding, got discriminator %q", wire.Type))
	}
	if role != RoleArgument && role != RoleReturn {
		return qerrors.New(qerrors.CodeParse, fmt.Sprintf("binding discriminator %q is neither argument nor return", wire.Type))
	}
	b.Kind = kind
	b.Role = role
	b.Name = wire.Name
	b.Value = wire.Value
	return nil
}

// StringValue returns Value decoded as a plain string, the common case for
// both literals ("room") and reference strings ("{{inputs.grid}}").
func (b Binding) StringValue() (string, error) {
	var s string
	if err := json.Unmarshal(b.Value, &s); err != nil {
		return "", fmt.Errorf("binding %q value is not a string: %w", b.Name, err)
	}
	return s, nil
}
