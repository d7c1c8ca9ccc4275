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

package baker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pollination/queenbee/pkg/dependency"
	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	mio "github.com/pollination/queenbee/pkg/manifest/io"
	"github.com/pollination/queenbee/pkg/metrics"
	"github.com/pollination/queenbee/pkg/reference"
)

// Bake merges recipe with the manifests locked has already resolved into a
// BakedRecipe: every local DAG renamed to "<recipeDigest>/<name>", every
// task template rewritten to the dependency-qualified identifier it
// resolves to, and every reachable template flattened, deduplicated and
// validated against the tasks that invoke it. Recipe dependencies are
// baked recursively and memoized by digest, so a diamond dependency graph
// bakes each nested Recipe exactly once.
//
// Unlike the rest of the templates a dependency contributes, inlined DAGs
// from a Recipe dependency are merged into Flow rather than Templates:
// both lists are name-addressed and looked up together (BakedRecipe's
// TemplateNames/TemplateInputsOutputs already treat them as one
// namespace), and Flow is the list already typed to hold manifest.DAG
// values.
func Bake(recipe manifest.Recipe, locked dependency.LockResult) (manifest.BakedRecipe, error) {
	start := time.Now()
	baked, err := bake(recipe, locked, map[string]manifest.BakedRecipe{})
	metrics.BakeDuration.Observe(time.Since(start).Seconds())
	return baked, err
}

func bake(recipe manifest.Recipe, locked dependency.LockResult, cache map[string]manifest.BakedRecipe) (manifest.BakedRecipe, error) {
	recipeDigest, err := recipe.Digest()
	if err != nil {
		return manifest.BakedRecipe{}, qerrors.Wrap(qerrors.CodeInternal, "compute recipe digest", err)
	}

	localDAGNames := make(map[string]string, len(recipe.Flow))
	flow := make([]manifest.DAG, len(recipe.Flow))
	for i, dag := range recipe.Flow {
		renamed := dag
		renamed.Name = recipeDigest + "/" + dag.Name
		localDAGNames[dag.Name] = renamed.Name
		flow[i] = renamed
	}

	lockedDeps := make([]manifest.Dependency, len(recipe.Dependencies))
	depDigest := make(map[string]string, len(recipe.Dependencies))
	depKind := make(map[string]manifest.DependencyKind, len(recipe.Dependencies))
	var templates []manifest.Function

	for i, dep := range recipe.Dependencies {
		resolved, ok := locked.Find(dep)
		if !ok {
			return manifest.BakedRecipe{}, qerrors.New(qerrors.CodeDependencyNotFound,
				fmt.Sprintf("no resolved manifest for dependency %q", dep.RefName()))
		}
		lockedDep := resolved.Dependency
		lockedDeps[i] = lockedDep
		depDigest[dep.RefName()] = lockedDep.Digest
		depKind[dep.RefName()] = lockedDep.Kind

		switch m := resolved.Manifest.(type) {
		case manifest.Plugin:
			for _, f := range m.Functions {
				clone := f
				clone.Name = lockedDep.Digest + "/" + f.Name
				clone.Config = m.Config
				templates = append(templates, clone)
			}
		case manifest.Recipe:
			nested, ok := cache[lockedDep.Digest]
			if !ok {
				nested, err = bake(m, locked, cache)
				if err != nil {
					return manifest.BakedRecipe{}, err
				}
				cache[lockedDep.Digest] = nested
			}
			templates = append(templates, nested.Templates...)
			flow = append(flow, nested.Flow...)
		default:
			return manifest.BakedRecipe{}, qerrors.New(qerrors.CodeSchemaViolation,
				fmt.Sprintf("dependency %q resolved to an unsupported resource kind", dep.RefName()))
		}
	}

	var errs []error
	for i := range recipe.Flow {
		for j := range flow[i].Tasks {
			rewritten, rerr := rewriteTemplate(flow[i].Tasks[j].Template, localDAGNames, depDigest, depKind)
			if rerr != nil {
				errs = append(errs, rerr)
				continue
			}
			flow[i].Tasks[j].Template = rewritten
		}
	}

	// Snapshot the recipe's own rewritten DAGs, in original order, before
	// dedup/sort reorders the merged flow — validateTasks must line up
	// bakedLocalFlow[i] with recipe.Flow[i].
	localFlow := append([]manifest.DAG(nil), flow[:len(recipe.Flow)]...)

	templates = dedupFunctions(templates)
	flow = dedupDAGs(flow)
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	sort.Slice(flow, func(i, j int) bool { return flow[i].Name < flow[j].Name })

	baked := manifest.BakedRecipe{
		Metadata:     recipe.Metadata,
		Dependencies: lockedDeps,
		Flow:         flow,
		Digest:       recipeDigest,
		Templates:    templates,
	}

	if len(errs) == 0 {
		errs = append(errs, validateTasks(recipe, localFlow, baked)...)
	}
	if len(errs) > 0 {
		return manifest.BakedRecipe{}, qerrors.Flatten(errs...).OrNil()
	}
	return baked, nil
}

// rewriteTemplate implements the three template rewrite forms plus its
// catch-all REF_UNRESOLVED.
func rewriteTemplate(template string, localDAGNames map[string]string, depDigest map[string]string, depKind map[string]manifest.DependencyKind) (string, error) {
	parts := strings.Split(template, "/")
	switch len(parts) {
	case 1:
		name := parts[0]
		if renamed, ok := localDAGNames[name]; ok {
			return renamed, nil
		}
		if digest, ok := depDigest[name]; ok {
			if depKind[name] != manifest.DependencyRecipe {
				return "", qerrors.New(qerrors.CodeRefUnresolved,
					fmt.Sprintf("template %q names a plugin dependency without a function", template))
			}
			return digest + "/" + manifest.MainDAGName, nil
		}
		return "", qerrors.New(qerrors.CodeRefUnresolved,
			fmt.Sprintf("template %q names neither a local dag nor a dependency", template))

	case 2:
		ref, member := parts[0], parts[1]
		digest, ok := depDigest[ref]
		if !ok {
			return "", qerrors.New(qerrors.CodeRefUnresolved,
				fmt.Sprintf("template %q names unknown dependency %q", template, ref))
		}
		if depKind[ref] != manifest.DependencyPlugin {
			return "", qerrors.New(qerrors.CodeRefUnresolved,
				fmt.Sprintf("template %q: recipe dependency %q must be referenced without a member segment", template, ref))
		}
		return digest + "/" + member, nil

	default:
		return "", qerrors.New(qerrors.CodeRefUnresolved, fmt.Sprintf("template %q has an invalid shape", template))
	}
}

// validateTasks runs the required-input, return and reference checks for every task belonging to recipe's
// own flow (bakedLocalFlow holds those same DAGs post-rewrite, in order).
func validateTasks(recipe manifest.Recipe, bakedLocalFlow []manifest.DAG, baked manifest.BakedRecipe) []error {
	var errs []error
	for i, dag := range recipe.Flow {
		scope := reference.NewScope()
		for _, in := range dag.Inputs {
			scope.DAGInputs[in.Name] = true
		}
		for _, t := range dag.Tasks {
			if t.Loop != nil {
				scope.TaskIsLoop[t.Name] = true
			}
			returns := make(map[string]bool, len(t.Returns))
			for _, ret := range t.Returns {
				returns[ret.Name] = true
			}
			scope.TaskReturns[t.Name] = returns
		}

		for j, t := range dag.Tasks {
			rewritten := bakedLocalFlow[i].Tasks[j].Template
			requiredInputs, outputs, ok := baked.TemplateInputsOutputs(rewritten)
			if !ok {
				errs = append(errs, qerrors.New(qerrors.CodeRefUnresolved,
					fmt.Sprintf("task %s: template %q does not resolve to any known template", t.Name, rewritten)))
				continue
			}

			argSet := make(map[string]bool, len(t.Arguments))
			for _, a := range t.Arguments {
				argSet[a.Name] = true
			}
			for _, req := range requiredInputs {
				if !argSet[req] {
					errs = append(errs, qerrors.New(qerrors.CodeTemplateMismatch,
						fmt.Sprintf("task %s: missing argument for required input %q", t.Name, req)))
				}
			}

			inputDescriptors, _ := baked.TemplateInputDescriptors(rewritten)
			descByName := make(map[string]mio.Descriptor, len(inputDescriptors))
			for _, in := range inputDescriptors {
				descByName[in.Name] = in
			}

			outputSet := make(map[string]bool, len(outputs))
			for _, o := range outputs {
				outputSet[o] = true
			}
			for _, ret := range t.Returns {
				if !outputSet[ret.Name] {
					errs = append(errs, qerrors.New(qerrors.CodeTemplateMismatch,
						fmt.Sprintf("task %s: return %q is not an output of its template", t.Name, ret.Name)))
				}
			}

			needs := t.NeedsSet()
			for _, a := range t.Arguments {
				refs, rerr := bindingReferences(a.Value)
				if rerr != nil {
					errs = append(errs, rerr)
					continue
				}
				if len(refs) == 0 {
					if desc, ok := descByName[a.Name]; ok {
						if verr := desc.ValidateValue(a.Value); verr != nil {
							errs = append(errs, qerrors.Wrap(qerrors.CodeSchemaViolation,
								fmt.Sprintf("task %s: argument %q", t.Name, a.Name), verr))
						}
					}
				}
				for _, ref := range refs {
					if cerr := scope.Check(ref, t.Name, needs); cerr != nil {
						errs = append(errs, cerr)
					}
				}
			}
			if t.Loop != nil {
				refs, rerr := reference.FindAll(*t.Loop)
				if rerr != nil {
					errs = append(errs, rerr)
					continue
				}
				for _, ref := range refs {
					if cerr := scope.Check(ref, t.Name, needs); cerr != nil {
						errs = append(errs, cerr)
					}
				}
			}
		}
	}
	return errs
}

// bindingReferences extracts every "{{…}}" reference from a binding value,
// which is either a JSON string or (for array-typed arguments) a JSON
// array of strings each independently checked; any other JSON shape
// (numbers, objects, booleans) carries no references.
func bindingReferences(value []byte) ([]reference.Reference, error) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return reference.FindAll(s)
	}
	var list []string
	if err := json.Unmarshal(value, &list); err == nil {
		var all []reference.Reference
		for _, item := range list {
			refs, err := reference.FindAll(item)
			if err != nil {
				return nil, err
			}
			all = append(all, refs...)
		}
		return all, nil
	}
	return nil, nil
}

func dedupFunctions(fns []manifest.Function) []manifest.Function {
	seen := make(map[string]bool, len(fns))
	out := make([]manifest.Function, 0, len(fns))
	for _, f := range fns {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

func dedupDAGs(dags []manifest.DAG) []manifest.DAG {
	seen := make(map[string]bool, len(dags))
	out := make([]manifest.DAG, 0, len(dags))
	for _, d := range dags {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}
