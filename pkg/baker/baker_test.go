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
	"testing"

	"github.com/pollination/queenbee/pkg/dependency"
	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	mio "github.com/pollination/queenbee/pkg/manifest/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literal(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func gridGenPlugin(digest string) (manifest.Plugin, dependency.Resolved) {
	plugin := manifest.Plugin{
		Metadata: manifest.MetaData{Name: "grid-gen", Tag: "0.1.0"},
		Config:   manifest.RunConfig{Image: "ladybugtools/grid-gen:0.1.0"},
		Functions: []manifest.Function{
			{
				Name:    "rtrace",
				Command: "rtrace {{inputs.count}}",
				Inputs:  []mio.Descriptor{mio.NewInput(mio.OwnerFunction, mio.KindInteger, "count")},
				Outputs: []mio.Descriptor{mio.NewOutput(mio.OwnerFunction, mio.KindFile, "grid")},
			},
		},
	}
	dep := manifest.Dependency{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file:///repo", Digest: digest}
	return plugin, dependency.Resolved{Dependency: dep, Manifest: plugin}
}

func TestBakePluginDependencyRewritesTwoSegmentTemplate(t *testing.T) {
	plugin, resolved := gridGenPlugin("plugindigest")

	recipe := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "demo", Tag: "0.1.0"},
		Dependencies: []manifest.Dependency{
			{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file:///repo", Digest: "plugindigest"},
		},
		Flow: []manifest.DAG{
			{
				Name:   manifest.MainDAGName,
				Inputs: []mio.Descriptor{mio.NewInput(mio.OwnerDAG, mio.KindInteger, "count")},
				Tasks: []manifest.Task{
					{
						Name:     "trace",
						Template: "grid-gen/rtrace",
						Arguments: []mio.Binding{
							{Kind: mio.KindInteger, Role: mio.RoleArgument, Name: "count", Value: literal("{{inputs.count}}")},
						},
						Returns: []mio.Binding{
							{Kind: mio.KindFile, Role: mio.RoleReturn, Name: "grid", Value: literal("")},
						},
					},
				},
			},
		},
	}

	locked := dependency.LockResult{
		Dependencies: recipe.Dependencies,
		ByDigest:     map[string]dependency.Resolved{"plugindigest": resolved},
	}

	baked, err := Bake(recipe, locked)
	require.NoError(t, err)

	recipeDigest, err := recipe.Digest()
	require.NoError(t, err)

	require.Len(t, baked.Flow, 1)
	assert.Equal(t, recipeDigest+"/main", baked.Flow[0].Name)
	assert.Equal(t, "plugindigest/rtrace", baked.Flow[0].Tasks[0].Template)

	require.Len(t, baked.Templates, 1)
	assert.Equal(t, "plugindigest/rtrace", baked.Templates[0].Name)
	assert.Equal(t, plugin.Config, baked.Templates[0].Config)
}

func TestBakeRecipeDependencySingleSegmentRewritesToMain(t *testing.T) {
	subRecipe := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "sub", Tag: "0.1.0"},
		Flow: []manifest.DAG{
			{
				Name:  manifest.MainDAGName,
				Tasks: []manifest.Task{{Name: "only", Template: "leaf"}},
			},
			{Name: "leaf"},
		},
	}

	subDigest, err := subRecipe.Digest()
	require.NoError(t, err)

	subResolved := dependency.Resolved{
		Dependency: manifest.Dependency{Kind: manifest.DependencyRecipe, Name: "sub", Version: "0.1.0", Source: "file:///repo", Digest: subDigest},
		Manifest:   subRecipe,
	}

	top := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "top", Tag: "0.1.0"},
		Dependencies: []manifest.Dependency{
			{Kind: manifest.DependencyRecipe, Name: "sub", Version: "0.1.0", Source: "file:///repo", Digest: subDigest},
		},
		Flow: []manifest.DAG{
			{
				Name: manifest.MainDAGName,
				Tasks: []manifest.Task{
					{Name: "delegate", Template: "sub"},
				},
			},
		},
	}

	locked := dependency.LockResult{
		Dependencies: top.Dependencies,
		ByDigest:     map[string]dependency.Resolved{subDigest: subResolved},
	}

	baked, err := Bake(top, locked)
	require.NoError(t, err)

	topDigest, err := top.Digest()
	require.NoError(t, err)

	var mainDAG manifest.DAG
	for _, d := range baked.Flow {
		if d.Name == topDigest+"/main" {
			mainDAG = d
		}
	}
	require.NotEmpty(t, mainDAG.Name)
	assert.Equal(t, subDigest+"/main", mainDAG.Tasks[0].Template)

	// The nested recipe's own renamed DAGs were inlined into Flow too.
	names := baked.TemplateNames()
	assert.True(t, names[subDigest+"/main"])
	assert.True(t, names[subDigest+"/leaf"])
}

func TestBakeMissingRequiredArgumentFailsTemplateMismatch(t *testing.T) {
	_, resolved := gridGenPlugin("plugindigest")

	recipe := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "demo", Tag: "0.1.0"},
		Dependencies: []manifest.Dependency{
			{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file:///repo", Digest: "plugindigest"},
		},
		Flow: []manifest.DAG{
			{
				Name: manifest.MainDAGName,
				Tasks: []manifest.Task{
					{Name: "trace", Template: "grid-gen/rtrace"},
				},
			},
		},
	}

	locked := dependency.LockResult{
		Dependencies: recipe.Dependencies,
		ByDigest:     map[string]dependency.Resolved{"plugindigest": resolved},
	}

	_, err := Bake(recipe, locked)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeTemplateMismatch, se.Code)
}

func TestBakeUnresolvedTemplateShapeFails(t *testing.T) {
	recipe := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "demo", Tag: "0.1.0"},
		Flow: []manifest.DAG{
			{
				Name: manifest.MainDAGName,
				Tasks: []manifest.Task{
					{Name: "broken", Template: "a/b/c"},
				},
			},
		},
	}

	_, err := Bake(recipe, dependency.LockResult{ByDigest: map[string]dependency.Resolved{}})
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeRefUnresolved, se.Code)
}

func TestBakeRejectsLiteralArgumentViolatingInputSpec(t *testing.T) {
	plugin := manifest.Plugin{
		Metadata: manifest.MetaData{Name: "grid-gen", Tag: "0.1.0"},
		Config:   manifest.RunConfig{Image: "ladybugtools/grid-gen:0.1.0"},
		Functions: []manifest.Function{
			{
				Name:    "rtrace",
				Command: "rtrace {{inputs.count}}",
				Inputs: []mio.Descriptor{func() mio.Descriptor {
					d := mio.NewInput(mio.OwnerFunction, mio.KindInteger, "count")
					d.Spec = json.RawMessage(`{"type":"integer","minimum":1}`)
					return d
				}()},
				Outputs: []mio.Descriptor{mio.NewOutput(mio.OwnerFunction, mio.KindFile, "grid")},
			},
		},
	}
	dep := manifest.Dependency{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file:///repo", Digest: "plugindigest"}
	resolved := dependency.Resolved{Dependency: dep, Manifest: plugin}

	recipe := manifest.Recipe{
		Metadata:     manifest.MetaData{Name: "demo", Tag: "0.1.0"},
		Dependencies: []manifest.Dependency{dep},
		Flow: []manifest.DAG{
			{
				Name: manifest.MainDAGName,
				Tasks: []manifest.Task{
					{
						Name:     "trace",
						Template: "grid-gen/rtrace",
						Arguments: []mio.Binding{
							{Kind: mio.KindInteger, Role: mio.RoleArgument, Name: "count", Value: json.RawMessage(`0`)},
						},
						Returns: []mio.Binding{
							{Kind: mio.KindFile, Role: mio.RoleReturn, Name: "grid", Value: literal("")},
						},
					},
				},
			},
		},
	}
	locked := dependency.LockResult{
		Dependencies: recipe.Dependencies,
		ByDigest:     map[string]dependency.Resolved{"plugindigest": resolved},
	}

	_, err := Bake(recipe, locked)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeSchemaViolation, se.Code)
	assert.Contains(t, se.Message, "count")
}

func TestBakeInputRefMustNameDAGInput(t *testing.T) {
	_, resolved := gridGenPlugin("plugindigest")

	recipe := manifest.Recipe{
		Metadata: manifest.MetaData{Name: "demo", Tag: "0.1.0"},
		Dependencies: []manifest.Dependency{
			{Kind: manifest.DependencyPlugin, Name: "grid-gen", Version: "0.1.0", Source: "file:///repo", Digest: "plugindigest"},
		},
		Flow: []manifest.DAG{
			{
				Name: manifest.MainDAGName,
				// Note: no declared "count" input, but the task argument
				// references {{inputs.count}} anyway.
				Tasks: []manifest.Task{
					{
						Name:     "trace",
						Template: "grid-gen/rtrace",
						Arguments: []mio.Binding{
							{Kind: mio.KindInteger, Role: mio.RoleArgument, Name: "count", Value: literal("{{inputs.count}}")},
						},
					},
				},
			},
		},
	}

	locked := dependency.LockResult{
		Dependencies: recipe.Dependencies,
		ByDigest:     map[string]dependency.Resolved{"plugindigest": resolved},
	}

	_, err := Bake(recipe, locked)
	require.Error(t, err)
	se, ok := qerrors.AsStructuredError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.CodeRefUnresolved, se.Code)
}
