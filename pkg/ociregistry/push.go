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

package ociregistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
)

// ArtifactType is the OCI manifest artifactType given to every archive
// pushed by this package.
const ArtifactType = "application/vnd.queenbee.package.v1"

// Manifest annotation keys carrying a PackageVersion's identity, so Pull
// can reconstruct it without a separate index fetch.
const (
	annotationName   = "sh.queenbee.name"
	annotationTag    = "sh.queenbee.tag"
	annotationDigest = "sh.queenbee.digest"
	annotationKind   = "sh.queenbee.kind"
)

// Push uploads archive as the single blob layer of an OCI 1.1 manifest
// to the repository and tag named by ref, annotated with version's
// identity. If ref carries no tag, version.Tag is used.
func Push(ctx context.Context, ref string, version manifest.PackageVersion, archive []byte) error {
	p, err := parseRef(ref)
	if err != nil {
		return err
	}
	if p.tag == "latest" && version.Tag != "" {
		p.tag = version.Tag
	}

	stageDir, err := os.MkdirTemp("", "queenbee-oci-push-*")
	if err != nil {
		return qerrors.Wrap(qerrors.CodeIO, "create OCI staging directory", err)
	}
	defer os.RemoveAll(stageDir)

	fileName := fmt.Sprintf("%s-%s.tgz", version.Name, version.Tag)
	if err := os.WriteFile(filepath.Join(stageDir, fileName), archive, 0o644); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, "stage archive for push", err)
	}

	fs, err := file.New(stageDir)
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, "create OCI file store", err)
	}
	defer fs.Close()
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, fileName, ociv1.MediaTypeImageLayerGzip, "")
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, "stage archive blob", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: map[string]string{
			ociv1.AnnotationCreated: version.Created.UTC().Format(time.RFC3339),
			annotationName:          version.Name,
			annotationTag:           version.Tag,
			annotationDigest:        version.Digest,
			annotationKind:          string(version.Kind),
		},
	})
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, "pack OCI manifest", err)
	}

	if err := fs.Tag(ctx, manifestDesc, p.tag); err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, "tag OCI manifest locally", err)
	}

	repo, err := remoteRepository(p)
	if err != nil {
		return err
	}

	if _, err := oras.Copy(ctx, fs, p.tag, repo, p.tag, oras.DefaultCopyOptions); err != nil {
		return qerrors.Wrap(qerrors.CodeUnreachableRepo,
			fmt.Sprintf("push %s to %s/%s:%s", fileName, p.host, p.repo, p.tag), err)
	}

	return nil
}
