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
	"encoding/json"
	"fmt"
	"os"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/file"
)

// Pull fetches the archive tagged ref and reconstructs the PackageVersion
// recorded in its manifest annotations. It is the mirror of Push and
// satisfies pkg/transport's fetch(url, authHeader) -> bytes contract for
// "oci://" source URLs (the auth header itself is unused here: OCI
// authentication is delegated to the Docker credential store).
func Pull(ctx context.Context, ref string) (manifest.PackageVersion, []byte, error) {
	p, err := parseRef(ref)
	if err != nil {
		return manifest.PackageVersion{}, nil, err
	}

	repo, err := remoteRepository(p)
	if err != nil {
		return manifest.PackageVersion{}, nil, err
	}

	destDir, err := os.MkdirTemp("", "queenbee-oci-pull-*")
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeIO, "create OCI pull directory", err)
	}
	defer os.RemoveAll(destDir)

	fs, err := file.New(destDir)
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeInternal, "create OCI file store", err)
	}
	defer fs.Close()

	manifestDesc, err := oras.Copy(ctx, repo, p.tag, fs, p.tag, oras.DefaultCopyOptions)
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeUnreachableRepo,
			fmt.Sprintf("pull %s/%s:%s", p.host, p.repo, p.tag), err)
	}

	manifestBytes, err := content.FetchAll(ctx, fs, manifestDesc)
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeCorruptArchive, "read OCI manifest", err)
	}

	var m ociv1.Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeParse, "decode OCI manifest", err)
	}
	if len(m.Layers) != 1 {
		return manifest.PackageVersion{}, nil, qerrors.Newf(qerrors.CodeCorruptArchive,
			"expected exactly one OCI layer, found %d", len(m.Layers))
	}

	archive, err := content.FetchAll(ctx, fs, m.Layers[0])
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeIO, "read OCI layer", err)
	}

	version := manifest.PackageVersion{
		Type:   "PackageVersion",
		Name:   m.Annotations[annotationName],
		Tag:    m.Annotations[annotationTag],
		Digest: m.Annotations[annotationDigest],
		Kind:   manifest.PackageKind(m.Annotations[annotationKind]),
		URL:    ref,
	}
	if created, ok := m.Annotations[ociv1.AnnotationCreated]; ok {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			version.Created = t
		}
	}

	return version, archive, nil
}
