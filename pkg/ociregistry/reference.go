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
	"fmt"
	"net/http"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"

	"github.com/distribution/reference"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// parsedRef is a ref string split into the parts oras needs: the
// registry host, the repository path, and the tag (defaulting to
// "latest" when the ref carries none).
type parsedRef struct {
	host string
	repo string
	tag  string
}

// parseRef validates ref against the same name[:tag] grammar used for
// container image references, tolerating an optional "oci://" prefix.
func parseRef(ref string) (parsedRef, error) {
	trimmed := strings.TrimPrefix(ref, "oci://")
	named, err := reference.ParseNormalizedNamed(trimmed)
	if err != nil {
		return parsedRef{}, qerrors.Wrap(qerrors.CodeInvalidArgument, fmt.Sprintf("parse OCI reference %q", ref), err)
	}

	tag := "latest"
	if tagged, ok := named.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	return parsedRef{
		host: reference.Domain(named),
		repo: reference.Path(named),
		tag:  tag,
	}, nil
}

// authClient builds an oras auth.Client backed by the local Docker
// credential store, so a push/pull against a private registry picks up
// whatever "docker login" already configured.
func authClient() *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}

// remoteRepository opens the remote repository named by p, configured
// with the Docker-credential-backed auth client.
func remoteRepository(p parsedRef) (*remote.Repository, error) {
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", p.host, p.repo))
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeUnreachableRepo, fmt.Sprintf("open OCI repository %s/%s", p.host, p.repo), err)
	}
	repo.Client = authClient()
	return repo, nil
}
