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

// Package ociregistry pushes and pulls a packaged plugin or recipe
// archive as a single-layer OCI artifact, so a repository can be
// addressed by an "oci://registry/repository:tag" source URL in
// addition to file: and http(s) sources.
//
// The archive is staged as the one blob layer of an OCI 1.1 manifest;
// the PackageVersion's name, tag, digest, and kind travel as manifest
// annotations so Pull can reconstruct it without a side-channel index
// fetch. Authentication uses the local Docker credential store via
// oras.land/oras-go/v2/registry/remote/credentials.
package ociregistry
