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

// RunConfig is the single run-configuration a Plugin's Functions share:
// either a container image (Docker) or "run-locally" when Image is empty.
type RunConfig struct {
	Image      string `json:"image,omitempty" yaml:"image,omitempty"`
	Registry   string `json:"registry,omitempty" yaml:"registry,omitempty"`
	WorkingDir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`
}

// IsLocal reports whether this Plugin runs its Functions on the host
// rather than in a container image.
func (c RunConfig) IsLocal() bool {
	return c.Image == ""
}
