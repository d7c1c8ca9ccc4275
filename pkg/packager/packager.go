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

package packager

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/metrics"
)

// member modes are normalized: uid/gid=0, uname/gname="0", mode=0o664, regular
// file, ordered resource.json, version.json, README.md.
const tarMode = 0o664

// Pack builds the gzip-tar archive for r: a canonical "resource.json", a
// canonical "version.json" describing it, and an optional "README.md".
// created stamps both the PackageVersion and every tar member's mtime, so
// packing the same resource with the same created time is byte-for-byte
// reproducible.
func Pack(r manifest.Resource, readme string, created time.Time) (manifest.PackageVersion, []byte, error) {
	resourceBytes, err := manifest.CanonicalJSON(r)
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeInternal, "canonicalize resource", err)
	}
	digest := manifest.DigestBytes(resourceBytes)
	meta := r.ResourceMetadata()

	version := manifest.PackageVersion{
		Type:        "PackageVersion",
		Name:        meta.Name,
		Tag:         meta.Tag,
		Digest:      digest,
		Created:     created,
		URL:         fmt.Sprintf("%s-%s.tgz", meta.Name, meta.Tag),
		Kind:        r.Kind(),
		Keywords:    meta.Keywords,
		Maintainers: meta.Maintainers,
		License:     meta.License,
		Description: meta.Description,
		Icon:        meta.Icon,
		Home:        meta.Home,
		Sources:     meta.Sources,
		Deprecated:  meta.Deprecated,
		AppVersion:  meta.AppVersion,
	}

	versionBytes, err := manifest.CanonicalJSON(version)
	if err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeInternal, "canonicalize version", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if err := addMember(tw, "resource.json", resourceBytes, created); err != nil {
		return manifest.PackageVersion{}, nil, err
	}
	if err := addMember(tw, "version.json", versionBytes, created); err != nil {
		return manifest.PackageVersion{}, nil, err
	}
	if readme != "" {
		if err := addMember(tw, "README.md", []byte(readme), created); err != nil {
			return manifest.PackageVersion{}, nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeIO, "close tar writer", err)
	}
	if err := gz.Close(); err != nil {
		return manifest.PackageVersion{}, nil, qerrors.Wrap(qerrors.CodeIO, "close gzip writer", err)
	}

	version.README = readme
	metrics.PackageBytes.Observe(float64(buf.Len()))
	return version, buf.Bytes(), nil
}

func addMember(tw *tar.Writer, name string, data []byte, mtime time.Time) error {
	hdr := &tar.Header{
		Name:     name,
		Size:     int64(len(data)),
		Mode:     tarMode,
		Typeflag: tar.TypeReg,
		Uid:      0,
		Gid:      0,
		Uname:    "0",
		Gname:    "0",
		ModTime:  mtime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write tar header for %s", name), err)
	}
	if _, err := tw.Write(data); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write tar member %s", name), err)
	}
	return nil
}

// Unpacked is the result of reading a package archive: the PackageVersion
// record, the raw resource.json bytes (still undecided between Plugin and
// Recipe — the caller picks based on Kind). A README.md member, if
// present, is carried in Version.README.
type Unpacked struct {
	Version       manifest.PackageVersion
	ResourceBytes []byte
}

// Unpack reads archive, verifying resource.json against expectedDigest
// when verify is true and expectedDigest is non-empty. The returned
// Version.Digest always reflects the archive's actual content digest.
func Unpack(archive []byte, expectedDigest string, verify bool) (Unpacked, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return Unpacked{}, qerrors.Wrap(qerrors.CodeCorruptArchive, "open gzip stream", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var resourceBytes, versionBytes []byte
	var readme string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Unpacked{}, qerrors.Wrap(qerrors.CodeCorruptArchive, "read tar member", err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return Unpacked{}, qerrors.Wrap(qerrors.CodeCorruptArchive, fmt.Sprintf("read tar member %s", hdr.Name), err)
		}

		switch hdr.Name {
		case "resource.json":
			resourceBytes = data
		case "version.json":
			versionBytes = data
		case "README.md":
			readme = string(data)
		}
	}

	if resourceBytes == nil {
		return Unpacked{}, qerrors.New(qerrors.CodeCorruptArchive, "archive did not contain a resource.json member")
	}

	digest := manifest.DigestBytes(resourceBytes)
	if verify && expectedDigest != "" && digest != expectedDigest {
		return Unpacked{}, qerrors.NewDigestMismatch(expectedDigest, digest)
	}

	var version manifest.PackageVersion
	if versionBytes != nil {
		if err := json.Unmarshal(versionBytes, &version); err != nil {
			return Unpacked{}, qerrors.Wrap(qerrors.CodeParse, "parse version.json", err)
		}
	}
	version.Digest = digest
	version.README = readme

	return Unpacked{Version: version, ResourceBytes: resourceBytes}, nil
}
