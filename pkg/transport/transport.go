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

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/ociregistry"
)

const (
	// UserAgent is sent on every HTTP(S) request.
	UserAgent = "Queenbee"

	defaultTotalTimeout          = 30 * time.Second
	defaultConnectTimeout        = 10 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 15 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultKeepAlive             = 30 * time.Second
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 10
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient overrides the underlying *http.Client entirely; transport
// knobs set via other options are ignored once this is used.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithTotalTimeout bounds the whole HTTP round trip, including redirects
// and reading the response body.
func WithTotalTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.totalTimeout = d
		}
	}
}

// WithConnectTimeout bounds the TCP dial.
func WithConnectTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.connectTimeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification; intended
// for test fixtures and local development registries only.
func WithInsecureSkipVerify(skip bool) Option {
	return func(f *Fetcher) { f.insecureSkipVerify = skip }
}

// Fetcher is the C7 transport: a single Fetch entry point over "file:",
// "http(s)" and "oci:" URIs.
type Fetcher struct {
	client             *http.Client
	totalTimeout       time.Duration
	connectTimeout     time.Duration
	insecureSkipVerify bool
}

// New builds a Fetcher with sane defaults, applying any supplied Options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		totalTimeout:   defaultTotalTimeout,
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.totalTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				DialContext: (&net.Dialer{
					Timeout:   f.connectTimeout,
					KeepAlive: defaultKeepAlive,
				}).DialContext,
				TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
				ResponseHeaderTimeout: defaultResponseHeaderTimeout,
				IdleConnTimeout:       defaultIdleConnTimeout,
				ForceAttemptHTTP2:     true,
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: f.insecureSkipVerify,
				},
			},
		}
	}
	return f
}

// Fetch resolves uri (a "file:" URI, an "http(s)" URL, an "oci://"
// reference pulled through ociregistry.Pull, or a bare local path) and
// returns its raw bytes. authHeader is sent verbatim as the Authorization
// header on HTTP(S) requests and ignored for local and OCI reads.
func (f *Fetcher) Fetch(ctx context.Context, uri, authHeader string) ([]byte, error) {
	resolved := resolveURI(uri)

	switch {
	case strings.HasPrefix(resolved, "file://"):
		return fetchFile(resolved)
	case strings.HasPrefix(resolved, "http://"), strings.HasPrefix(resolved, "https://"):
		return f.fetchHTTP(ctx, resolved, authHeader)
	case strings.HasPrefix(resolved, "oci://"):
		_, archive, err := ociregistry.Pull(ctx, resolved)
		return archive, err
	default:
		return fetchFile("file://" + resolved)
	}
}

// resolveURI mirrors the source's scheme normalization: "file:", "oci:",
// and "http(s)" URIs pass through untouched, anything else is treated as
// a local path and turned into an absolute, slash-separated path, which
// Fetch's default case reads as a "file://" URI.
func resolveURI(raw string) string {
	if strings.HasPrefix(raw, "file://") || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "oci://") {
		return raw
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return raw
	}
	return filepath.ToSlash(abs)
}

func fetchFile(uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, qerrors.New(qerrors.CodePackageNotFound, fmt.Sprintf("not found: %s", path))
		}
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", path), err)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri, authHeader string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeInvalidArgument, fmt.Sprintf("build request for %s", uri), err)
	}
	req.Header.Set("User-Agent", UserAgent)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, qerrors.NewUnreachableRepo(uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, qerrors.New(qerrors.CodePackageNotFound, fmt.Sprintf("not found: %s", uri))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, qerrors.NewUnreachableRepo(uri, fmt.Errorf("status %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, qerrors.NewUnreachableRepo(uri, err)
	}
	return data, nil
}
