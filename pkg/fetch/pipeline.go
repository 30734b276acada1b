package fetch

import (
	"context"

	"github.com/pingraph/pingraph/pkg/cache"
	"github.com/pingraph/pingraph/pkg/manifest"
	"github.com/pingraph/pingraph/pkg/version"
)

// FetchManifest is the shared post-fetch step for every source variant:
// download the archive at url, hash its bytes, extract and parse the
// manifest file, validate its version, and inject the computed distribution
// info. A missing manifest or unparsable version is fatal for the source.
func FetchManifest(ctx context.Context, c *Client, url string) (*manifest.Manifest, error) {
	archive, err := c.GetBytes(ctx, url)
	if err != nil {
		return nil, &UpstreamError{Source: url, Err: err}
	}

	digest := cache.Hash(archive)

	raw, err := extractManifest(archive)
	if err != nil {
		return nil, &UpstreamError{Source: url, Err: err}
	}
	m, err := manifest.Decode(raw, url)
	if err != nil {
		return nil, &UpstreamError{Source: url, Err: err}
	}
	if _, err := version.Parse(m.Version); err != nil {
		return nil, &UpstreamError{Source: url, Err: err}
	}

	m.Dist = &manifest.DistInfo{
		Tarball:   url,
		Shasum:    digest,
		Integrity: "sha256:" + digest,
	}
	return m, nil
}
