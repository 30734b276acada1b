// Package registry implements the registry source fetcher: it queries an
// ordered list of registry base URLs for a package's full version and
// dist-tag metadata, falling through to the next registry on any failure.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pingraph/pingraph/pkg/fetch"
	"github.com/pingraph/pingraph/pkg/manifest"
)

// DefaultURL is the public npm registry, used when no registries are
// configured.
const DefaultURL = "https://registry.npmjs.org"

// ErrNoPackage is returned when every configured registry failed to produce
// metadata for a name.
var ErrNoPackage = errors.New("no matching package")

// Fetcher queries registries for package metadata.
type Fetcher struct {
	client     *fetch.Client
	registries []string
	logger     *log.Logger
}

// New creates a Fetcher over the given ordered registry base URLs.
func New(client *fetch.Client, registries []string, logger *log.Logger) *Fetcher {
	if len(registries) == 0 {
		registries = []string{DefaultURL}
	}
	trimmed := make([]string, len(registries))
	for i, r := range registries {
		trimmed[i] = strings.TrimSuffix(r, "/")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{client: client, registries: trimmed, logger: logger}
}

// PackageInfo fetches all known versions and dist-tags for name. Registries
// are tried in configured order; the first success wins. A registry failure
// of any kind (network error, error status, malformed JSON) only disables
// that registry for this lookup. When every registry fails the result is
// ErrNoPackage carrying the last failure.
func (f *Fetcher) PackageInfo(ctx context.Context, name string) (*manifest.Info, error) {
	var lastErr error
	for _, base := range f.registries {
		var fetched manifest.Info
		endpoint := base + "/" + url.PathEscape(name)

		if err := f.client.GetJSON(ctx, endpoint, &fetched); err != nil {
			lastErr = &fetch.UpstreamError{Source: base, Err: err}
			f.logger.Debug("registry lookup failed, trying next", "registry", base, "package", name, "err", err)
			continue
		}
		if len(fetched.Versions) == 0 {
			lastErr = &fetch.UpstreamError{Source: base, Err: errors.New("empty versions table")}
			continue
		}
		// Accumulate through the union step so responses that omit
		// dist-tags still yield initialized maps.
		info := manifest.NewInfo(name)
		info.Merge(&fetched)
		return info, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoPackage, name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoPackage, name)
}

// Tarball resolves a pinned version's manifest through the shared post-fetch
// pipeline, downloading and hashing the version's distribution archive.
func (f *Fetcher) Tarball(ctx context.Context, m *manifest.Manifest) (*manifest.Manifest, error) {
	if m.Dist == nil || m.Dist.Tarball == "" {
		return nil, fmt.Errorf("%w: %s@%s", manifest.ErrMissingDist, m.Name, m.Version)
	}
	return fetch.FetchManifest(ctx, f.client, m.Dist.Tarball)
}
