// Package resolve implements the resolution engine: it turns top-level
// requests (name plus range, or an already-loaded manifest) into fully
// pinned entries in the package store, recursing through dependencies with
// memoization, cycle detection, and blacklist handling.
package resolve

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pingraph/pingraph/pkg/cache"
	"github.com/pingraph/pingraph/pkg/fetch"
	"github.com/pingraph/pingraph/pkg/manifest"
	"github.com/pingraph/pingraph/pkg/registry"
	"github.com/pingraph/pingraph/pkg/store"
	"github.com/pingraph/pingraph/pkg/vcs"
)

// RegistryFetcher supplies per-name package metadata and pins chosen
// versions through the shared download pipeline.
type RegistryFetcher interface {
	PackageInfo(ctx context.Context, name string) (*manifest.Info, error)
	Tarball(ctx context.Context, m *manifest.Manifest) (*manifest.Manifest, error)
}

// RepoFetcher resolves an owner/repository/ref triple to a manifest.
type RepoFetcher interface {
	Resolve(ctx context.Context, owner, repo, ref string) (*manifest.Manifest, error)
}

// URLFetcher fetches a manifest from a raw archive URL.
type URLFetcher interface {
	FetchURL(ctx context.Context, url string) (*manifest.Manifest, error)
}

// Fetchers bundles the three source variants the engine dispatches to.
type Fetchers struct {
	Registry RegistryFetcher
	Repo     RepoFetcher
	URL      URLFetcher
}

// key identifies one graph node.
type key struct {
	name    string
	version string
}

// Session is the mutable state of one resolution run. It is created once,
// threaded through every call, and drained at the end. Not safe for
// concurrent use: one resolution call runs to completion before the next
// starts.
type Session struct {
	ID       string
	cfg      Config
	logger   *log.Logger
	fetchers Fetchers

	store     *store.Store
	infos     map[string]*manifest.Info // per-run PackageInfo cache
	resolving map[key]bool              // cycle detection
	stack     []key                     // diagnostics only
	preloaded map[key]bool              // entries subject to the cache-depth cutoff
	blacklist map[string]bool
}

// NewSession creates a session with the given configuration and fetchers.
func NewSession(cfg Config, logger *log.Logger, fetchers Fetchers) *Session {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = log.Default()
	}
	blacklist := make(map[string]bool, len(cfg.Blacklist))
	for _, name := range cfg.Blacklist {
		blacklist[name] = true
	}
	return &Session{
		ID:        uuid.NewString(),
		cfg:       cfg,
		logger:    logger,
		fetchers:  fetchers,
		store:     store.New(),
		infos:     make(map[string]*manifest.Info),
		resolving: make(map[key]bool),
		preloaded: make(map[key]bool),
		blacklist: blacklist,
	}
}

// Store exposes the package store for the emitter to drain once the run is
// complete.
func (s *Session) Store() *store.Store { return s.store }

// urlFetcherFunc adapts a function to URLFetcher.
type urlFetcherFunc func(ctx context.Context, url string) (*manifest.Manifest, error)

func (f urlFetcherFunc) FetchURL(ctx context.Context, url string) (*manifest.Manifest, error) {
	return f(ctx, url)
}

// DefaultFetchers wires the production fetcher stack from cfg: a metadata
// cache backend, the shared HTTP clients, the registry fetcher with ordered
// fallback, and the GitHub fetcher with optional bearer auth. The returned
// close func releases the cache backend.
func DefaultFetchers(ctx context.Context, cfg Config, backend cache.Cache, logger *log.Logger) (Fetchers, func() error, error) {
	cfg = cfg.WithDefaults()
	if backend == nil {
		var err error
		backend, err = cache.NewFileCache("")
		if err != nil {
			return Fetchers{}, nil, err
		}
	}

	registryClient := fetch.NewClient(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithCache(cache.NewScoped(backend, "registry:"), cfg.CacheTTL),
		fetch.WithRefresh(cfg.Refresh),
	)

	vcsOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithCache(cache.NewScoped(backend, "vcs:"), cfg.CacheTTL),
		fetch.WithRefresh(cfg.Refresh),
	}
	if cfg.AuthToken != "" {
		token := cfg.AuthToken
		vcsOpts = append(vcsOpts, fetch.WithAuthFunc(func(string) (string, string) {
			return "Authorization", "Bearer " + token
		}))
	}
	vcsClient := fetch.NewClient(vcsOpts...)

	fetchers := Fetchers{
		Registry: registry.New(registryClient, cfg.Registries, logger),
		Repo:     vcs.New(vcsClient),
		URL: urlFetcherFunc(func(ctx context.Context, url string) (*manifest.Manifest, error) {
			return fetch.FetchManifest(ctx, registryClient, url)
		}),
	}
	return fetchers, backend.Close, nil
}

func (s *Session) stackTrace() string {
	parts := make([]string, len(s.stack))
	for i, k := range s.stack {
		parts[i] = k.name + "@" + k.version
	}
	return strings.Join(parts, " -> ")
}
