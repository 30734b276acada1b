// Package vcs implements the VCS source fetcher. It resolves an
// owner/repository/ref triple against the GitHub API — default branch when
// no ref is given, branch head commit otherwise — and feeds the derived
// archive URL through the shared post-fetch pipeline.
package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/pingraph/pingraph/pkg/fetch"
	"github.com/pingraph/pingraph/pkg/manifest"
)

const (
	// DefaultAPIBase is the GitHub REST API endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultArchiveBase serves repository tarballs keyed by commit.
	DefaultArchiveBase = "https://codeload.github.com"
)

// Fetcher resolves repository references to pinned source archives.
type Fetcher struct {
	client      *fetch.Client
	apiBase     string
	archiveBase string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithAPIBase overrides the API endpoint. Mainly for tests.
func WithAPIBase(base string) Option {
	return func(f *Fetcher) { f.apiBase = base }
}

// WithArchiveBase overrides the archive host. Mainly for tests.
func WithArchiveBase(base string) Option {
	return func(f *Fetcher) { f.archiveBase = base }
}

// New creates a GitHub fetcher using the given HTTP client. Authentication
// is the client's concern: configure it with an auth func that adds the
// bearer token.
func New(client *fetch.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		apiBase:     DefaultAPIBase,
		archiveBase: DefaultArchiveBase,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

type branchResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Resolve pins owner/repo at ref to a commit and fetches that commit's
// manifest. An empty ref selects the repository's default branch. A ref
// that is not a known branch is used verbatim, which covers tags and
// commit hashes.
func (f *Fetcher) Resolve(ctx context.Context, owner, repo, ref string) (*manifest.Manifest, error) {
	source := fmt.Sprintf("%s/%s", owner, repo)

	if ref == "" {
		var r repoResponse
		url := fmt.Sprintf("%s/repos/%s/%s", f.apiBase, owner, repo)
		if err := f.client.GetJSON(ctx, url, &r); err != nil {
			return nil, &fetch.UpstreamError{Source: source, Err: err}
		}
		if r.DefaultBranch == "" {
			return nil, &fetch.UpstreamError{Source: source, Err: errors.New("repository has no default branch")}
		}
		ref = r.DefaultBranch
	}

	commit, err := f.headCommit(ctx, owner, repo, ref)
	if err != nil {
		return nil, &fetch.UpstreamError{Source: source, Err: err}
	}

	archive := fmt.Sprintf("%s/%s/%s/tar.gz/%s", f.archiveBase, owner, repo, commit)
	return fetch.FetchManifest(ctx, f.client, archive)
}

// headCommit resolves a branch name to its head commit. Refs that are not
// branches (tags, commit hashes) pass through unchanged.
func (f *Fetcher) headCommit(ctx context.Context, owner, repo, ref string) (string, error) {
	var b branchResponse
	url := fmt.Sprintf("%s/repos/%s/%s/branches/%s", f.apiBase, owner, repo, ref)
	err := f.client.GetJSON(ctx, url, &b)
	if errors.Is(err, fetch.ErrNotFound) {
		return ref, nil
	}
	if err != nil {
		return "", err
	}
	if b.Commit.SHA == "" {
		return ref, nil
	}
	return b.Commit.SHA, nil
}
