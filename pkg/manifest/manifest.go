// Package manifest defines the package manifest model shared by fetchers
// and the resolution engine: one version's declared metadata and dependency
// ranges, plus the per-package accumulation of all known versions and
// dist-tags.
package manifest

import (
	"errors"
	"maps"
)

// ErrMissingDist is returned when a package that should carry distribution
// info has none.
var ErrMissingDist = errors.New("missing distribution info")

// DistInfo records where a package's archive was fetched from and its
// content-addressed hash. Absent on manifests that came from a local or
// manifest-only source.
type DistInfo struct {
	Tarball   string `json:"tarball"`
	Shasum    string `json:"shasum,omitempty"`
	Integrity string `json:"integrity,omitempty"`
}

// Manifest is the declared metadata for one version of a package.
// Dependency ranges are kept as raw strings; the engine parses them when it
// recurses so that a malformed range only fails the requests that need it.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Dist            *DistInfo         `json:"dist,omitempty"`
	Description     string            `json:"description,omitempty"`
	Homepage        string            `json:"homepage,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
}

// Info accumulates everything a registry knows about one package name:
// all versions and the dist-tag table. Built up incrementally as fetchers
// are queried.
type Info struct {
	Name     string               `json:"name"`
	Versions map[string]*Manifest `json:"versions"`
	DistTags map[string]string    `json:"dist-tags"`
}

// NewInfo returns an empty Info for the given package name.
func NewInfo(name string) *Info {
	return &Info{
		Name:     name,
		Versions: make(map[string]*Manifest),
		DistTags: make(map[string]string),
	}
}

// Merge unions other into i. Entries from other win on key collision, so
// later-queried sources take precedence for overlapping versions and tags.
func (i *Info) Merge(other *Info) {
	if other == nil {
		return
	}
	if i.Versions == nil {
		i.Versions = make(map[string]*Manifest)
	}
	if i.DistTags == nil {
		i.DistTags = make(map[string]string)
	}
	maps.Copy(i.Versions, other.Versions)
	maps.Copy(i.DistTags, other.DistTags)
}

// Add records a single manifest under its version string.
func (i *Info) Add(m *Manifest) {
	if i.Versions == nil {
		i.Versions = make(map[string]*Manifest)
	}
	i.Versions[m.Version] = m
}
