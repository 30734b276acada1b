// Package store holds resolved packages keyed by name and exact version.
// Entries are tagged with their provenance: resolved fresh during this run,
// preloaded from a prior output, or preloaded from a named extension
// library. The emitter drains the store at the end of a run and treats all
// three uniformly.
package store

import (
	"encoding/json"

	"github.com/pingraph/pingraph/pkg/manifest"
)

// ResolvedPackage is one fully pinned node of the dependency graph. Edges
// are (name, exact version) keys into the store rather than pointers, so
// dependency cycles in the logical graph never create reference cycles.
type ResolvedPackage struct {
	Name            string             `json:"name"`
	Version         string             `json:"version"`
	Dist            *manifest.DistInfo `json:"dist,omitempty"`
	Description     string             `json:"description,omitempty"`
	Homepage        string             `json:"homepage,omitempty"`
	Keywords        []string           `json:"keywords,omitempty"`
	Dependencies    map[string]string  `json:"dependencies"`
	DevDependencies map[string]string  `json:"devDependencies,omitempty"`
}

// Entry is a store entry: one of Resolved, FromOutput, or FromExtension.
type Entry interface {
	entry()
}

// Resolved marks a package resolved during this run.
type Resolved struct {
	Package *ResolvedPackage
}

// FromOutput marks a package preloaded from a prior output directory. The
// prior artifact is carried opaquely for the emitter to reproduce.
type FromOutput struct {
	Raw json.RawMessage
}

// FromExtension marks a package preloaded from a named extension library.
type FromExtension struct {
	Extension string
	Raw       json.RawMessage
}

func (Resolved) entry()      {}
func (FromOutput) entry()    {}
func (FromExtension) entry() {}

// Store maps name → exact version → entry. It is owned by exactly one
// resolution run and is not safe for concurrent mutation.
type Store struct {
	packages map[string]map[string]Entry
}

// New returns an empty store.
func New() *Store {
	return &Store{packages: make(map[string]map[string]Entry)}
}

// Insert stores an entry, overwriting any previous entry for the same
// (name, version).
func (s *Store) Insert(name, version string, e Entry) {
	versions, ok := s.packages[name]
	if !ok {
		versions = make(map[string]Entry)
		s.packages[name] = versions
	}
	versions[version] = e
}

// Lookup returns the entry for (name, version) if present.
func (s *Store) Lookup(name, version string) (Entry, bool) {
	e, ok := s.packages[name][version]
	return e, ok
}

// Member reports whether (name, version) is stored.
func (s *Store) Member(name, version string) bool {
	_, ok := s.packages[name][version]
	return ok
}

// Delete removes (name, version) if present, dropping the name entirely
// once its last version is gone.
func (s *Store) Delete(name, version string) {
	versions, ok := s.packages[name]
	if !ok {
		return
	}
	delete(versions, version)
	if len(versions) == 0 {
		delete(s.packages, name)
	}
}

// Versions returns a copy of the version → entry map for name. The copy is
// safe to iterate while the store is mutated.
func (s *Store) Versions(name string) map[string]Entry {
	versions, ok := s.packages[name]
	if !ok {
		return nil
	}
	out := make(map[string]Entry, len(versions))
	for v, e := range versions {
		out[v] = e
	}
	return out
}

// MapValues applies f to every entry in place, preserving structure. Used
// once at startup to convert preloaded artifacts into their uniform
// representation before resolution begins.
func (s *Store) MapValues(f func(name, version string, e Entry) Entry) {
	for name, versions := range s.packages {
		for version, e := range versions {
			versions[version] = f(name, version, e)
		}
	}
}

// Each visits every entry. Mutating the store during iteration is not
// supported.
func (s *Store) Each(fn func(name, version string, e Entry)) {
	for name, versions := range s.packages {
		for version, e := range versions {
			fn(name, version, e)
		}
	}
}

// Len counts stored (name, version) pairs.
func (s *Store) Len() int {
	n := 0
	for _, versions := range s.packages {
		n += len(versions)
	}
	return n
}
