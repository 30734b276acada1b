package resolve

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/pingraph/pingraph/pkg/manifest"
	"github.com/pingraph/pingraph/pkg/store"
	"github.com/pingraph/pingraph/pkg/version"
)

// Resolve pins name to the best version satisfying the given range string,
// resolving its transitive dependencies along the way. This is the
// top-level entry point for one requested name/range pair.
func (s *Session) Resolve(ctx context.Context, name, rangeStr string) (*version.Version, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if s.blacklist[name] {
		return nil, fmt.Errorf("%w: %s", ErrBlacklisted, name)
	}
	rng, err := version.ParseRange(rangeStr)
	if err != nil {
		return nil, err
	}
	v, _, err := s.resolve(ctx, name, rng, 0)
	return v, err
}

// ResolveManifest treats an already-loaded manifest as a top-level request.
// Any prior store entry for its exact version is deleted first, forcing a
// fresh resolution even when a preloaded one existed.
func (s *Session) ResolveManifest(ctx context.Context, m *manifest.Manifest) (*version.Version, error) {
	if v, err := version.Parse(m.Version); err == nil {
		k := key{m.Name, v.String()}
		s.store.Delete(k.name, k.version)
		delete(s.preloaded, k)
	}
	v, _, err := s.resolveManifest(ctx, m, 0)
	return v, err
}

// resolve is the recursive core. The returned bool reports that the node is
// currently being resolved higher up the stack (a cycle): the caller must
// omit its edge to it.
func (s *Session) resolve(ctx context.Context, name string, rng version.Range, depth int) (*version.Version, bool, error) {
	if v := s.cached(name, rng, depth); v != nil {
		return v, false, nil
	}

	var (
		chosen *manifest.Manifest
		err    error
	)
	switch r := rng.(type) {
	case *version.Source:
		chosen, err = s.fetchSource(ctx, r)
	case *version.Tag:
		var done *version.Version
		done, chosen, err = s.fetchTag(ctx, name, r, depth)
		if done != nil {
			return done, false, nil
		}
	default:
		chosen, err = s.fetchBestMatch(ctx, name, rng)
	}
	if err != nil {
		return nil, false, err
	}

	return s.resolveManifest(ctx, chosen, depth)
}

// cached implements the cache path: if the store already holds versions of
// name satisfying rng, the maximum is returned without fetching. Preloaded
// entries are subject to the cache-depth cutoff; entries resolved during
// this run are always trusted.
func (s *Session) cached(name string, rng version.Range, depth int) *version.Version {
	var (
		best      *version.Version
		bestEntry store.Entry
	)
	for verStr, entry := range s.store.Versions(name) {
		v, err := version.Parse(verStr)
		if err != nil || !rng.Matches(v) {
			continue
		}
		if s.preloaded[key{name, verStr}] && !s.trustPreloaded(depth) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestEntry = v, entry
		}
	}
	if best == nil {
		return nil
	}
	s.logger.Debug("cache hit", "package", name, "version", best, "provenance", provenance(bestEntry))
	return best
}

func (s *Session) trustPreloaded(depth int) bool {
	return s.cfg.CacheDepth >= 0 && depth >= s.cfg.CacheDepth
}

// provenance names an entry's origin for diagnostics. It never affects
// control flow.
func provenance(e store.Entry) string {
	switch e := e.(type) {
	case store.Resolved:
		return "resolved this run"
	case store.FromOutput:
		return "prior output"
	case store.FromExtension:
		return "extension " + e.Extension
	default:
		return "unknown"
	}
}

func (s *Session) fetchSource(ctx context.Context, src *version.Source) (*manifest.Manifest, error) {
	if src.Kind == version.SourceURL {
		return s.fetchers.URL.FetchURL(ctx, src.URL)
	}
	return s.fetchers.Repo.Resolve(ctx, src.Owner, src.Repo, src.Ref)
}

// fetchTag resolves a dist-tag indirection. When the tagged version is
// already stored, and trusted at this depth if it came from a preload, the
// pinned version is returned directly (first return); otherwise the
// version's manifest is pinned through the download pipeline.
func (s *Session) fetchTag(ctx context.Context, name string, tag *version.Tag, depth int) (*version.Version, *manifest.Manifest, error) {
	info, err := s.packageInfo(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	verStr, ok := info.DistTags[tag.Name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no tag %q", ErrNoSuchTag, name, tag.Name)
	}
	m, ok := info.Versions[verStr]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s tag %q -> %s", ErrDanglingTag, name, tag.Name, verStr)
	}
	if v, err := version.Parse(verStr); err == nil && s.store.Member(name, v.String()) {
		if !s.preloaded[key{name, v.String()}] || s.trustPreloaded(depth) {
			return v, nil, nil
		}
	}
	pinned, err := s.fetchers.Registry.Tarball(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return nil, pinned, nil
}

func (s *Session) fetchBestMatch(ctx context.Context, name string, rng version.Range) (*manifest.Manifest, error) {
	info, err := s.packageInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	m, _, err := version.BestMatch(rng, info.Versions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s.fetchers.Registry.Tarball(ctx, m)
}

// packageInfo returns the full PackageInfo for name, memoized for the run.
func (s *Session) packageInfo(ctx context.Context, name string) (*manifest.Info, error) {
	if info, ok := s.infos[name]; ok {
		return info, nil
	}
	info, err := s.fetchers.Registry.PackageInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	s.infos[name] = info
	return info, nil
}

// resolveManifest resolves a chosen manifest's dependencies and commits the
// completed package to the store. If the manifest's node is already being
// resolved further up the stack this is a cycle: the node's version is
// returned with the cycled flag set and nothing is stored here.
func (s *Session) resolveManifest(ctx context.Context, m *manifest.Manifest, depth int) (*version.Version, bool, error) {
	v, err := version.Parse(m.Version)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", m.Name, err)
	}

	k := key{m.Name, v.String()}
	if s.resolving[k] {
		s.logger.Warn("dependency cycle detected, omitting closing edge",
			"package", k.name+"@"+k.version, "stack", s.stackTrace())
		return v, true, nil
	}

	s.resolving[k] = true
	s.stack = append(s.stack, k)
	defer func() {
		delete(s.resolving, k)
		s.stack = s.stack[:len(s.stack)-1]
	}()

	deps, err := s.resolveDeps(ctx, m.Dependencies, depth)
	if err != nil {
		return nil, false, err
	}
	var devDeps map[string]string
	if s.cfg.IncludeDev {
		devDeps, err = s.resolveDeps(ctx, m.DevDependencies, depth)
		if err != nil {
			return nil, false, err
		}
	}

	s.store.Insert(k.name, k.version, store.Resolved{Package: &store.ResolvedPackage{
		Name:            m.Name,
		Version:         k.version,
		Dist:            m.Dist,
		Description:     m.Description,
		Homepage:        m.Homepage,
		Keywords:        m.Keywords,
		Dependencies:    deps,
		DevDependencies: devDeps,
	}})
	delete(s.preloaded, k)

	s.logger.Debug("resolved", "package", k.name, "version", k.version, "deps", len(deps))
	return v, false, nil
}

// resolveDeps recursively resolves a dependency map. Blacklisted names are
// skipped with a warning and omitted from the result; a failure on any
// other dependency aborts the whole map.
func (s *Session) resolveDeps(ctx context.Context, ranges map[string]string, depth int) (map[string]string, error) {
	deps := make(map[string]string, len(ranges))
	for _, depName := range slices.Sorted(maps.Keys(ranges)) {
		if s.blacklist[depName] {
			s.logger.Warn("skipping blacklisted dependency", "package", depName, "stack", s.stackTrace())
			continue
		}
		if err := validateName(depName); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", depName, err)
		}
		rng, err := version.ParseRange(ranges[depName])
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", depName, err)
		}
		depVer, cycled, err := s.resolve(ctx, depName, rng, depth+1)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", depName, err)
		}
		if cycled {
			continue
		}
		deps[depName] = depVer.String()
	}
	return deps, nil
}
