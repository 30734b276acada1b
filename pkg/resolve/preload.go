package resolve

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingraph/pingraph/pkg/store"
)

// artifactHeader is the minimal shape a preloadable artifact must have.
type artifactHeader struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PreloadOutput seeds the store from a prior run's output directory. Every
// readable package artifact becomes a FromOutput entry subject to the
// cache-depth cutoff; files that are not package artifacts are skipped.
// Returns the number of entries loaded.
func (s *Session) PreloadOutput(dir string) (int, error) {
	loaded, err := s.scanArtifacts(dir)
	if err != nil {
		return 0, err
	}
	return s.merge(loaded), nil
}

// PreloadExtension seeds the store from a named extension library
// directory. Entries are tagged with the extension name so the emitter can
// report their provenance.
func (s *Session) PreloadExtension(name, dir string) (int, error) {
	loaded, err := s.scanArtifacts(dir)
	if err != nil {
		return 0, err
	}
	loaded.MapValues(func(_, _ string, e store.Entry) store.Entry {
		return store.FromExtension{Extension: name, Raw: e.(store.FromOutput).Raw}
	})
	return s.merge(loaded), nil
}

// scanArtifacts reads every *.json file directly under dir into a scratch
// store as FromOutput entries. Invalid or non-package files are logged and
// skipped rather than failing the preload.
func (s *Session) scanArtifacts(dir string) (*store.Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("preload %s: %w", dir, err)
	}

	loaded := store.New()
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			if _, ok := err.(*fs.PathError); ok {
				s.logger.Debug("skipping unreadable artifact", "path", path, "err", err)
				continue
			}
			return nil, err
		}
		var hdr artifactHeader
		if err := json.Unmarshal(raw, &hdr); err != nil || hdr.Name == "" || hdr.Version == "" {
			s.logger.Debug("skipping non-package artifact", "path", path)
			continue
		}
		loaded.Insert(hdr.Name, hdr.Version, store.FromOutput{Raw: json.RawMessage(raw)})
	}
	return loaded, nil
}

// merge copies every entry of loaded into the session store and marks it
// preloaded. Later fresh resolutions overwrite these entries in place.
func (s *Session) merge(loaded *store.Store) int {
	n := 0
	loaded.Each(func(name, version string, e store.Entry) {
		s.store.Insert(name, version, e)
		s.preloaded[key{name, version}] = true
		n++
	})
	s.logger.Debug("preloaded packages", "count", n)
	return n
}
