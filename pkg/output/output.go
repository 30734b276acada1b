// Package output emits the drained package store as JSON artifacts. One
// file per resolved package plus a run report, in a layout that a later
// run can preload from.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingraph/pingraph/pkg/resolve"
	"github.com/pingraph/pingraph/pkg/store"
)

// ReportFile is the name of the run report inside an output directory.
const ReportFile = "report.json"

// entryJSON renders a store entry as its artifact payload. Preloaded
// entries are reproduced byte for byte so repeated runs converge.
func entryJSON(e store.Entry) (json.RawMessage, error) {
	switch e := e.(type) {
	case store.Resolved:
		return json.MarshalIndent(e.Package, "", "  ")
	case store.FromOutput:
		return e.Raw, nil
	case store.FromExtension:
		return e.Raw, nil
	default:
		return nil, fmt.Errorf("unknown store entry %T", e)
	}
}

// artifactName builds a filesystem-safe file name for a package version.
// Scoped names contain a slash, which is escaped the same way registries
// escape it in URLs.
func artifactName(name, version string) string {
	return strings.ReplaceAll(name, "/", "%2F") + "@" + version + ".json"
}

// Emit writes every store entry into dir as an individual artifact, plus
// the run report. The directory is created if needed; existing artifacts
// for the same package versions are overwritten.
func Emit(st *store.Store, report *resolve.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var emitErr error
	st.Each(func(name, version string, e store.Entry) {
		if emitErr != nil {
			return
		}
		data, err := entryJSON(e)
		if err != nil {
			emitErr = err
			return
		}
		path := filepath.Join(dir, artifactName(name, version))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			emitErr = fmt.Errorf("write %s: %w", path, err)
		}
	})
	if emitErr != nil {
		return emitErr
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ReportFile), data, 0o644)
}

// document is the single-stream form of a run's output.
type document struct {
	Report   *resolve.Report                       `json:"report"`
	Packages map[string]map[string]json.RawMessage `json:"packages"`
}

// WriteJSON encodes the whole store and report as one JSON document on w.
// Map keys are emitted sorted, so the output is deterministic for a given
// store.
func WriteJSON(w io.Writer, st *store.Store, report *resolve.Report) error {
	doc := document{
		Report:   report,
		Packages: make(map[string]map[string]json.RawMessage),
	}

	var convErr error
	st.Each(func(name, version string, e store.Entry) {
		if convErr != nil {
			return
		}
		data, err := entryJSON(e)
		if err != nil {
			convErr = err
			return
		}
		versions, ok := doc.Packages[name]
		if !ok {
			versions = make(map[string]json.RawMessage)
			doc.Packages[name] = versions
		}
		versions[version] = data
	})
	if convErr != nil {
		return convErr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
