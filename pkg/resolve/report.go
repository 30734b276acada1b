package resolve

import (
	"context"

	"github.com/pingraph/pingraph/pkg/manifest"
)

// Request is one top-level resolution ask: either a name with a range
// string, or an already-loaded local manifest.
type Request struct {
	Name     string
	Range    string
	Manifest *manifest.Manifest
}

// Outcome records how a single request fared. Err is nil on success.
type Outcome struct {
	Name    string `json:"name"`
	Range   string `json:"range,omitempty"`
	Version string `json:"version,omitempty"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes a Run. The store holds the resolved packages
// themselves; the report only carries per-request outcomes.
type Report struct {
	RunID    string    `json:"run_id"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed counts the outcomes that ended in an error.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Run resolves every request in order. A failed top-level request is
// recorded in the report and does not stop the remaining ones; failures
// inside a dependency tree abort only that tree.
func (s *Session) Run(ctx context.Context, requests []Request) *Report {
	report := &Report{RunID: s.ID}
	for _, req := range requests {
		out := Outcome{Name: req.Name, Range: req.Range}

		var err error
		if req.Manifest != nil {
			out.Name = req.Manifest.Name
			v, verr := s.ResolveManifest(ctx, req.Manifest)
			if verr == nil {
				out.Version = v.String()
			}
			err = verr
		} else {
			v, verr := s.Resolve(ctx, req.Name, req.Range)
			if verr == nil {
				out.Version = v.String()
			}
			err = verr
		}

		if err != nil {
			out.Err = err
			out.Error = err.Error()
			s.logger.Warn("request failed", "package", out.Name, "range", out.Range, "err", err)
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report
}
