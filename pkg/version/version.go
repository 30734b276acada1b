// Package version implements the version and range model used during
// resolution.
//
// Versions are strict semantic versions backed by Masterminds/semver.
// Ranges are a closed set of variants: semver constraints (exact versions,
// comparators, conjunctions, caret/tilde shorthands, wildcards), dist-tag
// references, and direct source references (VCS repository or raw URL).
// Constraint ranges can be matched against versions directly; tag and source
// ranges must be resolved by the engine before a concrete version exists.
package version

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Sentinel errors for version and range handling.
var (
	// ErrInvalidVersion is returned when a string is not a valid semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrInvalidRange is returned when a string is not a valid version range.
	ErrInvalidRange = errors.New("invalid version range")

	// ErrNoMatch is returned when no candidate version satisfies a range.
	ErrNoMatch = errors.New("no matching version")
)

// Version is a parsed semantic version. Ordering follows the semver spec:
// major, minor, patch numerically, prerelease identifiers pairwise, build
// metadata ignored.
type Version = semver.Version

// Parse parses a strict semantic version string.
func Parse(s string) (*Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return v, nil
}

// MustParse parses a version string and panics on failure. For tests and
// compile-time constants only.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// BestMatch selects the candidate whose version is the maximum among those
// satisfying r. Candidate keys are version strings; keys that do not parse
// as strict semver are skipped. Returns ErrNoMatch if nothing satisfies r.
func BestMatch[T any](r Range, candidates map[string]T) (T, *Version, error) {
	var (
		best    *Version
		bestKey string
	)
	for key := range candidates {
		v, err := Parse(key)
		if err != nil {
			continue
		}
		if !r.Matches(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestKey = v, key
		}
	}
	if best == nil {
		var zero T
		return zero, nil, fmt.Errorf("%w for range %s", ErrNoMatch, r)
	}
	return candidates[bestKey], best, nil
}
