package resolve

import "errors"

var (
	// ErrNoSuchTag is returned when a dist-tag range names a tag absent
	// from the package's tag table.
	ErrNoSuchTag = errors.New("no such dist-tag")

	// ErrDanglingTag is returned when a dist-tag maps to a version missing
	// from the package's versions table.
	ErrDanglingTag = errors.New("dist-tag points to invalid version")

	// ErrBlacklisted is returned when a top-level request names a
	// blacklisted package. Blacklisted dependencies are skipped with a
	// warning instead.
	ErrBlacklisted = errors.New("package is blacklisted")

	// ErrInvalidName is returned for package names that cannot safely be
	// interpolated into registry URLs or artifact file names.
	ErrInvalidName = errors.New("invalid package name")
)
