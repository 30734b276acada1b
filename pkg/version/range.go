package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Range is a predicate over semantic versions. The three variants are
// Constraint (matchable directly), Tag (resolved through a package's
// dist-tag table), and Source (resolved by fetching the referenced source).
type Range interface {
	fmt.Stringer

	// Matches reports whether v satisfies the range. Tag and Source ranges
	// never match directly; they require resolution first.
	Matches(v *Version) bool

	isRange()
}

// Constraint is a semver constraint range: exact versions, comparators,
// space-separated conjunctions, caret and tilde shorthands, and wildcards.
type Constraint struct {
	c   *semver.Constraints
	raw string
}

func (r *Constraint) isRange()                {}
func (r *Constraint) String() string          { return r.raw }
func (r *Constraint) Matches(v *Version) bool { return r.c.Check(v) }

// Tag is a dist-tag reference such as "latest" or "beta". It is resolved by
// indirection through the package's tag table.
type Tag struct {
	Name string
}

func (r *Tag) isRange()                {}
func (r *Tag) String() string          { return r.Name }
func (r *Tag) Matches(_ *Version) bool { return false }

// SourceKind discriminates direct source references.
type SourceKind int

const (
	// SourceRepo references a VCS repository by owner/repo and optional ref.
	SourceRepo SourceKind = iota
	// SourceURL references a raw archive URL.
	SourceURL
)

// Source is a direct source reference. It bypasses registry lookup entirely;
// the engine dispatches it to the matching fetcher.
type Source struct {
	Kind  SourceKind
	Owner string
	Repo  string
	Ref   string // branch, tag, or commit; empty means default branch
	URL   string // set for SourceURL
}

func (r *Source) isRange()                {}
func (r *Source) Matches(_ *Version) bool { return false }

func (r *Source) String() string {
	if r.Kind == SourceURL {
		return r.URL
	}
	if r.Ref != "" {
		return fmt.Sprintf("github:%s/%s#%s", r.Owner, r.Repo, r.Ref)
	}
	return fmt.Sprintf("github:%s/%s", r.Owner, r.Repo)
}

// AnyVersion is the wildcard range.
var AnyVersion = mustConstraint("*")

// tagName matches dist-tag identifiers: no spaces, no comparator characters.
var tagName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

var gitPrefixReplacer = strings.NewReplacer(
	"git+https://github.com/", "github:",
	"git://github.com/", "github:",
	"git@github.com:", "github:",
)

// ParseRange parses a range string into one of the Range variants.
//
// Recognized forms, tried in order:
//   - "github:owner/repo" or "github:owner/repo#ref" (and the git URL
//     spellings normalized to it)
//   - "http://…" or "https://…" raw archive URLs
//   - semver constraint syntax ("1.2.3", ">=1.0.0 <2.0.0", "^1.2.3",
//     "~1.2.3", "*", "1.x")
//   - a bare dist-tag name ("latest", "beta")
//
// Anything else fails with ErrInvalidRange. An empty string is the wildcard.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnyVersion, nil
	}

	if spec, ok := strings.CutPrefix(gitPrefixReplacer.Replace(s), "github:"); ok {
		return parseRepoSource(spec)
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return &Source{Kind: SourceURL, URL: s}, nil
	}

	if c, err := semver.NewConstraint(s); err == nil {
		return &Constraint{c: c, raw: s}, nil
	}
	if tagName.MatchString(s) {
		return &Tag{Name: s}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

// Exact returns the range matching exactly v.
func Exact(v *Version) Range {
	return mustConstraint("=" + v.String())
}

func parseRepoSource(spec string) (Range, error) {
	spec = strings.TrimSuffix(spec, ".git")
	path, ref, _ := strings.Cut(spec, "#")
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: malformed repository reference %q", ErrInvalidRange, spec)
	}
	return &Source{Kind: SourceRepo, Owner: owner, Repo: repo, Ref: ref}, nil
}

func mustConstraint(s string) *Constraint {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return &Constraint{c: c, raw: s}
}
