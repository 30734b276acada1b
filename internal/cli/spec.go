package cli

import (
	"fmt"
	"strings"
)

// parseSpec splits a request argument of the form "name[@range]" into its
// parts. Scoped names keep their leading "@"; only a separator after the
// first character splits name from range. A missing range means any
// version.
func parseSpec(arg string) (name, rng string, err error) {
	if arg == "" {
		return "", "", fmt.Errorf("empty package spec")
	}
	idx := strings.Index(arg[1:], "@")
	if idx < 0 {
		return arg, "", nil
	}
	name, rng = arg[:idx+1], arg[idx+2:]
	if name == "" || rng == "" {
		return "", "", fmt.Errorf("invalid package spec %q", arg)
	}
	return name, rng, nil
}

// parseExtension splits an extension argument of the form "name=dir".
func parseExtension(arg string) (name, dir string, err error) {
	name, dir, ok := strings.Cut(arg, "=")
	if !ok || name == "" || dir == "" {
		return "", "", fmt.Errorf("invalid extension %q, want name=dir", arg)
	}
	return name, dir, nil
}
