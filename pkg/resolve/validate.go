package resolve

import (
	"fmt"
	"strings"
	"unicode"
)

const maxNameLength = 256

// validateName rejects package names that could be used for path traversal
// or URL injection. Names flow into registry request paths and artifact
// file names, so the rules are intentionally conservative. Ecosystem
// naming rules beyond safety are left to the registry.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %.32s... exceeds %d characters", ErrInvalidName, name, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidName, name)
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, pattern)
		}
	}
	return nil
}
