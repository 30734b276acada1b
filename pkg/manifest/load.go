package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrParse is returned when a manifest file cannot be read or decoded.
var ErrParse = errors.New("manifest parse error")

// ParseError wraps the underlying failure of loading a manifest file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return ErrParse }

// Load reads a package.json style manifest from disk. The result has no
// distribution info; it represents a local, manifest-only package.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Decode(data, path)
}

// Decode parses manifest bytes. origin is used only for error reporting.
func Decode(data []byte, origin string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: origin, Err: err}
	}
	if m.Name == "" {
		return nil, &ParseError{Path: origin, Err: errors.New("missing package name")}
	}
	return &m, nil
}
