package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

const manifestFile = "package.json"

// maxManifestSize bounds how much of a manifest entry is read from an
// archive, guarding against hostile tarballs.
const maxManifestSize = 4 << 20

// extractManifest scans a gzipped tarball for the manifest file and returns
// its bytes. Registry tarballs nest entries under "package/", VCS archives
// under "repo-sha/", so the root and one directory level deep are accepted;
// the shallowest match wins.
func extractManifest(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	var (
		best      []byte
		bestDepth = -1
	)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if path.Base(name) != manifestFile {
			continue
		}
		depth := strings.Count(name, "/")
		if depth > 1 || (bestDepth != -1 && depth >= bestDepth) {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxManifestSize))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		best, bestDepth = data, depth
		if depth == 0 {
			break
		}
	}

	if best == nil {
		return nil, ErrNoManifest
	}
	return best, nil
}
