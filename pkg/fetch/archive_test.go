package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pingraph/pingraph/pkg/cache"
)

// tarball builds a gzipped tar archive from name → content pairs.
func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractManifest(t *testing.T) {
	want := `{"name": "left-pad", "version": "1.2.0"}`

	t.Run("registry layout", func(t *testing.T) {
		archive := tarball(t, map[string]string{
			"package/package.json": want,
			"package/index.js":     "module.exports = {}",
		})
		got, err := extractManifest(archive)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %s", got)
		}
	})

	t.Run("root layout", func(t *testing.T) {
		archive := tarball(t, map[string]string{"package.json": want})
		got, err := extractManifest(archive)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %s", got)
		}
	})

	t.Run("root wins over nested", func(t *testing.T) {
		archive := tarball(t, map[string]string{
			"vendored/package.json": `{"name": "wrong"}`,
			"package.json":          want,
		})
		got, err := extractManifest(archive)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("got %s", got)
		}
	})

	t.Run("too deep is ignored", func(t *testing.T) {
		archive := tarball(t, map[string]string{
			"a/b/package.json": `{"name": "hidden"}`,
		})
		if _, err := extractManifest(archive); !errors.Is(err, ErrNoManifest) {
			t.Errorf("expected ErrNoManifest, got %v", err)
		}
	})

	t.Run("no manifest", func(t *testing.T) {
		archive := tarball(t, map[string]string{"README.md": "hi"})
		if _, err := extractManifest(archive); !errors.Is(err, ErrNoManifest) {
			t.Errorf("expected ErrNoManifest, got %v", err)
		}
	})

	t.Run("not an archive", func(t *testing.T) {
		if _, err := extractManifest([]byte("plain text")); err == nil {
			t.Error("expected error for non-gzip input")
		}
	})
}

func TestFetchManifest(t *testing.T) {
	archive := tarball(t, map[string]string{
		"package/package.json": `{"name": "left-pad", "version": "1.2.0", "dependencies": {"wcwidth": "^1.0.0"}}`,
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	c := NewClient(WithHTTPClient(server.Client()))
	m, err := FetchManifest(context.Background(), c, server.URL+"/left-pad-1.2.0.tgz")
	if err != nil {
		t.Fatalf("FetchManifest: %v", err)
	}

	if m.Name != "left-pad" || m.Version != "1.2.0" {
		t.Errorf("manifest %+v", m)
	}
	if m.Dist == nil {
		t.Fatal("expected distribution info to be injected")
	}
	if m.Dist.Tarball != server.URL+"/left-pad-1.2.0.tgz" {
		t.Errorf("tarball = %s", m.Dist.Tarball)
	}
	if want := cache.Hash(archive); m.Dist.Shasum != want {
		t.Errorf("shasum = %s, want %s", m.Dist.Shasum, want)
	}
	if m.Dist.Integrity != "sha256:"+cache.Hash(archive) {
		t.Errorf("integrity = %s", m.Dist.Integrity)
	}
}

func TestFetchManifest_BadVersion(t *testing.T) {
	archive := tarball(t, map[string]string{
		"package/package.json": `{"name": "broken", "version": "not-semver"}`,
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	c := NewClient(WithHTTPClient(server.Client()))
	_, err := FetchManifest(context.Background(), c, server.URL)
	if err == nil {
		t.Fatal("expected error for unresolvable version")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("expected UpstreamError, got %T", err)
	}
}

func TestFetchManifest_NoManifest(t *testing.T) {
	archive := tarball(t, map[string]string{"README.md": "nothing here"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	c := NewClient(WithHTTPClient(server.Client()))
	if _, err := FetchManifest(context.Background(), c, server.URL); !errors.Is(err, ErrNoManifest) {
		t.Errorf("expected ErrNoManifest, got %v", err)
	}
}
