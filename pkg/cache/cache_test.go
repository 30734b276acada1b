package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set(ctx, "registry:left-pad", []byte("payload"), 0); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, "registry:left-pad")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("got %q", data)
	}

	if err := c.Delete(ctx, "registry:left-pad"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "registry:left-pad"); ok {
		t.Error("expected miss after delete")
	}
	if err := c.Delete(ctx, "registry:left-pad"); err != nil {
		t.Errorf("double delete should be nil, got %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("expected empty cache after Clear")
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	base, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := NewScoped(base, "registry:")
	b := NewScoped(base, "vcs:")

	_ = a.Set(ctx, "key", []byte("from-a"), 0)
	if _, ok, _ := b.Get(ctx, "key"); ok {
		t.Error("scopes must not collide")
	}
	data, ok, _ := a.Get(ctx, "key")
	if !ok || string(data) != "from-a" {
		t.Errorf("scoped get: ok=%v data=%q", ok, data)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache must always miss")
	}
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("bytes"))
	b := Hash([]byte("bytes"))
	if a != b {
		t.Error("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if Hash([]byte("other")) == a {
		t.Error("different inputs should not collide")
	}
}
