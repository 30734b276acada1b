package store

import (
	"encoding/json"
	"testing"
)

func TestStore_InsertLookupDelete(t *testing.T) {
	s := New()

	if s.Member("left-pad", "1.0.0") {
		t.Error("empty store should have no members")
	}

	s.Insert("left-pad", "1.0.0", Resolved{Package: &ResolvedPackage{Name: "left-pad", Version: "1.0.0"}})
	s.Insert("left-pad", "1.2.0", Resolved{Package: &ResolvedPackage{Name: "left-pad", Version: "1.2.0"}})

	if !s.Member("left-pad", "1.0.0") || !s.Member("left-pad", "1.2.0") {
		t.Fatal("inserted versions missing")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}

	e, ok := s.Lookup("left-pad", "1.2.0")
	if !ok {
		t.Fatal("Lookup failed")
	}
	if r, ok := e.(Resolved); !ok || r.Package.Version != "1.2.0" {
		t.Errorf("unexpected entry %#v", e)
	}

	s.Delete("left-pad", "1.0.0")
	if s.Member("left-pad", "1.0.0") {
		t.Error("deleted version still present")
	}
	s.Delete("left-pad", "1.2.0")
	if got := s.Versions("left-pad"); got != nil {
		t.Errorf("expected name to vanish with its last version, got %v", got)
	}
	s.Delete("left-pad", "1.2.0") // absent delete is a no-op
}

func TestStore_InsertOverwrites(t *testing.T) {
	s := New()
	s.Insert("a", "1.0.0", FromOutput{Raw: json.RawMessage(`{"old": true}`)})
	s.Insert("a", "1.0.0", Resolved{Package: &ResolvedPackage{Name: "a", Version: "1.0.0"}})

	e, _ := s.Lookup("a", "1.0.0")
	if _, ok := e.(Resolved); !ok {
		t.Errorf("later insert should overwrite, got %#v", e)
	}
	if s.Len() != 1 {
		t.Errorf("overwrite must not duplicate, Len = %d", s.Len())
	}
}

func TestStore_MapValues(t *testing.T) {
	s := New()
	s.Insert("a", "1.0.0", FromOutput{Raw: json.RawMessage(`{}`)})
	s.Insert("b", "2.0.0", FromExtension{Extension: "stdlib", Raw: json.RawMessage(`{}`)})
	s.Insert("c", "3.0.0", Resolved{Package: &ResolvedPackage{Name: "c", Version: "3.0.0"}})

	s.MapValues(func(name, version string, e Entry) Entry {
		if _, ok := e.(FromOutput); ok {
			return FromExtension{Extension: "converted", Raw: json.RawMessage(`{}`)}
		}
		return e
	})

	e, _ := s.Lookup("a", "1.0.0")
	if ext, ok := e.(FromExtension); !ok || ext.Extension != "converted" {
		t.Errorf("MapValues did not transform: %#v", e)
	}
	if e, _ := s.Lookup("c", "3.0.0"); e == nil {
		t.Error("untouched entries must survive MapValues")
	}
}

func TestStore_VersionsIsACopy(t *testing.T) {
	s := New()
	s.Insert("a", "1.0.0", Resolved{Package: &ResolvedPackage{Name: "a", Version: "1.0.0"}})

	versions := s.Versions("a")
	delete(versions, "1.0.0")
	if !s.Member("a", "1.0.0") {
		t.Error("mutating the returned map must not affect the store")
	}
}
