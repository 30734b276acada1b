package cli

import "testing"

func TestParseSpec(t *testing.T) {
	tests := []struct {
		arg      string
		wantName string
		wantRng  string
		wantErr  bool
	}{
		{arg: "left-pad", wantName: "left-pad", wantRng: ""},
		{arg: "left-pad@^1.0.0", wantName: "left-pad", wantRng: "^1.0.0"},
		{arg: "left-pad@latest", wantName: "left-pad", wantRng: "latest"},
		{arg: "@scope/pkg", wantName: "@scope/pkg", wantRng: ""},
		{arg: "@scope/pkg@~2.1.0", wantName: "@scope/pkg", wantRng: "~2.1.0"},
		{arg: "widgets@github:acme/widgets#main", wantName: "widgets", wantRng: "github:acme/widgets#main"},
		{arg: "tarpkg@https://example.test/tarpkg.tgz", wantName: "tarpkg", wantRng: "https://example.test/tarpkg.tgz"},
		{arg: "", wantErr: true},
		{arg: "name@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, rng, err := parseSpec(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSpec(%q) expected error", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSpec(%q): %v", tt.arg, err)
			}
			if name != tt.wantName || rng != tt.wantRng {
				t.Errorf("parseSpec(%q) = (%q, %q), want (%q, %q)", tt.arg, name, rng, tt.wantName, tt.wantRng)
			}
		})
	}
}

func TestParseExtension(t *testing.T) {
	name, dir, err := parseExtension("stdkit=./libs/stdkit")
	if err != nil {
		t.Fatalf("parseExtension: %v", err)
	}
	if name != "stdkit" || dir != "./libs/stdkit" {
		t.Errorf("parseExtension = (%q, %q)", name, dir)
	}

	for _, bad := range []string{"", "stdkit", "=dir", "name="} {
		if _, _, err := parseExtension(bad); err == nil {
			t.Errorf("parseExtension(%q) expected error", bad)
		}
	}
}
