package core

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"sunset.jpg", "sunset.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo.png`, "photo.png"},
		{"my photo (1).jpeg", "my_photo__1_.jpeg"},
		{"..", "upload"},
		{"", "upload"},
		{".hidden", "hidden"},
		{"bilde-ærfugl.png", "bilde-_rfugl.png"},
	}

	for _, tc := range testCases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilename_Long(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 300) + ".png")
	if len(got) != 100 {
		t.Errorf("len = %d, want 100", len(got))
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("extension lost: %q", got)
	}
}

func TestNewAssetName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := NewAssetName("a.png")
		if seen[name] {
			t.Fatalf("duplicate asset name %q", name)
		}
		seen[name] = true
		if !strings.HasSuffix(name, "_a.png") {
			t.Errorf("NewAssetName() = %q, want suffix _a.png", name)
		}
	}
}

func TestAssetKey(t *testing.T) {
	if key, ok := AssetKey("/images/01H_a.png"); !ok || key != "01H_a.png" {
		t.Errorf("AssetKey() = %q, %v", key, ok)
	}

	for _, bad := range []string{"", "/images/", "/images/../x", "/images/a/b", "/other/a.png", "images/a.png", `/images/..\x`} {
		if _, ok := AssetKey(bad); ok {
			t.Errorf("AssetKey(%q) should be rejected", bad)
		}
	}
}
