package core

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// AssetPrefix is the root-relative prefix of every stored asset path.
const AssetPrefix = "/images/"

type (
	// AssetStore keeps the binary files referenced by pictures.
	AssetStore interface {
		// Store writes content under a new unique name and returns its
		// root-relative path. Nothing is left behind when the write fails.
		Store(ctx context.Context, originalName string, content io.Reader) (string, error)

		// Exists reports whether an asset is present at assetPath.
		Exists(ctx context.Context, assetPath string) bool

		// Delete removes an asset. Deleting a missing asset is not an error.
		Delete(ctx context.Context, assetPath string) error

		// Open returns the asset content, or ErrNotFound.
		Open(ctx context.Context, assetPath string) (io.ReadCloser, error)
	}

	// Upload is a file submitted alongside a picture form.
	Upload struct {
		Filename string
		Size     int64
		Content  io.Reader
	}
)

// Empty reports whether no file was submitted.
func (u *Upload) Empty() bool {
	return u == nil || u.Content == nil || u.Size <= 0
}

// NewAssetName returns a collision resistant file name that keeps a sanitized
// form of the original name for readability.
func NewAssetName(originalName string) string {
	return ulid.Make().String() + "_" + SanitizeFilename(originalName)
}

// SanitizeFilename strips directories and replaces anything outside
// letters, digits, '.', '-' and '_' with '_'.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "upload"
	}
	if len(cleaned) > 100 {
		ext := path.Ext(cleaned)
		if len(ext) > 10 {
			ext = ""
		}
		cleaned = cleaned[:100-len(ext)] + ext
	}
	return cleaned
}

// AssetKey returns the store-relative file name of an asset path, or false when
// the path does not point directly below AssetPrefix.
func AssetKey(assetPath string) (string, bool) {
	if !strings.HasPrefix(assetPath, AssetPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(assetPath, AssetPrefix)
	if key == "" || key != path.Base(key) || key == "." || key == ".." || strings.Contains(key, "\\") {
		return "", false
	}
	return key, true
}
