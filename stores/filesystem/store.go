package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"nest-server/core"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// fsStore keeps assets as files below basePath/images.
type fsStore struct {
	basePath string
	dir      string
}

// NewStore creates a filesystem asset store rooted at basePath.
func NewStore(basePath string) (*fsStore, error) {
	dir := filepath.Join(basePath, filepath.FromSlash(strings.Trim(core.AssetPrefix, "/")))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &fsStore{basePath: basePath, dir: dir}, nil
}

// resolve turns an asset path into a file path that is guaranteed to stay
// inside the asset directory.
func (s *fsStore) resolve(assetPath string) (string, error) {
	key, ok := core.AssetKey(assetPath)
	if !ok {
		return "", fmt.Errorf("invalid asset path %q", assetPath)
	}

	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.dir, key))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid asset path %q: access denied", assetPath)
	}
	return absFile, nil
}

func (s *fsStore) Store(ctx context.Context, originalName string, content io.Reader) (string, error) {
	name := core.NewAssetName(originalName)
	assetPath := core.AssetPrefix + name
	filePath := filepath.Join(s.dir, name)
	log := logrus.WithFields(logrus.Fields{"asset_path": assetPath, "file_path": filePath})

	// The directory may have been removed since NewStore.
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		log.WithError(err).Error("Failed to create asset directory")
		return "", core.StorageError("create asset directory", err)
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		log.WithError(err).Error("Failed to create asset file")
		return "", core.StorageError("create asset", err)
	}

	n, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		log.WithError(err).Error("Failed to write asset file")
		return "", core.StorageError("write asset", err)
	}

	log.WithField("size", n).Info("Asset stored successfully")
	return assetPath, nil
}

func (s *fsStore) Exists(ctx context.Context, assetPath string) bool {
	filePath, err := s.resolve(assetPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	return err == nil && info.Mode().IsRegular()
}

func (s *fsStore) Delete(ctx context.Context, assetPath string) error {
	filePath, err := s.resolve(assetPath)
	if err != nil {
		return err
	}
	log := logrus.WithField("asset_path", assetPath)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Asset not found for deletion, considered successful.")
			return nil
		}
		log.WithError(err).Error("Failed to delete asset")
		return err
	}
	log.Info("Asset deleted successfully")
	return nil
}

func (s *fsStore) Open(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	filePath, err := s.resolve(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, core.ErrNotFound)
	}
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("asset %s: %w", assetPath, core.ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}
