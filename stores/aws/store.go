package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"nest-server/core"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// s3API is the subset of the S3 client used by the asset store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	s3Client s3API
	bucket   string
}

// NewStore creates an S3 asset store using the default AWS config chain.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName), nil
}

func newStore(client s3API, bucketName string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucketName}
}

// objectKey maps "/images/<name>" to the object key "images/<name>".
func objectKey(assetPath string) (string, error) {
	if _, ok := core.AssetKey(assetPath); !ok {
		return "", fmt.Errorf("invalid asset path %q", assetPath)
	}
	return strings.TrimPrefix(assetPath, "/"), nil
}

func (s *s3Store) Store(ctx context.Context, originalName string, content io.Reader) (string, error) {
	assetPath := core.AssetPrefix + core.NewAssetName(originalName)
	key, _ := objectKey(assetPath)
	log := logrus.WithFields(logrus.Fields{"asset_path": assetPath, "bucket": s.bucket})

	// The SDK needs a seekable body to sign the payload.
	data, err := io.ReadAll(content)
	if err != nil {
		log.WithError(err).Error("Failed to read upload")
		return "", core.StorageError("read upload", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		log.WithError(err).Error("Failed to upload asset")
		return "", core.StorageError("upload asset", err)
	}

	log.WithField("size", len(data)).Info("Asset stored successfully")
	return assetPath, nil
}

func (s *s3Store) Exists(ctx context.Context, assetPath string) bool {
	key, err := objectKey(assetPath)
	if err != nil {
		return false
	}
	_, err = s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *s3Store) Delete(ctx context.Context, assetPath string) error {
	key, err := objectKey(assetPath)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %v", assetPath, err)
	}
	logrus.WithField("asset_path", assetPath).Info("Asset deleted successfully")
	return nil
}

func (s *s3Store) Open(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	key, err := objectKey(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, core.ErrNotFound)
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("asset %s: %w", assetPath, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset %s: %v", assetPath, err)
	}
	return resp.Body, nil
}
