package stores

import (
	"context"
	"nest-server/core"
	"nest-server/stores/aws"
	"nest-server/stores/filesystem"
	"nest-server/stores/memory"
	"nest-server/stores/sqlstore"
	"os"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all record store types.
type Store interface {
	core.PictureStore
	core.NoteStore
	core.CommentStore
}

// GetStore selects the record store from STORAGE_TYPE.
func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var store Store

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "nest.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		s, err := sqlstore.NewStore(sqlstore.DriverSQLite, dataSourceName)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open sqlite store")
		}
		store = s
	case "postgres":
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			logrus.Fatal("DATABASE_URL environment variable must be set for postgres storage type")
		}
		s, err := sqlstore.NewStore(sqlstore.DriverPostgres, databaseURL)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open postgres store")
		}
		store = s
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}

// GetAssetStore selects the asset store from ASSET_STORAGE_TYPE.
func GetAssetStore(ctx context.Context) core.AssetStore {
	storageType := os.Getenv("ASSET_STORAGE_TYPE")
	var store core.AssetStore

	storageField := logrus.Fields{
		"assetStorageType": storageType,
	}

	switch storageType {
	case "s3":
		bucketName := os.Getenv("ASSET_S3_BUCKET")
		if bucketName == "" {
			logrus.Fatal("ASSET_S3_BUCKET environment variable must be set for s3 asset storage")
		}
		storageField["bucketName"] = bucketName
		s, err := aws.NewStore(ctx, bucketName)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to create s3 asset store")
		}
		store = s
	default:
		basePath := os.Getenv("ASSET_STORAGE_PATH")
		if basePath == "" {
			basePath = "./wwwroot" // Default path
		}
		storageField["assetStorageType"] = "filesystem"
		storageField["basePath"] = basePath
		s, err := filesystem.NewStore(basePath)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to create filesystem asset store")
		}
		store = s
	}
	logrus.WithFields(storageField).Info("Use asset storage")
	return store
}
