// Package services orchestrates the picture, note and comment use cases:
// load, authorize, validate, apply, persist and redirect.
package services

import (
	"context"
	"errors"
	"fmt"
	"nest-server/core"
	"time"

	"github.com/sirupsen/logrus"
)

type (
	// Option configures a service.
	Option func(*settings)

	settings struct {
		now      func() time.Time
		notifier core.Notifier
	}

	nopNotifier struct{}
)

func (nopNotifier) Notify(context.Context, core.Event) {}

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithNotifier publishes an event after every successful mutation.
func WithNotifier(n core.Notifier) Option {
	return func(s *settings) {
		if n != nil {
			s.notifier = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) publish(ctx context.Context, resource, action string, id int64, owner core.Owner) {
	s.notifier.Notify(ctx, core.Event{Resource: resource, Action: action, ID: id, Owner: owner})
}

// loadOwned fetches an entity and checks that caller owns it. Not found and
// forbidden are returned as is; any other load failure is wrapped.
func loadOwned[T any](ctx context.Context, log *logrus.Entry, id int64, caller core.Owner,
	load func(context.Context, int64) (*T, error), ownerOf func(*T) core.Owner) (*T, error) {
	entity, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Warn("Entity not found")
			return nil, err
		}
		log.WithError(err).Error("Failed to load entity")
		return nil, fmt.Errorf("load %d: %w", id, err)
	}
	if err := core.Authorize(ownerOf(entity), caller); err != nil {
		log.WithField("owner", ownerOf(entity)).Warn("Caller does not own entity")
		return nil, err
	}
	return entity, nil
}

// requireCaller rejects unauthenticated callers of create operations.
func requireCaller(log *logrus.Entry, caller core.Owner) error {
	if caller.Anonymous() {
		log.Warn("Unauthenticated caller")
		return core.ErrForbidden
	}
	return nil
}

func validateForm(log *logrus.Entry, form any) error {
	if err := core.Validate(form); err != nil {
		log.WithError(err).Warn("Form rejected")
		return err
	}
	return nil
}

// persistFailure keeps ErrNotFound and wraps everything else as ErrPersistence.
func persistFailure(log *logrus.Entry, op string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		log.Warn("Entity disappeared before " + op)
		return err
	}
	log.WithError(err).Error("Failed to " + op)
	return core.PersistenceError(op, err)
}

// storeAsset writes an upload and confirms it landed in the asset store.
func storeAsset(ctx context.Context, log *logrus.Entry, assets core.AssetStore, upload *core.Upload) (string, error) {
	assetPath, err := assets.Store(ctx, upload.Filename, upload.Content)
	if err != nil {
		log.WithError(err).Error("Failed to store asset")
		if !errors.Is(err, core.ErrStorage) {
			err = core.StorageError("store asset", err)
		}
		return "", err
	}
	if !assets.Exists(ctx, assetPath) {
		log.WithField("asset_path", assetPath).Error("Stored asset is missing")
		return "", core.StorageError("store asset", fmt.Errorf("%s missing after write", assetPath))
	}
	return assetPath, nil
}

// deleteAsset is cleanup. Failures are logged and otherwise ignored.
func deleteAsset(ctx context.Context, log *logrus.Entry, assets core.AssetStore, assetPath string) {
	if assetPath == "" {
		return
	}
	if err := assets.Delete(ctx, assetPath); err != nil {
		log.WithError(err).WithField("asset_path", assetPath).Warn("Failed to delete asset")
	}
}

// listOrEmpty turns a failed list into an empty result that is still logged and counted.
func listOrEmpty[T any](resource string, items []*T, err error) []*T {
	if err != nil {
		logrus.WithError(err).WithField("resource", resource).Error("Failed to list")
		listFailuresTotal.WithLabelValues(resource).Inc()
		return []*T{}
	}
	if items == nil {
		return []*T{}
	}
	return items
}

func filterOwned[T any](items []*T, owner core.Owner, ownerOf func(*T) core.Owner) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if ownerOf(item) == owner {
			out = append(out, item)
		}
	}
	return out
}
