package services

import (
	"context"
	"nest-server/core"

	"github.com/sirupsen/logrus"
)

const resourcePicture = "picture"

type (
	// Pictures runs the picture use cases.
	Pictures struct {
		pictures core.PictureStore
		comments core.CommentStore
		assets   core.AssetStore
		settings
	}

	// PictureDetails is a picture together with its comments.
	PictureDetails struct {
		Picture  *core.Picture   `json:"picture"`
		Comments []*core.Comment `json:"comments"`
	}
)

func NewPictures(pictures core.PictureStore, comments core.CommentStore, assets core.AssetStore, opts ...Option) *Pictures {
	return &Pictures{
		pictures: pictures,
		comments: comments,
		assets:   assets,
		settings: newSettings(opts),
	}
}

func pictureOwner(p *core.Picture) core.Owner { return p.Owner }

// Grid lists every picture. A failed query yields an empty grid.
func (s *Pictures) Grid(ctx context.Context) []*core.Picture {
	pictures, err := s.pictures.ListPictures(ctx)
	return listOrEmpty(resourcePicture, pictures, err)
}

// MyPage lists the pictures owned by caller.
func (s *Pictures) MyPage(ctx context.Context, caller core.Owner) ([]*core.Picture, error) {
	if err := requireCaller(logrus.WithField("view", "Picture.MyPage"), caller); err != nil {
		return nil, err
	}
	return filterOwned(s.Grid(ctx), caller, pictureOwner), nil
}

func (s *Pictures) Details(ctx context.Context, id int64) (*PictureDetails, error) {
	picture, err := s.pictures.GetPicture(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListComments(ctx, core.PictureParent(id))
	return &PictureDetails{Picture: picture, Comments: listOrEmpty(resourceComment, comments, err)}, nil
}

// EditView returns the picture for its edit form, if caller owns it.
func (s *Pictures) EditView(ctx context.Context, id int64, caller core.Owner) (*core.Picture, error) {
	log := logrus.WithFields(logrus.Fields{"picture_id": id, "user": caller})
	return loadOwned(ctx, log, id, caller, s.pictures.GetPicture, pictureOwner)
}

// DeleteView returns the picture for its delete confirmation, if caller owns it.
func (s *Pictures) DeleteView(ctx context.Context, id int64, caller core.Owner) (*core.Picture, error) {
	return s.EditView(ctx, id, caller)
}

// Create stores the upload, if any, and then the picture record. When the
// record cannot be persisted the stored asset is left behind.
func (s *Pictures) Create(ctx context.Context, caller core.Owner, form core.PictureForm, upload *core.Upload, source core.Source) (picture *core.Picture, dest core.Destination, err error) {
	defer func() { recordMutation(resourcePicture, "create", err) }()
	log := logrus.WithFields(logrus.Fields{"user": caller, "title": form.Title})

	if err := requireCaller(log, caller); err != nil {
		return nil, "", err
	}
	if err := validateForm(log, form); err != nil {
		return nil, "", err
	}

	picture = &core.Picture{Owner: caller, UploadedAt: s.now()}
	form.Apply(picture)

	if !upload.Empty() {
		assetPath, err := storeAsset(ctx, log, s.assets, upload)
		if err != nil {
			return nil, "", err
		}
		picture.AssetPath = assetPath
	}

	if err := s.pictures.CreatePicture(ctx, picture); err != nil {
		return nil, "", persistFailure(log, "create picture", err)
	}

	log.WithFields(logrus.Fields{"picture_id": picture.ID, "asset_path": picture.AssetPath}).Info("Picture created successfully")
	s.publish(ctx, resourcePicture, core.ActionCreated, picture.ID, picture.Owner)
	return picture, core.Redirect(core.KindPicture, source), nil
}

// Edit applies the form and, when a file is submitted, replaces the asset.
// The new asset is written before the record is updated and the old one is
// deleted only after the update succeeds.
func (s *Pictures) Edit(ctx context.Context, id int64, caller core.Owner, form core.PictureForm, upload *core.Upload, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourcePicture, "edit", err) }()
	log := logrus.WithFields(logrus.Fields{"picture_id": id, "user": caller})

	picture, err := loadOwned(ctx, log, id, caller, s.pictures.GetPicture, pictureOwner)
	if err != nil {
		return "", err
	}
	if err := validateForm(log, form); err != nil {
		return "", err
	}

	oldPath := picture.AssetPath
	if !upload.Empty() {
		newPath, err := storeAsset(ctx, log, s.assets, upload)
		if err != nil {
			return "", err
		}
		picture.AssetPath = newPath
	}
	form.Apply(picture)

	if err := s.pictures.UpdatePicture(ctx, picture); err != nil {
		return "", persistFailure(log, "update picture", err)
	}
	if picture.AssetPath != oldPath {
		deleteAsset(ctx, log, s.assets, oldPath)
	}

	log.WithField("asset_path", picture.AssetPath).Info("Picture updated successfully")
	s.publish(ctx, resourcePicture, core.ActionUpdated, picture.ID, picture.Owner)
	return core.Redirect(core.KindPicture, source), nil
}

// Delete removes the asset, best effort, and then the record with its comments.
func (s *Pictures) Delete(ctx context.Context, id int64, caller core.Owner, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourcePicture, "delete", err) }()
	log := logrus.WithFields(logrus.Fields{"picture_id": id, "user": caller})

	picture, err := loadOwned(ctx, log, id, caller, s.pictures.GetPicture, pictureOwner)
	if err != nil {
		return "", err
	}

	deleteAsset(ctx, log, s.assets, picture.AssetPath)
	if err := s.pictures.DeletePicture(ctx, id); err != nil {
		return "", persistFailure(log, "delete picture", err)
	}

	log.Info("Picture deleted successfully")
	s.publish(ctx, resourcePicture, core.ActionDeleted, id, picture.Owner)
	return core.Redirect(core.KindPicture, source), nil
}
