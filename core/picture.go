package core

import (
	"context"
	"time"
)

type (
	// Picture is an uploaded image with a title and an optional description.
	Picture struct {
		ID          int64     `json:"id"`
		AssetPath   string    `json:"assetPath,omitempty"` // Root-relative path into the asset store, empty when no file was uploaded.
		Title       string    `json:"title"`
		Description string    `json:"description"`
		UploadedAt  time.Time `json:"uploadedAt"`
		Owner       Owner     `json:"owner"`
	}

	// PictureForm is the editable part of a picture as submitted by a user.
	PictureForm struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=500"`
	}

	// PictureStore persists pictures. Deleting a picture removes its comments.
	PictureStore interface {
		ListPictures(ctx context.Context) ([]*Picture, error)
		GetPicture(ctx context.Context, id int64) (*Picture, error)
		CreatePicture(ctx context.Context, picture *Picture) error
		UpdatePicture(ctx context.Context, picture *Picture) error
		DeletePicture(ctx context.Context, id int64) error
	}
)

// Apply copies the form fields onto the picture.
func (f PictureForm) Apply(p *Picture) {
	p.Title = f.Title
	p.Description = f.Description
}
