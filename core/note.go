package core

import (
	"context"
	"time"
)

type (
	// Note is a titled text post.
	Note struct {
		ID         int64     `json:"id"`
		Title      string    `json:"title"`
		Content    string    `json:"content"`
		UploadedAt time.Time `json:"uploadedAt"`
		Owner      Owner     `json:"owner"`
	}

	NoteForm struct {
		Title   string `json:"title" validate:"required,max=200"`
		Content string `json:"content" validate:"required,max=2000"`
	}

	// NoteStore persists notes. Deleting a note removes its comments.
	NoteStore interface {
		ListNotes(ctx context.Context) ([]*Note, error)
		GetNote(ctx context.Context, id int64) (*Note, error)
		CreateNote(ctx context.Context, note *Note) error
		UpdateNote(ctx context.Context, note *Note) error
		DeleteNote(ctx context.Context, id int64) error
	}
)

func (f NoteForm) Apply(n *Note) {
	n.Title = f.Title
	n.Content = f.Content
}
