package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ParentKind tells which kind of entity a comment is attached to.
type ParentKind int

const (
	ParentPicture ParentKind = iota + 1
	ParentNote
)

func (k ParentKind) String() string {
	switch k {
	case ParentPicture:
		return "picture"
	case ParentNote:
		return "note"
	default:
		return "unknown"
	}
}

// ParentRef references the picture or the note a comment belongs to.
// The zero value references nothing and is never persisted.
type ParentRef struct {
	kind ParentKind
	id   int64
}

func PictureParent(id int64) ParentRef {
	return ParentRef{kind: ParentPicture, id: id}
}

func NoteParent(id int64) ParentRef {
	return ParentRef{kind: ParentNote, id: id}
}

func (p ParentRef) Kind() ParentKind { return p.kind }
func (p ParentRef) ID() int64        { return p.id }
func (p ParentRef) Valid() bool      { return p.kind == ParentPicture || p.kind == ParentNote }

// PictureID returns the referenced picture id, if the parent is a picture.
func (p ParentRef) PictureID() (int64, bool) {
	return p.id, p.kind == ParentPicture
}

// NoteID returns the referenced note id, if the parent is a note.
func (p ParentRef) NoteID() (int64, bool) {
	return p.id, p.kind == ParentNote
}

// ResourceKind is the redirect family of comments under this parent.
func (p ParentRef) ResourceKind() ResourceKind {
	if p.kind == ParentNote {
		return KindNote
	}
	return KindPicture
}

func (p ParentRef) String() string {
	return fmt.Sprintf("%s:%d", p.kind, p.id)
}

// ParentFromColumns rebuilds a reference from the two nullable foreign keys
// used by the SQL schema. Exactly one of them must be set.
func ParentFromColumns(pictureID, noteID *int64) (ParentRef, error) {
	switch {
	case pictureID != nil && noteID == nil:
		return PictureParent(*pictureID), nil
	case noteID != nil && pictureID == nil:
		return NoteParent(*noteID), nil
	default:
		return ParentRef{}, fmt.Errorf("comment must reference exactly one of picture or note")
	}
}

type (
	// Comment is a short text attached to a picture or a note.
	Comment struct {
		ID          int64
		Parent      ParentRef
		Description string
		CommentedAt time.Time
		Owner       Owner
	}

	CommentForm struct {
		Description string `json:"description" validate:"required,max=500"`
	}

	// CommentStore persists comments.
	CommentStore interface {
		ListAllComments(ctx context.Context) ([]*Comment, error)
		ListComments(ctx context.Context, parent ParentRef) ([]*Comment, error)
		GetComment(ctx context.Context, id int64) (*Comment, error)
		CreateComment(ctx context.Context, comment *Comment) error
		UpdateComment(ctx context.Context, comment *Comment) error
		DeleteComment(ctx context.Context, id int64) error
	}
)

type commentJSON struct {
	ID          int64     `json:"id"`
	PictureID   *int64    `json:"pictureId"`
	NoteID      *int64    `json:"noteId"`
	Description string    `json:"description"`
	CommentedAt time.Time `json:"commentedAt"`
	Owner       Owner     `json:"owner"`
}

func (c Comment) MarshalJSON() ([]byte, error) {
	out := commentJSON{
		ID:          c.ID,
		Description: c.Description,
		CommentedAt: c.CommentedAt,
		Owner:       c.Owner,
	}
	if id, ok := c.Parent.PictureID(); ok {
		out.PictureID = &id
	}
	if id, ok := c.Parent.NoteID(); ok {
		out.NoteID = &id
	}
	return json.Marshal(out)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var in commentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parent, err := ParentFromColumns(in.PictureID, in.NoteID)
	if err != nil {
		return err
	}
	*c = Comment{
		ID:          in.ID,
		Parent:      parent,
		Description: in.Description,
		CommentedAt: in.CommentedAt,
		Owner:       in.Owner,
	}
	return nil
}

func (f CommentForm) Apply(c *Comment) {
	c.Description = f.Description
}
