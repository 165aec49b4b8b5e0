package services

import (
	"context"
	"nest-server/core"

	"github.com/sirupsen/logrus"
)

const resourceNote = "note"

type (
	// Notes runs the note use cases.
	Notes struct {
		notes    core.NoteStore
		comments core.CommentStore
		settings
	}

	NoteDetails struct {
		Note     *core.Note      `json:"note"`
		Comments []*core.Comment `json:"comments"`
	}
)

func NewNotes(notes core.NoteStore, comments core.CommentStore, opts ...Option) *Notes {
	return &Notes{notes: notes, comments: comments, settings: newSettings(opts)}
}

func noteOwner(n *core.Note) core.Owner { return n.Owner }

// Feed lists every note. A failed query yields an empty feed.
func (s *Notes) Feed(ctx context.Context) []*core.Note {
	notes, err := s.notes.ListNotes(ctx)
	return listOrEmpty(resourceNote, notes, err)
}

func (s *Notes) MyPage(ctx context.Context, caller core.Owner) ([]*core.Note, error) {
	if err := requireCaller(logrus.WithField("view", "Note.MyPage"), caller); err != nil {
		return nil, err
	}
	return filterOwned(s.Feed(ctx), caller, noteOwner), nil
}

func (s *Notes) Details(ctx context.Context, id int64) (*NoteDetails, error) {
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListComments(ctx, core.NoteParent(id))
	return &NoteDetails{Note: note, Comments: listOrEmpty(resourceComment, comments, err)}, nil
}

func (s *Notes) EditView(ctx context.Context, id int64, caller core.Owner) (*core.Note, error) {
	log := logrus.WithFields(logrus.Fields{"note_id": id, "user": caller})
	return loadOwned(ctx, log, id, caller, s.notes.GetNote, noteOwner)
}

func (s *Notes) DeleteView(ctx context.Context, id int64, caller core.Owner) (*core.Note, error) {
	return s.EditView(ctx, id, caller)
}

func (s *Notes) Create(ctx context.Context, caller core.Owner, form core.NoteForm, source core.Source) (note *core.Note, dest core.Destination, err error) {
	defer func() { recordMutation(resourceNote, "create", err) }()
	log := logrus.WithFields(logrus.Fields{"user": caller, "title": form.Title})

	if err := requireCaller(log, caller); err != nil {
		return nil, "", err
	}
	if err := validateForm(log, form); err != nil {
		return nil, "", err
	}

	note = &core.Note{Owner: caller, UploadedAt: s.now()}
	form.Apply(note)
	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, "", persistFailure(log, "create note", err)
	}

	log.WithField("note_id", note.ID).Info("Note created successfully")
	s.publish(ctx, resourceNote, core.ActionCreated, note.ID, note.Owner)
	return note, core.Redirect(core.KindNote, source), nil
}

// Edit applies the form and moves the note's timestamp to now.
func (s *Notes) Edit(ctx context.Context, id int64, caller core.Owner, form core.NoteForm, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourceNote, "edit", err) }()
	log := logrus.WithFields(logrus.Fields{"note_id": id, "user": caller})

	note, err := loadOwned(ctx, log, id, caller, s.notes.GetNote, noteOwner)
	if err != nil {
		return "", err
	}
	if err := validateForm(log, form); err != nil {
		return "", err
	}

	form.Apply(note)
	note.UploadedAt = s.now()
	if err := s.notes.UpdateNote(ctx, note); err != nil {
		return "", persistFailure(log, "update note", err)
	}

	log.Info("Note updated successfully")
	s.publish(ctx, resourceNote, core.ActionUpdated, note.ID, note.Owner)
	return core.Redirect(core.KindNote, source), nil
}

func (s *Notes) Delete(ctx context.Context, id int64, caller core.Owner, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourceNote, "delete", err) }()
	log := logrus.WithFields(logrus.Fields{"note_id": id, "user": caller})

	note, err := loadOwned(ctx, log, id, caller, s.notes.GetNote, noteOwner)
	if err != nil {
		return "", err
	}
	if err := s.notes.DeleteNote(ctx, id); err != nil {
		return "", persistFailure(log, "delete note", err)
	}

	log.Info("Note deleted successfully")
	s.publish(ctx, resourceNote, core.ActionDeleted, id, note.Owner)
	return core.Redirect(core.KindNote, source), nil
}
