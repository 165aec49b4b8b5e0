package services

import (
	"context"
	"errors"
	"fmt"
	"nest-server/core"

	"github.com/sirupsen/logrus"
)

const resourceComment = "comment"

// Comments runs the comment use cases. The parent of a comment is chosen by
// the entry point and never changes afterwards.
type Comments struct {
	comments core.CommentStore
	pictures core.PictureStore
	notes    core.NoteStore
	settings
}

func NewComments(comments core.CommentStore, pictures core.PictureStore, notes core.NoteStore, opts ...Option) *Comments {
	return &Comments{comments: comments, pictures: pictures, notes: notes, settings: newSettings(opts)}
}

func commentOwner(c *core.Comment) core.Owner { return c.Owner }

func (s *Comments) List(ctx context.Context) []*core.Comment {
	comments, err := s.comments.ListAllComments(ctx)
	return listOrEmpty(resourceComment, comments, err)
}

// ListFor returns the comments of one picture or note.
func (s *Comments) ListFor(ctx context.Context, parent core.ParentRef) []*core.Comment {
	comments, err := s.comments.ListComments(ctx, parent)
	return listOrEmpty(resourceComment, comments, err)
}

func (s *Comments) CreateForPicture(ctx context.Context, caller core.Owner, pictureID int64, form core.CommentForm, source core.Source) (*core.Comment, core.Destination, error) {
	return s.create(ctx, caller, core.PictureParent(pictureID), form, source)
}

func (s *Comments) CreateForNote(ctx context.Context, caller core.Owner, noteID int64, form core.CommentForm, source core.Source) (*core.Comment, core.Destination, error) {
	return s.create(ctx, caller, core.NoteParent(noteID), form, source)
}

func (s *Comments) create(ctx context.Context, caller core.Owner, parent core.ParentRef, form core.CommentForm, source core.Source) (comment *core.Comment, dest core.Destination, err error) {
	defer func() { recordMutation(resourceComment, "create", err) }()
	log := logrus.WithFields(logrus.Fields{"parent": parent.String(), "user": caller})

	if err := requireCaller(log, caller); err != nil {
		return nil, "", err
	}
	if err := validateForm(log, form); err != nil {
		return nil, "", err
	}
	if err := s.parentExists(ctx, parent); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Warn("Comment parent not found")
		} else {
			log.WithError(err).Error("Failed to load comment parent")
		}
		return nil, "", err
	}

	comment = &core.Comment{Parent: parent, CommentedAt: s.now(), Owner: caller}
	form.Apply(comment)
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, "", persistFailure(log, "create comment", err)
	}

	log.WithField("comment_id", comment.ID).Info("Comment created successfully")
	s.publish(ctx, resourceComment, core.ActionCreated, comment.ID, comment.Owner)
	return comment, core.Redirect(parent.ResourceKind(), source), nil
}

func (s *Comments) parentExists(ctx context.Context, parent core.ParentRef) error {
	var err error
	switch parent.Kind() {
	case core.ParentPicture:
		_, err = s.pictures.GetPicture(ctx, parent.ID())
	case core.ParentNote:
		_, err = s.notes.GetNote(ctx, parent.ID())
	default:
		return fmt.Errorf("comment parent %s: %w", parent, core.ErrNotFound)
	}
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("load comment parent %s: %w", parent, err)
	}
	return err
}

func (s *Comments) EditView(ctx context.Context, id int64, caller core.Owner) (*core.Comment, error) {
	log := logrus.WithFields(logrus.Fields{"comment_id": id, "user": caller})
	return loadOwned(ctx, log, id, caller, s.comments.GetComment, commentOwner)
}

func (s *Comments) DeleteView(ctx context.Context, id int64, caller core.Owner) (*core.Comment, error) {
	return s.EditView(ctx, id, caller)
}

// Edit replaces the text of a comment and moves its timestamp to now.
func (s *Comments) Edit(ctx context.Context, id int64, caller core.Owner, form core.CommentForm, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourceComment, "edit", err) }()
	log := logrus.WithFields(logrus.Fields{"comment_id": id, "user": caller})

	comment, err := loadOwned(ctx, log, id, caller, s.comments.GetComment, commentOwner)
	if err != nil {
		return "", err
	}
	if err := validateForm(log, form); err != nil {
		return "", err
	}

	form.Apply(comment)
	comment.CommentedAt = s.now()
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return "", persistFailure(log, "update comment", err)
	}

	log.Info("Comment updated successfully")
	s.publish(ctx, resourceComment, core.ActionUpdated, comment.ID, comment.Owner)
	return core.Redirect(comment.Parent.ResourceKind(), source), nil
}

func (s *Comments) Delete(ctx context.Context, id int64, caller core.Owner, source core.Source) (dest core.Destination, err error) {
	defer func() { recordMutation(resourceComment, "delete", err) }()
	log := logrus.WithFields(logrus.Fields{"comment_id": id, "user": caller})

	comment, err := loadOwned(ctx, log, id, caller, s.comments.GetComment, commentOwner)
	if err != nil {
		return "", err
	}
	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return "", persistFailure(log, "delete comment", err)
	}

	log.Info("Comment deleted successfully")
	s.publish(ctx, resourceComment, core.ActionDeleted, id, comment.Owner)
	return core.Redirect(comment.Parent.ResourceKind(), source), nil
}
