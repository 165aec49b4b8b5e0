package memory

import (
	"context"
	"fmt"
	"nest-server/core"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// memStore implements PictureStore, NoteStore and CommentStore in memory.
type memStore struct {
	mu       sync.RWMutex
	pictures map[int64]core.Picture
	notes    map[int64]core.Note
	comments map[int64]core.Comment
	// last assigned id per table
	lastPicture, lastNote, lastComment int64
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		pictures: make(map[int64]core.Picture),
		notes:    make(map[int64]core.Note),
		comments: make(map[int64]core.Comment),
	}
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListPictures returns every picture in insertion order.
func (s *memStore) ListPictures(ctx context.Context) ([]*core.Picture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pictures := make([]*core.Picture, 0, len(s.pictures))
	for _, id := range sortedIDs(s.pictures) {
		p := s.pictures[id]
		pictures = append(pictures, &p)
	}
	logrus.Debugf("Listed %d pictures", len(pictures))
	return pictures, nil
}

func (s *memStore) GetPicture(ctx context.Context, id int64) (*core.Picture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pictures[id]
	if !ok {
		logrus.WithField("picture_id", id).Warn("Picture not found")
		return nil, fmt.Errorf("picture %d: %w", id, core.ErrNotFound)
	}
	return &p, nil
}

func (s *memStore) CreatePicture(ctx context.Context, picture *core.Picture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPicture++
	picture.ID = s.lastPicture
	s.pictures[picture.ID] = *picture
	logrus.WithFields(logrus.Fields{"picture_id": picture.ID, "user": picture.Owner}).Debug("Picture created successfully")
	return nil
}

func (s *memStore) UpdatePicture(ctx context.Context, picture *core.Picture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pictures[picture.ID]; !ok {
		return fmt.Errorf("picture %d: %w", picture.ID, core.ErrNotFound)
	}
	s.pictures[picture.ID] = *picture
	logrus.WithField("picture_id", picture.ID).Debug("Picture updated successfully")
	return nil
}

// DeletePicture removes the picture together with its comments.
func (s *memStore) DeletePicture(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pictures[id]; !ok {
		return fmt.Errorf("picture %d: %w", id, core.ErrNotFound)
	}
	delete(s.pictures, id)
	removed := s.deleteCommentsLocked(core.PictureParent(id))
	logrus.WithFields(logrus.Fields{"picture_id": id, "comments_removed": removed}).Debug("Picture deleted successfully")
	return nil
}

func (s *memStore) ListNotes(ctx context.Context) ([]*core.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]*core.Note, 0, len(s.notes))
	for _, id := range sortedIDs(s.notes) {
		n := s.notes[id]
		notes = append(notes, &n)
	}
	logrus.Debugf("Listed %d notes", len(notes))
	return notes, nil
}

func (s *memStore) GetNote(ctx context.Context, id int64) (*core.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		logrus.WithField("note_id", id).Warn("Note not found")
		return nil, fmt.Errorf("note %d: %w", id, core.ErrNotFound)
	}
	return &n, nil
}

func (s *memStore) CreateNote(ctx context.Context, note *core.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastNote++
	note.ID = s.lastNote
	s.notes[note.ID] = *note
	logrus.WithFields(logrus.Fields{"note_id": note.ID, "user": note.Owner}).Debug("Note created successfully")
	return nil
}

func (s *memStore) UpdateNote(ctx context.Context, note *core.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[note.ID]; !ok {
		return fmt.Errorf("note %d: %w", note.ID, core.ErrNotFound)
	}
	s.notes[note.ID] = *note
	logrus.WithField("note_id", note.ID).Debug("Note updated successfully")
	return nil
}

// DeleteNote removes the note together with its comments.
func (s *memStore) DeleteNote(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("note %d: %w", id, core.ErrNotFound)
	}
	delete(s.notes, id)
	removed := s.deleteCommentsLocked(core.NoteParent(id))
	logrus.WithFields(logrus.Fields{"note_id": id, "comments_removed": removed}).Debug("Note deleted successfully")
	return nil
}

func (s *memStore) deleteCommentsLocked(parent core.ParentRef) int {
	removed := 0
	for id, c := range s.comments {
		if c.Parent == parent {
			delete(s.comments, id)
			removed++
		}
	}
	return removed
}

func (s *memStore) ListAllComments(ctx context.Context) ([]*core.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*core.Comment, 0, len(s.comments))
	for _, id := range sortedIDs(s.comments) {
		c := s.comments[id]
		comments = append(comments, &c)
	}
	return comments, nil
}

// ListComments returns the comments attached to parent, oldest first.
func (s *memStore) ListComments(ctx context.Context, parent core.ParentRef) ([]*core.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*core.Comment, 0)
	for _, id := range sortedIDs(s.comments) {
		c := s.comments[id]
		if c.Parent == parent {
			comments = append(comments, &c)
		}
	}
	return comments, nil
}

func (s *memStore) GetComment(ctx context.Context, id int64) (*core.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		logrus.WithField("comment_id", id).Warn("Comment not found")
		return nil, fmt.Errorf("comment %d: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

// CreateComment stores a comment. The parent must exist.
func (s *memStore) CreateComment(ctx context.Context, comment *core.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.parentExistsLocked(comment.Parent) {
		return fmt.Errorf("comment parent %s: %w", comment.Parent, core.ErrNotFound)
	}

	s.lastComment++
	comment.ID = s.lastComment
	s.comments[comment.ID] = *comment
	logrus.WithFields(logrus.Fields{"comment_id": comment.ID, "parent": comment.Parent.String(), "user": comment.Owner}).Debug("Comment created successfully")
	return nil
}

func (s *memStore) parentExistsLocked(parent core.ParentRef) bool {
	if id, ok := parent.PictureID(); ok {
		_, exists := s.pictures[id]
		return exists
	}
	if id, ok := parent.NoteID(); ok {
		_, exists := s.notes[id]
		return exists
	}
	return false
}

// UpdateComment replaces the text and timestamp of a comment. The parent is never changed.
func (s *memStore) UpdateComment(ctx context.Context, comment *core.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.comments[comment.ID]
	if !ok {
		return fmt.Errorf("comment %d: %w", comment.ID, core.ErrNotFound)
	}
	existing.Description = comment.Description
	existing.CommentedAt = comment.CommentedAt
	s.comments[comment.ID] = existing
	logrus.WithField("comment_id", comment.ID).Debug("Comment updated successfully")
	return nil
}

func (s *memStore) DeleteComment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, core.ErrNotFound)
	}
	delete(s.comments, id)
	logrus.WithField("comment_id", id).Debug("Comment deleted successfully")
	return nil
}
