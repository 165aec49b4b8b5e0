package services

import (
	"context"
	"nest-server/core"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotes() (*Notes, *flakyStore) {
	store := newFlakyStore()
	return NewNotes(store, store, WithClock(stepClock())), store
}

func TestNoteCreate_Success(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()

	n, dest, err := svc.Create(ctx, "alice", core.NoteForm{Title: "Diary", Content: "dear diary"}, core.SourceDefault)
	require.NoError(t, err)
	assert.Equal(t, core.NoteFeed, dest)

	stored, err := store.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Owner("alice"), stored.Owner)
	assert.Equal(t, "dear diary", stored.Content)
}

func TestNoteCreate_Validation(t *testing.T) {
	svc, _ := newNotes()
	_, _, err := svc.Create(context.Background(), "alice", core.NoteForm{Title: "Diary"}, core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNoteEdit_RefreshesTimestamp(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()
	n, _, err := svc.Create(ctx, "alice", core.NoteForm{Title: "Diary", Content: "v1"}, core.SourceDefault)
	require.NoError(t, err)

	dest, err := svc.Edit(ctx, n.ID, "alice", core.NoteForm{Title: "Diary", Content: "v2"}, core.SourceMyPage)
	require.NoError(t, err)
	assert.Equal(t, core.NoteMyPage, dest)

	stored, _ := store.GetNote(ctx, n.ID)
	assert.Equal(t, "v2", stored.Content)
	assert.True(t, stored.UploadedAt.After(n.UploadedAt))
}

func TestNoteEdit_ForbiddenAndNotFound(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()
	n, _, _ := svc.Create(ctx, "alice", core.NoteForm{Title: "Diary", Content: "v1"}, core.SourceDefault)

	_, err := svc.Edit(ctx, n.ID, "bob", core.NoteForm{Title: "Hacked", Content: "x"}, core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrForbidden)
	stored, _ := store.GetNote(ctx, n.ID)
	assert.Equal(t, "Diary", stored.Title)

	_, err = svc.Edit(ctx, 77, "bob", core.NoteForm{Title: "x", Content: "x"}, core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNoteEdit_PersistenceFailure(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()
	n, _, _ := svc.Create(ctx, "alice", core.NoteForm{Title: "Diary", Content: "v1"}, core.SourceDefault)
	store.updateErr = errDatabaseDown

	_, err := svc.Edit(ctx, n.ID, "alice", core.NoteForm{Title: "Diary", Content: "v2"}, core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestNoteDelete_CascadesAndTwice(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()
	n, _, _ := svc.Create(ctx, "alice", core.NoteForm{Title: "Diary", Content: "v1"}, core.SourceDefault)
	comments := NewComments(store, store, store)
	_, _, err := comments.CreateForNote(ctx, "bob", n.ID, core.CommentForm{Description: "hi"}, core.SourceDefault)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, n.ID, "alice", core.SourceNotes)
	require.NoError(t, err)
	assert.Empty(t, comments.List(ctx))

	_, err = svc.Delete(ctx, n.ID, "alice", core.SourceNotes)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNoteFeedAndMyPage(t *testing.T) {
	svc, store := newNotes()
	ctx := context.Background()
	svc.Create(ctx, "alice", core.NoteForm{Title: "a", Content: "a"}, core.SourceDefault)
	svc.Create(ctx, "bob", core.NoteForm{Title: "b", Content: "b"}, core.SourceDefault)

	assert.Len(t, svc.Feed(ctx), 2)
	mine, err := svc.MyPage(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a", mine[0].Title)

	store.listErr = errDatabaseDown
	feed := svc.Feed(ctx)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}
