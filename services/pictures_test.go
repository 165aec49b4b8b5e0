package services

import (
	"context"
	"errors"
	"nest-server/core"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pictureFixture struct {
	store    *flakyStore
	assets   *fakeAssets
	notifier *recordingNotifier
	svc      *Pictures
}

func newPictureFixture() *pictureFixture {
	store := newFlakyStore()
	assets := newFakeAssets()
	notifier := &recordingNotifier{}
	return &pictureFixture{
		store:    store,
		assets:   assets,
		notifier: notifier,
		svc:      NewPictures(store, store, assets, WithClock(stepClock()), WithNotifier(notifier)),
	}
}

func (f *pictureFixture) createSunset(t *testing.T) *core.Picture {
	t.Helper()
	p, _, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: "Sunset"}, upload("sunset.jpg", "jpeg"), core.SourceDefault)
	require.NoError(t, err)
	return p
}

func TestPictureCreate_Sunset(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()

	p, dest, err := f.svc.Create(ctx, "alice", core.PictureForm{Title: "Sunset"}, upload("sunset.jpg", "jpeg"), core.SourceDefault)
	require.NoError(t, err)
	assert.Equal(t, core.PictureGrid, dest)

	stored, err := f.store.GetPicture(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Owner("alice"), stored.Owner)
	assert.NotEmpty(t, stored.AssetPath)
	assert.True(t, f.assets.Exists(ctx, stored.AssetPath))
	assert.False(t, stored.UploadedAt.IsZero())

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, core.Event{Resource: "picture", Action: core.ActionCreated, ID: p.ID, Owner: "alice"}, f.notifier.events[0])
}

func TestPictureCreate_LogsOnce(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	f := newPictureFixture()

	f.createSunset(t)

	var created int
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.InfoLevel && e.Message == "Picture created successfully" {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestPictureCreate_WithoutUpload(t *testing.T) {
	f := newPictureFixture()
	p, dest, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: "Text only"}, nil, core.SourceMyPage)
	require.NoError(t, err)
	assert.Empty(t, p.AssetPath)
	assert.Equal(t, core.PictureMyPage, dest)
	assert.Equal(t, 0, f.assets.count())
}

func TestPictureCreate_Unauthenticated(t *testing.T) {
	f := newPictureFixture()
	_, _, err := f.svc.Create(context.Background(), "", core.PictureForm{Title: "Sunset"}, upload("a.png", "x"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Equal(t, 0, f.assets.count())
}

func TestPictureCreate_ValidationWritesNothing(t *testing.T) {
	f := newPictureFixture()
	_, _, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: ""}, upload("a.png", "x"), core.SourceDefault)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Equal(t, 0, f.assets.count())
	assert.Empty(t, f.svc.Grid(context.Background()))
}

func TestPictureCreate_StorageFailure(t *testing.T) {
	f := newPictureFixture()
	f.assets.storeErr = errors.New("disk full")

	_, _, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: "Sunset"}, upload("a.png", "x"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Empty(t, f.svc.Grid(context.Background()))
}

func TestPictureCreate_AssetMissingAfterWrite(t *testing.T) {
	f := newPictureFixture()
	f.assets.dropWrites = true

	_, _, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: "Sunset"}, upload("a.png", "x"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Empty(t, f.svc.Grid(context.Background()))
}

func TestPictureCreate_PersistenceFailureOrphansAsset(t *testing.T) {
	f := newPictureFixture()
	f.store.createErr = errDatabaseDown

	_, _, err := f.svc.Create(context.Background(), "alice", core.PictureForm{Title: "Sunset"}, upload("a.png", "x"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, 1, f.assets.count(), "stored asset is not rolled back")
	assert.Empty(t, f.notifier.events)
}

func TestPictureEdit_Forbidden(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	_, err := f.svc.Edit(ctx, p.ID, "bob", core.PictureForm{Title: "Mine now"}, upload("b.png", "y"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrForbidden)

	stored, err := f.store.GetPicture(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", stored.Title)
	assert.Equal(t, p.AssetPath, stored.AssetPath)
	assert.Equal(t, 1, f.assets.count(), "no asset written for a forbidden edit")
}

func TestPictureEdit_UnauthenticatedForbidden(t *testing.T) {
	f := newPictureFixture()
	p := f.createSunset(t)

	_, err := f.svc.Edit(context.Background(), p.ID, "", core.PictureForm{Title: "x"}, nil, core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestPictureEdit_NotFound(t *testing.T) {
	f := newPictureFixture()
	f.createSunset(t)

	for _, caller := range []core.Owner{"alice", "bob", ""} {
		_, err := f.svc.Edit(context.Background(), 404, caller, core.PictureForm{Title: "x"}, nil, core.SourceDefault)
		assert.ErrorIs(t, err, core.ErrNotFound, "caller %q", caller)
		assert.NotErrorIs(t, err, core.ErrForbidden)
	}
}

func TestPictureEdit_ReplacesAsset(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)
	oldPath := p.AssetPath

	dest, err := f.svc.Edit(ctx, p.ID, "alice", core.PictureForm{Title: "Sunrise", Description: "early"}, upload("sunrise.jpg", "new"), core.SourceMyPage)
	require.NoError(t, err)
	assert.Equal(t, core.PictureMyPage, dest)

	stored, err := f.store.GetPicture(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise", stored.Title)
	assert.Equal(t, "early", stored.Description)
	assert.NotEqual(t, oldPath, stored.AssetPath)
	assert.True(t, f.assets.Exists(ctx, stored.AssetPath))
	assert.False(t, f.assets.Exists(ctx, oldPath))
}

func TestPictureEdit_KeepsAssetWithoutUpload(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	_, err := f.svc.Edit(ctx, p.ID, "alice", core.PictureForm{Title: "Renamed"}, &core.Upload{}, core.SourceDefault)
	require.NoError(t, err)

	stored, _ := f.store.GetPicture(ctx, p.ID)
	assert.Equal(t, p.AssetPath, stored.AssetPath)
	assert.True(t, f.assets.Exists(ctx, p.AssetPath))
	assert.Equal(t, p.UploadedAt, stored.UploadedAt)
}

func TestPictureEdit_PersistenceFailureKeepsOldPath(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)
	f.store.updateErr = errDatabaseDown

	_, err := f.svc.Edit(ctx, p.ID, "alice", core.PictureForm{Title: "Sunrise"}, upload("sunrise.jpg", "new"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrPersistence)

	stored, err := f.store.GetPicture(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.AssetPath, stored.AssetPath, "record keeps its old asset")
	assert.Equal(t, "Sunset", stored.Title)
	assert.True(t, f.assets.Exists(ctx, p.AssetPath), "old asset is not deleted")
	assert.Equal(t, 2, f.assets.count(), "new asset was written and is left behind")
}

func TestPictureEdit_StorageFailureLeavesRecord(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)
	f.assets.storeErr = errors.New("disk full")

	_, err := f.svc.Edit(ctx, p.ID, "alice", core.PictureForm{Title: "Sunrise"}, upload("sunrise.jpg", "new"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrStorage)

	stored, _ := f.store.GetPicture(ctx, p.ID)
	assert.Equal(t, "Sunset", stored.Title)
	assert.Equal(t, p.AssetPath, stored.AssetPath)
}

func TestPictureEdit_Validation(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	_, err := f.svc.Edit(ctx, p.ID, "alice", core.PictureForm{Title: "ok", Description: strings.Repeat("d", 501)}, upload("b.png", "y"), core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1, f.assets.count())
}

func TestPictureDelete_Twice(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	dest, err := f.svc.Delete(ctx, p.ID, "alice", core.SourceGrid)
	require.NoError(t, err)
	assert.Equal(t, core.PictureGrid, dest)
	assert.False(t, f.assets.Exists(ctx, p.AssetPath))

	_, err = f.svc.Delete(ctx, p.ID, "alice", core.SourceGrid)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPictureDelete_AssetFailureIsBestEffort(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)
	f.assets.deleteErr = errors.New("permission denied")

	_, err := f.svc.Delete(ctx, p.ID, "alice", core.SourceDefault)
	require.NoError(t, err)
	_, err = f.store.GetPicture(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPictureDelete_Forbidden(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	_, err := f.svc.Delete(ctx, p.ID, "bob", core.SourceDefault)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.True(t, f.assets.Exists(ctx, p.AssetPath))
}

func TestPictureViews_OwnershipGated(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)

	got, err := f.svc.EditView(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Sunset", got.Title)

	_, err = f.svc.DeleteView(ctx, p.ID, "bob")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestPictureGrid_ListFailureIsEmpty(t *testing.T) {
	f := newPictureFixture()
	f.createSunset(t)
	f.store.listErr = errDatabaseDown

	grid := f.svc.Grid(context.Background())
	assert.NotNil(t, grid)
	assert.Empty(t, grid)
}

func TestPictureMyPage(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	f.createSunset(t)
	_, _, err := f.svc.Create(ctx, "bob", core.PictureForm{Title: "Bob's"}, nil, core.SourceDefault)
	require.NoError(t, err)

	mine, err := f.svc.MyPage(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Bob's", mine[0].Title)

	_, err = f.svc.MyPage(ctx, "")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestPictureDetails_WithComments(t *testing.T) {
	f := newPictureFixture()
	ctx := context.Background()
	p := f.createSunset(t)
	comments := NewComments(f.store, f.store, f.store)
	_, _, err := comments.CreateForPicture(ctx, "bob", p.ID, core.CommentForm{Description: "wow"}, core.SourceDefault)
	require.NoError(t, err)

	details, err := f.svc.Details(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, details.Picture.ID)
	require.Len(t, details.Comments, 1)
	assert.Equal(t, "wow", details.Comments[0].Description)

	_, err = f.svc.Details(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
