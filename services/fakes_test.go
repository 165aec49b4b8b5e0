package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"nest-server/core"
	"nest-server/stores/memory"
	"strings"
	"sync"
	"time"
)

// fakeAssets is an in-memory asset store with injectable failures.
type fakeAssets struct {
	mu       sync.Mutex
	files    map[string][]byte
	seq      int
	storeErr error
	// dropWrites makes Store succeed without keeping the file.
	dropWrites bool
	deleteErr  error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{files: make(map[string][]byte)}
}

func (f *fakeAssets) Store(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := fmt.Sprintf("%s%03d_%s", core.AssetPrefix, f.seq, core.SanitizeFilename(originalName))
	if !f.dropWrites {
		f.files[p] = data
	}
	return p, nil
}

func (f *fakeAssets) Exists(ctx context.Context, assetPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[assetPath]
	return ok
}

func (f *fakeAssets) Delete(ctx context.Context, assetPath string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, assetPath)
	return nil
}

func (f *fakeAssets) Open(ctx context.Context, assetPath string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[assetPath]
	if !ok {
		return nil, core.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeAssets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// flakyStore wraps the memory store and fails selected operations.
type flakyStore struct {
	core.PictureStore
	core.NoteStore
	core.CommentStore
	createErr error
	updateErr error
	listErr   error
}

func newFlakyStore() *flakyStore {
	mem := memory.NewStore()
	return &flakyStore{PictureStore: mem, NoteStore: mem, CommentStore: mem}
}

func (f *flakyStore) CreatePicture(ctx context.Context, p *core.Picture) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.PictureStore.CreatePicture(ctx, p)
}

func (f *flakyStore) UpdatePicture(ctx context.Context, p *core.Picture) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.PictureStore.UpdatePicture(ctx, p)
}

func (f *flakyStore) ListPictures(ctx context.Context) ([]*core.Picture, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.PictureStore.ListPictures(ctx)
}

func (f *flakyStore) ListNotes(ctx context.Context) ([]*core.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.NoteStore.ListNotes(ctx)
}

func (f *flakyStore) UpdateNote(ctx context.Context, n *core.Note) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.NoteStore.UpdateNote(ctx, n)
}

var errDatabaseDown = errors.New("database is down")

// recordingNotifier collects published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, e core.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// stepClock returns a time one minute later on every call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func upload(name, content string) *core.Upload {
	return &core.Upload{Filename: name, Size: int64(len(content)), Content: strings.NewReader(content)}
}
