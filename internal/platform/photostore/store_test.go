package photostore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMemoryStore_SaveAndOpen(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	meta, err := store.Save(ctx, Meta{
		FileName:    "catch.jpg",
		ContentType: "image/jpeg",
		UploadedBy:  "user-1",
	}, strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ID == "" {
		t.Fatal("expected a generated file id")
	}
	if meta.Size != int64(len("jpeg-bytes")) {
		t.Errorf("expected size %d, got %d", len("jpeg-bytes"), meta.Size)
	}
	if meta.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	body, got, err := store.Open(ctx, meta.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "jpeg-bytes" {
		t.Errorf("expected content round trip, got %q", data)
	}
	if got.ContentType != "image/jpeg" || got.FileName != "catch.jpg" {
		t.Errorf("unexpected meta: %+v", got)
	}
}

func TestMemoryStore_RejectsBadContentType(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Save(context.Background(), Meta{
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
	}, strings.NewReader("%PDF"))
	if !errors.Is(err, ErrBadContentType) {
		t.Fatalf("expected ErrBadContentType, got %v", err)
	}
}

func TestMemoryStore_RejectsOversizedPhoto(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Save(context.Background(), Meta{
		FileName:    "huge.png",
		ContentType: "image/png",
	}, bytes.NewReader(make([]byte, MaxPhotoSize+1)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, _, err := store.Open(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("open: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Stat(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stat: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

type fakeRefs struct {
	referenced map[string]bool
}

func (f *fakeRefs) PhotoReferenced(_ context.Context, id string) (bool, error) {
	return f.referenced[id], nil
}

func TestReaper_SweepsOrphanedPhotos(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	save := func(name string) string {
		meta, err := store.Save(ctx, Meta{FileName: name, ContentType: "image/jpeg"}, strings.NewReader("x"))
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		return meta.ID
	}
	orphan := save("orphan.jpg")
	claimed := save("claimed.jpg")
	fresh := save("fresh.jpg")

	// Age the first two past the grace period.
	old := time.Now().UTC().Add(-2 * time.Hour)
	store.photos[orphan].meta.CreatedAt = old
	store.photos[claimed].meta.CreatedAt = old

	refs := &fakeRefs{referenced: map[string]bool{claimed: true}}
	reaper := NewReaper(store, refs, time.Hour, zerolog.Nop())
	if err := reaper.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if _, err := store.Stat(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Error("expected orphaned photo to be deleted")
	}
	if _, err := store.Stat(ctx, claimed); err != nil {
		t.Errorf("expected referenced photo to survive: %v", err)
	}
	if _, err := store.Stat(ctx, fresh); err != nil {
		t.Errorf("expected photo inside grace period to survive: %v", err)
	}
}

func TestReaper_RunStopsOnContextCancel(t *testing.T) {
	store := NewMemoryStore()
	reaper := NewReaper(store, &fakeRefs{}, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
