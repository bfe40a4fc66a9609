package service

import (
	"context"
	"errors"
	"testing"

	"github.com/elektromart/bundle_api/internal/utils"
)

func uploadFiles(names ...string) []UploadFile {
	files := make([]UploadFile, 0, len(names))
	for _, n := range names {
		files = append(files, UploadFile{Name: n, ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	}
	return files
}

func requireOnePrimary(t *testing.T, images *memImageStore, bundleID int64) int64 {
	t.Helper()
	var primaries []int64
	for _, img := range images.forBundle(bundleID) {
		if img.IsPrimary {
			primaries = append(primaries, img.ID)
		}
	}
	if len(primaries) != 1 {
		t.Fatalf("want exactly one primary image, got %d: %+v", len(primaries), images.forBundle(bundleID))
	}
	return primaries[0]
}

func TestUploadFirstImageBecomesPrimary(t *testing.T) {
	store := newMemBundleStore()
	images := newMemImageStore()
	svc := NewImageService(images, store, &memImageStorage{}, &memCache{})
	agg := seedBundle(t, store, "gallery", nil)

	first, err := svc.Upload(context.Background(), agg.ID, uploadFiles("front.jpg", "side.jpg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !first[0].IsPrimary || first[1].IsPrimary {
		t.Errorf("only the first image of the first upload is primary, got %+v", first)
	}

	// A later batch never steals the flag.
	second, err := svc.Upload(context.Background(), agg.ID, uploadFiles("back.jpg"))
	if err != nil {
		t.Fatalf("second Upload: %v", err)
	}
	if second[0].IsPrimary {
		t.Error("later upload must not become primary")
	}
	if second[0].SortOrder != 2 {
		t.Errorf("sort order = %d, want 2 (continues after existing images)", second[0].SortOrder)
	}
	if got := requireOnePrimary(t, images, agg.ID); got != first[0].ID {
		t.Errorf("primary = %d, want %d", got, first[0].ID)
	}
}

func TestUploadUnknownBundle(t *testing.T) {
	svc := NewImageService(newMemImageStore(), newMemBundleStore(), &memImageStorage{}, &memCache{})

	_, err := svc.Upload(context.Background(), 404, uploadFiles("front.jpg"))
	if !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPrimaryDemotesPrevious(t *testing.T) {
	store := newMemBundleStore()
	images := newMemImageStore()
	svc := NewImageService(images, store, &memImageStorage{}, &memCache{})
	agg := seedBundle(t, store, "gallery", nil)

	uploaded, err := svc.Upload(context.Background(), agg.ID, uploadFiles("a.jpg", "b.jpg", "c.jpg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.SetPrimary(context.Background(), agg.ID, uploaded[1].ID); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if got := requireOnePrimary(t, images, agg.ID); got != uploaded[1].ID {
		t.Errorf("primary = %d, want %d", got, uploaded[1].ID)
	}

	if err := svc.SetPrimary(context.Background(), agg.ID, 999); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown image, got %v", err)
	}
}

func TestDeletePrimaryPromotesNext(t *testing.T) {
	store := newMemBundleStore()
	images := newMemImageStore()
	storage := &memImageStorage{}
	svc := NewImageService(images, store, storage, &memCache{})
	agg := seedBundle(t, store, "gallery", nil)

	uploaded, err := svc.Upload(context.Background(), agg.ID, uploadFiles("a.jpg", "b.jpg", "c.jpg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), agg.ID, uploaded[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := requireOnePrimary(t, images, agg.ID); got != uploaded[1].ID {
		t.Errorf("primary = %d, want %d (lowest-ordered survivor)", got, uploaded[1].ID)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != uploaded[0].URL {
		t.Errorf("stored object not cleaned up: %v", storage.deleted)
	}
}

func TestDeleteToleratesStorageFailure(t *testing.T) {
	store := newMemBundleStore()
	images := newMemImageStore()
	storage := &memImageStorage{deleteErr: errors.New("object store down")}
	svc := NewImageService(images, store, storage, &memCache{})
	agg := seedBundle(t, store, "gallery", nil)

	uploaded, err := svc.Upload(context.Background(), agg.ID, uploadFiles("a.jpg"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Object cleanup is best-effort; the row deletion still succeeds.
	if err := svc.Delete(context.Background(), agg.ID, uploaded[0].ID); err != nil {
		t.Fatalf("Delete must tolerate storage failure, got %v", err)
	}
	if len(images.forBundle(agg.ID)) != 0 {
		t.Error("image row should be gone")
	}
}
