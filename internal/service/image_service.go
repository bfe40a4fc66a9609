package service

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/elektromart/bundle_api/internal/models"
)

// ImageStorage is the external object store for bundle images.
type ImageStorage interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// ImageStore is the persistence surface of the image sub-resource.
type ImageStore interface {
	GetByID(id, bundleID int64) (*models.BundleImage, error)
	AddBatch(bundleID int64, urls []string) ([]models.BundleImage, error)
	SetPrimary(id, bundleID int64) error
	Delete(id, bundleID int64) (string, error)
}

// UploadFile is one uploaded image payload.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImageService attaches uploaded images to bundles. Object storage writes
// happen before the DB rows so a failed upload never leaves a dangling URL.
type ImageService struct {
	images  ImageStore
	bundles BundleStore
	storage ImageStorage
	cache   CacheInvalidator
}

// NewImageService creates a new ImageService.
func NewImageService(images ImageStore, bundles BundleStore, storage ImageStorage, cache CacheInvalidator) *ImageService {
	return &ImageService{images: images, bundles: bundles, storage: storage, cache: cache}
}

// Upload stores the files and attaches them to the bundle. The first image a
// bundle ever receives becomes its primary.
func (s *ImageService) Upload(ctx context.Context, bundleID int64, files []UploadFile) ([]models.BundleImage, error) {
	if _, err := s.bundles.GetBundleRow(bundleID); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("bundles/%d/%s%s", bundleID, uuid.NewString(), path.Ext(f.Name))
		u, err := s.storage.Store(ctx, key, f.Data, f.ContentType)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}

	images, err := s.images.AddBatch(bundleID, urls)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return images, nil
}

// SetPrimary makes one image the bundle's primary.
func (s *ImageService) SetPrimary(ctx context.Context, bundleID, imageID int64) error {
	if err := s.images.SetPrimary(imageID, bundleID); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// Delete removes an image row and then its stored object. Storage cleanup is
// best-effort: an orphaned object is preferable to an image row pointing at
// nothing.
func (s *ImageService) Delete(ctx context.Context, bundleID, imageID int64) error {
	objectURL, err := s.images.Delete(imageID, bundleID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, objectURL); err != nil {
		log.Warn().Err(err).Str("url", objectURL).Msg("image object cleanup failed")
	}
	s.cache.Invalidate()
	return nil
}
