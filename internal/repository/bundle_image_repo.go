package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleImageRepository handles the image sub-resource. It maintains the
// invariant that when a bundle has any image, exactly one is primary.
type BundleImageRepository struct {
	db *sqlx.DB
}

// NewBundleImageRepository creates a new BundleImageRepository.
func NewBundleImageRepository(db *sqlx.DB) *BundleImageRepository {
	return &BundleImageRepository{db: db}
}

// GetByID returns an image scoped to its parent bundle.
func (r *BundleImageRepository) GetByID(id, bundleID int64) (*models.BundleImage, error) {
	var img models.BundleImage
	err := r.db.Get(&img,
		`SELECT * FROM bundle_images WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// AddBatch inserts uploaded images. The first image a bundle ever gets
// becomes primary; later uploads never steal the flag.
func (r *BundleImageRepository) AddBatch(bundleID int64, urls []string) ([]models.BundleImage, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var hasPrimary bool
	if err := tx.Get(&hasPrimary,
		`SELECT EXISTS (SELECT 1 FROM bundle_images WHERE bundle_id = $1 AND is_primary)`, bundleID); err != nil {
		return nil, err
	}
	var maxOrder int
	if err := tx.Get(&maxOrder,
		`SELECT COALESCE(MAX(sort_order), -1) FROM bundle_images WHERE bundle_id = $1`, bundleID); err != nil {
		return nil, err
	}

	images := make([]models.BundleImage, 0, len(urls))
	for i, u := range urls {
		img := models.BundleImage{
			BundleID:  bundleID,
			URL:       u,
			IsPrimary: !hasPrimary && i == 0,
			SortOrder: maxOrder + 1 + i,
		}
		err := tx.QueryRowx(`
			INSERT INTO bundle_images (bundle_id, url, is_primary, sort_order)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			img.BundleID, img.URL, img.IsPrimary, img.SortOrder,
		).Scan(&img.ID)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, tx.Commit()
}

// SetPrimary makes one image primary and demotes the rest of the bundle's
// images in the same transaction.
func (r *BundleImageRepository) SetPrimary(id, bundleID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Demote first: the one-primary unique index is checked per statement.
	if _, err := tx.Exec(
		`UPDATE bundle_images SET is_primary = false WHERE bundle_id = $1 AND id <> $2`, bundleID, id); err != nil {
		return err
	}
	res, err := tx.Exec(
		`UPDATE bundle_images SET is_primary = true WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return tx.Commit()
}

// Delete removes an image and returns its URL for storage cleanup. Deleting
// the primary promotes the lowest-ordered remaining image so the
// one-primary invariant holds.
func (r *BundleImageRepository) Delete(id, bundleID int64) (string, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var img models.BundleImage
	err = tx.Get(&img,
		`SELECT * FROM bundle_images WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err == sql.ErrNoRows {
		return "", utils.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(`DELETE FROM bundle_images WHERE id = $1`, id); err != nil {
		return "", err
	}
	if img.IsPrimary {
		if _, err := tx.Exec(`
			UPDATE bundle_images SET is_primary = true
			WHERE id = (
				SELECT id FROM bundle_images WHERE bundle_id = $1
				ORDER BY sort_order, id LIMIT 1
			)`, bundleID); err != nil {
			return "", err
		}
	}
	return img.URL, tx.Commit()
}
