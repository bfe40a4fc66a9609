package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleItemRepository handles the item sub-resource of fixed bundles.
type BundleItemRepository struct {
	db *sqlx.DB
}

// NewBundleItemRepository creates a new BundleItemRepository.
func NewBundleItemRepository(db *sqlx.DB) *BundleItemRepository {
	return &BundleItemRepository{db: db}
}

// GetByID returns an item scoped to its parent bundle.
func (r *BundleItemRepository) GetByID(id, bundleID int64) (*models.BundleItem, error) {
	var item models.BundleItem
	err := r.db.Get(&item,
		`SELECT * FROM bundle_items WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Add inserts an item. A duplicate product within the bundle is rejected as a
// conflict by the unique index, never silently merged.
func (r *BundleItemRepository) Add(item *models.BundleItem) error {
	err := r.db.QueryRowx(`
		INSERT INTO bundle_items (bundle_id, product_id, quantity, price_override, sort_order)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		item.BundleID, item.ProductID, item.Quantity, item.PriceOverride, item.SortOrder,
	).Scan(&item.ID)
	return mapUniqueViolation(err, "bundle_item")
}

// Update replaces an item's quantity, price override, and ordering.
func (r *BundleItemRepository) Update(item *models.BundleItem) error {
	res, err := r.db.Exec(`
		UPDATE bundle_items SET quantity = $1, price_override = $2, sort_order = $3
		WHERE id = $4 AND bundle_id = $5`,
		item.Quantity, item.PriceOverride, item.SortOrder, item.ID, item.BundleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// Delete removes an item from its bundle.
func (r *BundleItemRepository) Delete(id, bundleID int64) error {
	res, err := r.db.Exec(
		`DELETE FROM bundle_items WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return nil
}
