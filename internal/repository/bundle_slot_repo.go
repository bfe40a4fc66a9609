package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleSlotRepository handles the slot sub-resource of configurable bundles.
// A slot and its product set always change together in one transaction.
type BundleSlotRepository struct {
	db *sqlx.DB
}

// NewBundleSlotRepository creates a new BundleSlotRepository.
func NewBundleSlotRepository(db *sqlx.DB) *BundleSlotRepository {
	return &BundleSlotRepository{db: db}
}

// GetByID returns a slot with its product set, scoped to its parent bundle.
func (r *BundleSlotRepository) GetByID(id, bundleID int64) (*models.BundleSlot, error) {
	var slot models.BundleSlot
	err := r.db.Get(&slot,
		`SELECT * FROM bundle_slots WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.db.Select(&slot.Products,
		`SELECT * FROM bundle_slot_products WHERE slot_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a slot and its products in one transaction.
func (r *BundleSlotRepository) Create(slot *models.BundleSlot) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowx(`
		INSERT INTO bundle_slots (bundle_id, name, description, slot_order, is_required, min_selections, max_selections)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		slot.BundleID, slot.Name, slot.Description, slot.SlotOrder,
		slot.IsRequired, slot.MinSelections, slot.MaxSelections,
	).Scan(&slot.ID)
	if err != nil {
		return err
	}
	if err := insertSlotProducts(tx, slot); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the slot row and replaces its product set. The incoming
// product list is the new set, not a merge.
func (r *BundleSlotRepository) Update(slot *models.BundleSlot) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE bundle_slots SET name = $1, description = $2, slot_order = $3,
			is_required = $4, min_selections = $5, max_selections = $6
		WHERE id = $7 AND bundle_id = $8`,
		slot.Name, slot.Description, slot.SlotOrder,
		slot.IsRequired, slot.MinSelections, slot.MaxSelections,
		slot.ID, slot.BundleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM bundle_slot_products WHERE slot_id = $1`, slot.ID); err != nil {
		return err
	}
	if err := insertSlotProducts(tx, slot); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a slot and its products in one transaction.
func (r *BundleSlotRepository) Delete(id, bundleID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bundle_slot_products WHERE slot_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM bundle_slots WHERE id = $1 AND bundle_id = $2`, id, bundleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return tx.Commit()
}

func insertSlotProducts(tx *sqlx.Tx, slot *models.BundleSlot) error {
	for i := range slot.Products {
		p := &slot.Products[i]
		p.SlotID = slot.ID
		err := tx.QueryRowx(`
			INSERT INTO bundle_slot_products (slot_id, product_id, price_override)
			VALUES ($1, $2, $3) RETURNING id`,
			p.SlotID, p.ProductID, p.PriceOverride,
		).Scan(&p.ID)
		if err != nil {
			return mapUniqueViolation(err, "bundle_slot_product")
		}
	}
	return nil
}
