package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// notDeleted is the single soft-delete filter applied to every bundle query.
// Soft deletion is a state transition on the root row; children stay in place
// and become unreachable through the aggregate loaders.
const notDeleted = "deleted_at IS NULL"

// BundleRepository handles data access for the bundle aggregate: the root row,
// its children as one transactional unit, and the counter updates fired by
// storefront events.
type BundleRepository struct {
	db *sqlx.DB
}

// NewBundleRepository creates a new BundleRepository.
func NewBundleRepository(db *sqlx.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

// BundleFilter holds filters for admin bundle listings.
type BundleFilter struct {
	Search           string
	IsActive         *bool
	BundleType       string
	HomepagePosition string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	AvailableOnly    bool
	HomepageOnly     bool
	SortBy           string
	SortDir          string
	Page             int
	PerPage          int
}

// sortColumns whitelists sortable columns so the ORDER BY clause is never
// built from raw client input.
var sortColumns = map[string]string{
	"name":           "name",
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"display_order":  "display_order",
	"discount_value": "discount_value",
	"stock_sold":     "stock_sold",
	"view_count":     "view_count",
	"purchase_count": "purchase_count",
	"revenue":        "revenue",
}

// List returns bundles matching the filter plus the total match count.
// Page begins at 1; per_page is capped at 50.
func (r *BundleRepository) List(filter *BundleFilter) ([]models.Bundle, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 50 {
		filter.PerPage = 50
	}
	offset := (filter.Page - 1) * filter.PerPage

	// Build dynamic WHERE clause
	where := `WHERE ` + notDeleted
	args := []interface{}{}
	argIdx := 1

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR slug ILIKE $%d OR sku ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if filter.BundleType != "" {
		where += fmt.Sprintf(" AND bundle_type = $%d", argIdx)
		args = append(args, filter.BundleType)
		argIdx++
	}
	if filter.HomepagePosition != "" {
		where += fmt.Sprintf(" AND show_on_homepage = true AND homepage_position = $%d", argIdx)
		args = append(args, filter.HomepagePosition)
		argIdx++
	}
	if filter.CreatedFrom != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filter.CreatedFrom)
		argIdx++
	}
	if filter.CreatedTo != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *filter.CreatedTo)
		argIdx++
	}
	if filter.HomepageOnly {
		where += ` AND show_on_homepage = true`
	}
	if filter.AvailableOnly {
		where += ` AND is_active = true
			AND (starts_at IS NULL OR starts_at <= NOW())
			AND (ends_at IS NULL OR ends_at >= NOW())
			AND (stock_limit IS NULL OR stock_sold < stock_limit)`
	}

	// Count total
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM bundles `+where, args...); err != nil {
		return nil, 0, err
	}

	// Order: whitelisted column, ties broken by creation order.
	orderBy := "display_order"
	if col, ok := sortColumns[filter.SortBy]; ok {
		orderBy = col
	}
	dir := "ASC"
	if filter.SortDir == "desc" {
		dir = "DESC"
	}

	listQuery := fmt.Sprintf(`SELECT * FROM bundles %s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		where, orderBy, dir, argIdx, argIdx+1)
	args = append(args, filter.PerPage, offset)

	var bundles []models.Bundle
	if err := r.db.Select(&bundles, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return bundles, total, nil
}

// GetAggregate loads a bundle with all children as one consistent snapshot.
func (r *BundleRepository) GetAggregate(id int64) (*models.BundleAggregate, error) {
	var b models.Bundle
	err := r.db.Get(&b, `SELECT * FROM bundles WHERE id = $1 AND `+notDeleted, id)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(&b)
}

// GetAggregateBySlug loads a bundle by its storefront slug.
func (r *BundleRepository) GetAggregateBySlug(slug string) (*models.BundleAggregate, error) {
	var b models.Bundle
	err := r.db.Get(&b, `SELECT * FROM bundles WHERE slug = $1 AND `+notDeleted, slug)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(&b)
}

func (r *BundleRepository) loadChildren(b *models.Bundle) (*models.BundleAggregate, error) {
	agg := &models.BundleAggregate{Bundle: *b}

	if err := r.db.Select(&agg.Items,
		`SELECT * FROM bundle_items WHERE bundle_id = $1 ORDER BY sort_order, id`, b.ID); err != nil {
		return nil, err
	}
	if err := r.db.Select(&agg.Images,
		`SELECT * FROM bundle_images WHERE bundle_id = $1 ORDER BY sort_order, id`, b.ID); err != nil {
		return nil, err
	}
	if err := r.db.Select(&agg.Slots,
		`SELECT * FROM bundle_slots WHERE bundle_id = $1 ORDER BY slot_order, id`, b.ID); err != nil {
		return nil, err
	}
	if len(agg.Slots) > 0 {
		slotIDs := make([]int64, len(agg.Slots))
		for i, s := range agg.Slots {
			slotIDs[i] = s.ID
		}
		query, args, err := sqlx.In(
			`SELECT * FROM bundle_slot_products WHERE slot_id IN (?) ORDER BY id`, slotIDs)
		if err != nil {
			return nil, err
		}
		var products []models.BundleSlotProduct
		if err := r.db.Select(&products, r.db.Rebind(query), args...); err != nil {
			return nil, err
		}
		bySlot := make(map[int64][]models.BundleSlotProduct, len(agg.Slots))
		for _, p := range products {
			bySlot[p.SlotID] = append(bySlot[p.SlotID], p)
		}
		for i := range agg.Slots {
			agg.Slots[i].Products = bySlot[agg.Slots[i].ID]
		}
	}
	return agg, nil
}

// Create persists a new bundle with all children in one transaction.
// Partial graphs are never observable: any child insert failure rolls back
// the whole aggregate.
func (r *BundleRepository) Create(agg *models.BundleAggregate) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowx(`
		INSERT INTO bundles (
			name, slug, sku, description, bundle_type, discount_type, discount_value,
			starts_at, ends_at, stock_limit, stock_sold, is_active,
			cart_display, allow_coupon_stacking, show_on_homepage, homepage_position, display_order,
			view_count, add_to_cart_count, purchase_count, revenue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at, updated_at`,
		agg.Name, agg.Slug, agg.SKU, agg.Description, agg.BundleType, agg.DiscountType, agg.DiscountValue,
		agg.StartsAt, agg.EndsAt, agg.StockLimit, agg.StockSold, agg.IsActive,
		agg.CartDisplay, agg.AllowCouponStacking, agg.ShowOnHomepage, agg.HomepagePosition, agg.DisplayOrder,
		agg.ViewCount, agg.AddToCartCount, agg.PurchaseCount, agg.Revenue,
	).Scan(&agg.ID, &agg.CreatedAt, &agg.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err, "bundle")
	}

	if err := insertChildren(tx, agg); err != nil {
		return err
	}
	return tx.Commit()
}

// Update replaces a bundle row and its whole child graph in one transaction.
// The admin payload carries the full aggregate, so children are replaced, not
// merged.
func (r *BundleRepository) Update(agg *models.BundleAggregate) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res := tx.QueryRowx(`
		UPDATE bundles SET
			name = $1, slug = $2, sku = $3, description = $4, bundle_type = $5,
			discount_type = $6, discount_value = $7, starts_at = $8, ends_at = $9,
			stock_limit = $10, is_active = $11, cart_display = $12,
			allow_coupon_stacking = $13, show_on_homepage = $14, homepage_position = $15,
			display_order = $16, updated_at = NOW()
		WHERE id = $17 AND `+notDeleted+`
		RETURNING updated_at`,
		agg.Name, agg.Slug, agg.SKU, agg.Description, agg.BundleType,
		agg.DiscountType, agg.DiscountValue, agg.StartsAt, agg.EndsAt,
		agg.StockLimit, agg.IsActive, agg.CartDisplay,
		agg.AllowCouponStacking, agg.ShowOnHomepage, agg.HomepagePosition,
		agg.DisplayOrder, agg.ID,
	)
	if err := res.Scan(&agg.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return utils.ErrNotFound
		}
		return mapUniqueViolation(err, "bundle")
	}

	// Replace children. Images are managed by their own sub-resource and are
	// left untouched here.
	for _, q := range []string{
		`DELETE FROM bundle_slot_products WHERE slot_id IN (SELECT id FROM bundle_slots WHERE bundle_id = $1)`,
		`DELETE FROM bundle_slots WHERE bundle_id = $1`,
		`DELETE FROM bundle_items WHERE bundle_id = $1`,
	} {
		if _, err := tx.Exec(q, agg.ID); err != nil {
			return err
		}
	}
	if err := insertChildren(tx, agg); err != nil {
		return err
	}
	return tx.Commit()
}

// insertChildren inserts items, slots, and slot products for the aggregate.
// Images are inserted only when present (create and duplicate paths).
func insertChildren(tx *sqlx.Tx, agg *models.BundleAggregate) error {
	for i := range agg.Items {
		item := &agg.Items[i]
		item.BundleID = agg.ID
		err := tx.QueryRowx(`
			INSERT INTO bundle_items (bundle_id, product_id, quantity, price_override, sort_order)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			item.BundleID, item.ProductID, item.Quantity, item.PriceOverride, item.SortOrder,
		).Scan(&item.ID)
		if err != nil {
			return mapUniqueViolation(err, "bundle_item")
		}
	}
	for i := range agg.Slots {
		slot := &agg.Slots[i]
		slot.BundleID = agg.ID
		err := tx.QueryRowx(`
			INSERT INTO bundle_slots (bundle_id, name, description, slot_order, is_required, min_selections, max_selections)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			slot.BundleID, slot.Name, slot.Description, slot.SlotOrder,
			slot.IsRequired, slot.MinSelections, slot.MaxSelections,
		).Scan(&slot.ID)
		if err != nil {
			return err
		}
		for j := range slot.Products {
			p := &slot.Products[j]
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
	}
	for i := range agg.Images {
		img := &agg.Images[i]
		img.BundleID = agg.ID
		err := tx.QueryRowx(`
			INSERT INTO bundle_images (bundle_id, url, is_primary, sort_order)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			img.BundleID, img.URL, img.IsPrimary, img.SortOrder,
		).Scan(&img.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete marks a bundle deleted. Children remain on disk for historical
// order snapshots but are no longer reachable through the aggregate loaders.
func (r *BundleRepository) SoftDelete(id int64) error {
	res, err := r.db.Exec(
		`UPDATE bundles SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND `+notDeleted, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// ToggleActive flips the active flag and returns the new value.
func (r *BundleRepository) ToggleActive(id int64) (bool, error) {
	var active bool
	err := r.db.Get(&active,
		`UPDATE bundles SET is_active = NOT is_active, updated_at = NOW()
		 WHERE id = $1 AND `+notDeleted+` RETURNING is_active`, id)
	if err == sql.ErrNoRows {
		return false, utils.ErrNotFound
	}
	return active, err
}

// BulkSetActive activates or deactivates a set of bundles, returning the
// number of rows affected.
func (r *BundleRepository) BulkSetActive(ids []int64, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		`UPDATE bundles SET is_active = ?, updated_at = NOW() WHERE id IN (?) AND `+notDeleted, active, ids)
	if err != nil {
		return 0, err
	}
	res, err := r.db.Exec(r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkSoftDelete soft-deletes a set of bundles, returning the number affected.
func (r *BundleRepository) BulkSoftDelete(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		`UPDATE bundles SET deleted_at = NOW(), updated_at = NOW() WHERE id IN (?) AND `+notDeleted, ids)
	if err != nil {
		return 0, err
	}
	res, err := r.db.Exec(r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountSlugCollisions counts live bundles whose slug is the base or a
// numeric-suffixed variant of it. Deleted rows are skipped: the partial
// unique index lets a live bundle reuse their slugs. Slugs never contain
// regex metacharacters, so the base splices into the pattern safely.
func (r *BundleRepository) CountSlugCollisions(base string) (int, error) {
	var n int
	err := r.db.Get(&n,
		`SELECT COUNT(1) FROM bundles
		 WHERE (slug = $1 OR slug ~ ('^' || $1 || '-[0-9]+$')) AND `+notDeleted, base)
	return n, err
}

// SKUExists reports whether any bundle (deleted included) uses the SKU.
func (r *BundleRepository) SKUExists(sku string) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM bundles WHERE sku = $1)`, sku)
	return exists, err
}

// RecordView increments the view counter.
func (r *BundleRepository) RecordView(id int64) error {
	return r.bumpCounter(id, "view_count")
}

// RecordAddToCart increments the add-to-cart counter.
func (r *BundleRepository) RecordAddToCart(id int64) error {
	return r.bumpCounter(id, "add_to_cart_count")
}

func (r *BundleRepository) bumpCounter(id int64, column string) error {
	res, err := r.db.Exec(fmt.Sprintf(
		`UPDATE bundles SET %s = %s + 1 WHERE id = $1 AND `+notDeleted, column, column), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// RecordPurchase applies a purchase event: purchase counter, revenue, and the
// stock check-and-increment as a single conditional update. Concurrent
// purchases can never push stock_sold past stock_limit because the guard and
// the increment are one statement.
func (r *BundleRepository) RecordPurchase(id int64, units int, revenue decimal.Decimal) error {
	res, err := r.db.Exec(`
		UPDATE bundles SET
			stock_sold = stock_sold + $2,
			purchase_count = purchase_count + 1,
			revenue = revenue + $3,
			updated_at = NOW()
		WHERE id = $1 AND `+notDeleted+`
		AND (stock_limit IS NULL OR stock_sold + $2 <= stock_limit)`,
		id, units, revenue)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Zero rows: distinguish a missing bundle from exhausted capacity.
	var exists bool
	if err := r.db.Get(&exists,
		`SELECT EXISTS (SELECT 1 FROM bundles WHERE id = $1 AND `+notDeleted+`)`, id); err != nil {
		return err
	}
	if !exists {
		return utils.ErrNotFound
	}
	return utils.ErrCapacityExceeded
}

// GetBundleRow returns the root row without children.
func (r *BundleRepository) GetBundleRow(id int64) (*models.Bundle, error) {
	var b models.Bundle
	err := r.db.Get(&b, `SELECT * FROM bundles WHERE id = $1 AND `+notDeleted, id)
	if err == sql.ErrNoRows {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// mapUniqueViolation converts a Postgres unique violation into the conflict
// taxonomy; other errors pass through unchanged.
func mapUniqueViolation(err error, resource string) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return &utils.ConflictError{Resource: resource, Detail: pqErr.Constraint}
	}
	return err
}
