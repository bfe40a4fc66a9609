package repository

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/elektromart/bundle_api/internal/models"
)

// ProductRepository is the bundle engine's read-only view of the catalog.
// Prices and availability are read live so bundle pricing always reflects the
// current catalog without bundle mutation.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetProduct returns a product by id, or (nil, nil) when it no longer exists.
// A missing product is a data-integrity warning for its referencing bundles,
// not a hard failure.
func (r *ProductRepository) GetProduct(id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.Get(&p, `SELECT * FROM products WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns available products matching the search, for the admin bundle
// editor's item and slot pickers.
func (r *ProductRepository) List(search string, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	where := `WHERE is_available = true`
	args := []interface{}{}
	argIdx := 1
	if search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM products `+where, args...); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT * FROM products %s ORDER BY name LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	var products []models.Product
	if err := r.db.Select(&products, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
