package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elektromart/bundle_api/internal/repository"
	"github.com/elektromart/bundle_api/internal/utils"
)

// ProductHandler serves the admin product picker used by the bundle editor.
type ProductHandler struct {
	productRepo *repository.ProductRepository
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productRepo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

// List handles GET /v1/admin/products
func (h *ProductHandler) List(c *gin.Context) {
	page := 1
	limit := 50
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}
	if v := c.Query("perPage"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}

	products, total, err := h.productRepo.List(c.Query("search"), page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve products")
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved", products, page, limit, total)
}
