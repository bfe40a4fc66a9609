package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elektromart/bundle_api/internal/repository"
	"github.com/elektromart/bundle_api/internal/service"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleHandler handles bundle CRUD, lifecycle, and storefront HTTP endpoints.
type BundleHandler struct {
	bundleService    *service.BundleService
	analyticsService *service.AnalyticsService
}

// NewBundleHandler constructs a BundleHandler.
func NewBundleHandler(bundleService *service.BundleService, analyticsService *service.AnalyticsService) *BundleHandler {
	return &BundleHandler{bundleService: bundleService, analyticsService: analyticsService}
}

// ListBundles handles GET /v1/admin/bundles
func (h *BundleHandler) ListBundles(c *gin.Context) {
	filter := &repository.BundleFilter{
		Search:           c.Query("search"),
		BundleType:       c.Query("bundleType"),
		HomepagePosition: c.Query("homepagePosition"),
		SortBy:           c.Query("sortBy"),
		SortDir:          c.Query("sortDir"),
		Page:             1,
		PerPage:          20,
	}
	if v := c.Query("isActive"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	if v := c.Query("availableOnly"); v == "true" {
		filter.AvailableOnly = true
	}
	if v := c.Query("createdFrom"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if v := c.Query("createdTo"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = &t
		}
	}
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			filter.Page = p
		}
	}
	if v := c.Query("perPage"); v != "" {
		if pp, err := strconv.Atoi(v); err == nil {
			filter.PerPage = pp
		}
	}

	bundles, total, err := h.bundleService.ListBundles(filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve bundles")
		return
	}
	utils.SuccessWithPagination(c, 200, "Bundles retrieved", bundles, filter.Page, filter.PerPage, total)
}

// GetBundle handles GET /v1/admin/bundles/:id
func (h *BundleHandler) GetBundle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	view, err := h.bundleService.GetBundle(id)
	if err != nil {
		respondBundleError(c, err, "Failed to retrieve bundle")
		return
	}
	utils.Success(c, 200, "Bundle retrieved", view)
}

// CreateBundle handles POST /v1/admin/bundles
func (h *BundleHandler) CreateBundle(c *gin.Context) {
	var req service.SaveBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	view, err := h.bundleService.CreateBundle(c.Request.Context(), &req)
	if err != nil {
		respondBundleError(c, err, "Failed to create bundle")
		return
	}
	utils.Success(c, 201, "Bundle created successfully", view)
}

// UpdateBundle handles PUT /v1/admin/bundles/:id
func (h *BundleHandler) UpdateBundle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	var req service.SaveBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	view, err := h.bundleService.UpdateBundle(c.Request.Context(), id, &req)
	if err != nil {
		respondBundleError(c, err, "Failed to update bundle")
		return
	}
	utils.Success(c, 200, "Bundle updated successfully", view)
}

// DeleteBundle handles DELETE /v1/admin/bundles/:id
func (h *BundleHandler) DeleteBundle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	if err := h.bundleService.DeleteBundle(c.Request.Context(), id); err != nil {
		respondBundleError(c, err, "Failed to delete bundle")
		return
	}
	utils.Success(c, 200, "Bundle deleted successfully", nil)
}

// DuplicateBundle handles POST /v1/admin/bundles/:id/duplicate
func (h *BundleHandler) DuplicateBundle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	view, err := h.bundleService.DuplicateBundle(c.Request.Context(), id)
	if err != nil {
		respondBundleError(c, err, "Failed to duplicate bundle")
		return
	}
	utils.Success(c, 201, "Bundle duplicated successfully", view)
}

// ToggleBundle handles POST /v1/admin/bundles/:id/toggle
func (h *BundleHandler) ToggleBundle(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	active, err := h.bundleService.ToggleActive(c.Request.Context(), id)
	if err != nil {
		respondBundleError(c, err, "Failed to toggle bundle")
		return
	}
	utils.Success(c, 200, "Bundle toggled", gin.H{"isActive": active})
}

// BulkAction handles POST /v1/admin/bundles/bulk
func (h *BundleHandler) BulkAction(c *gin.Context) {
	var req struct {
		Action string  `json:"action" binding:"required"`
		IDs    []int64 `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	affected, err := h.bundleService.BulkAction(c.Request.Context(), req.Action, req.IDs)
	if err != nil {
		respondBundleError(c, err, "Failed to apply bulk action")
		return
	}
	utils.Success(c, 200, "Bulk action applied", gin.H{"affected": affected})
}

// GetAnalytics handles GET /v1/admin/bundles/:id/analytics
func (h *BundleHandler) GetAnalytics(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	breakdown, pricing, err := h.analyticsService.Breakdown(id)
	if err != nil {
		respondBundleError(c, err, "Failed to retrieve analytics")
		return
	}
	utils.Success(c, 200, "Analytics retrieved", gin.H{
		"analytics": breakdown,
		"pricing":   pricing,
	})
}

// ListAvailable handles GET /v1/bundles (storefront)
func (h *BundleHandler) ListAvailable(c *gin.Context) {
	filter := &repository.BundleFilter{
		Search:        c.Query("search"),
		AvailableOnly: true,
		Page:          1,
		PerPage:       20,
	}
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			filter.Page = p
		}
	}
	bundles, total, err := h.bundleService.ListBundles(filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve bundles")
		return
	}
	utils.SuccessWithPagination(c, 200, "Bundles retrieved", bundles, filter.Page, filter.PerPage, total)
}

// GetBySlug handles GET /v1/bundles/:slug (storefront, records a view)
func (h *BundleHandler) GetBySlug(c *gin.Context) {
	view, err := h.bundleService.GetStorefrontBundle(c.Param("slug"))
	if err != nil {
		respondBundleError(c, err, "Failed to retrieve bundle")
		return
	}
	utils.Success(c, 200, "Bundle retrieved", view)
}

// ResolveSelection handles POST /v1/bundles/:slug/resolve (add-to-cart)
func (h *BundleHandler) ResolveSelection(c *gin.Context) {
	var req struct {
		Selections map[int64][]int64 `json:"selections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	resolved, err := h.bundleService.ResolveForCart(c.Request.Context(), c.Param("slug"), req.Selections)
	if err != nil {
		respondBundleError(c, err, "Failed to resolve selection")
		return
	}
	utils.Success(c, 200, "Selection resolved", resolved)
}

// RecordPurchase handles POST /v1/bundles/:slug/purchase
func (h *BundleHandler) RecordPurchase(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := h.analyticsService.RecordPurchase(c.Request.Context(), c.Param("slug"), req.Units, req.Revenue); err != nil {
		respondBundleError(c, err, "Failed to record purchase")
		return
	}
	utils.Success(c, 200, "Purchase recorded", nil)
}

// parseID parses a path parameter as an int64 id.
func parseID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// respondBundleError maps the engine's error taxonomy onto HTTP responses.
func respondBundleError(c *gin.Context, err error, fallback string) {
	var (
		validationErrs utils.ValidationErrors
		selectionErr   utils.SelectionError
		conflictErr    *utils.ConflictError
	)
	switch {
	case errors.As(err, &validationErrs):
		utils.ErrorWithViolations(c, 422, "VALIDATION_FAILED", "Validation failed", validationErrs)
	case errors.As(err, &selectionErr):
		utils.ErrorWithViolations(c, 422, "INVALID_SELECTION", "Selection violates slot constraints", selectionErr)
	case errors.As(err, &conflictErr):
		utils.Error(c, 409, "CONFLICT", conflictErr.Error())
	case errors.Is(err, utils.ErrCapacityExceeded):
		utils.Error(c, 409, "SOLD_OUT", "Bundle stock limit reached")
	case errors.Is(err, utils.ErrBundleInactive):
		utils.Error(c, 409, "BUNDLE_NOT_AVAILABLE", "Bundle is not available for purchase")
	case errors.Is(err, utils.ErrConflict):
		utils.Error(c, 409, "CONFLICT", err.Error())
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, 404, "NOT_FOUND", "Resource not found")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", fallback)
	}
}
