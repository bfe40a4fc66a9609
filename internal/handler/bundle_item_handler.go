package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elektromart/bundle_api/internal/service"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleItemHandler handles fixed-bundle item endpoints.
type BundleItemHandler struct {
	bundleService *service.BundleService
}

// NewBundleItemHandler constructs a BundleItemHandler.
func NewBundleItemHandler(bundleService *service.BundleService) *BundleItemHandler {
	return &BundleItemHandler{bundleService: bundleService}
}

// AddItem handles POST /v1/admin/bundles/:id/items
func (h *BundleItemHandler) AddItem(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	var req service.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	item, err := h.bundleService.AddItem(c.Request.Context(), bundleID, &req)
	if err != nil {
		respondBundleError(c, err, "Failed to add item")
		return
	}
	utils.Success(c, 201, "Item added successfully", item)
}

// UpdateItem handles PUT /v1/admin/bundles/:id/items/:itemId
func (h *BundleItemHandler) UpdateItem(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid item ID")
		return
	}
	var req service.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	item, err := h.bundleService.UpdateItem(c.Request.Context(), bundleID, itemID, &req)
	if err != nil {
		respondBundleError(c, err, "Failed to update item")
		return
	}
	utils.Success(c, 200, "Item updated successfully", item)
}

// RemoveItem handles DELETE /v1/admin/bundles/:id/items/:itemId
func (h *BundleItemHandler) RemoveItem(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid item ID")
		return
	}
	if err := h.bundleService.RemoveItem(c.Request.Context(), bundleID, itemID); err != nil {
		respondBundleError(c, err, "Failed to remove item")
		return
	}
	utils.Success(c, 200, "Item removed successfully", nil)
}
