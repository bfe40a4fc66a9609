package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elektromart/bundle_api/internal/service"
	"github.com/elektromart/bundle_api/internal/utils"
)

// BundleSlotHandler handles configurable-bundle slot endpoints.
type BundleSlotHandler struct {
	bundleService *service.BundleService
}

// NewBundleSlotHandler constructs a BundleSlotHandler.
func NewBundleSlotHandler(bundleService *service.BundleService) *BundleSlotHandler {
	return &BundleSlotHandler{bundleService: bundleService}
}

// AddSlot handles POST /v1/admin/bundles/:id/slots
func (h *BundleSlotHandler) AddSlot(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	var req service.BundleSlotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	slot, err := h.bundleService.AddSlot(c.Request.Context(), bundleID, &req)
	if err != nil {
		respondBundleError(c, err, "Failed to add slot")
		return
	}
	utils.Success(c, 201, "Slot added successfully", slot)
}

// UpdateSlot handles PUT /v1/admin/bundles/:id/slots/:slotId
func (h *BundleSlotHandler) UpdateSlot(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	slotID, err := parseID(c, "slotId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid slot ID")
		return
	}
	var req service.BundleSlotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	slot, err := h.bundleService.UpdateSlot(c.Request.Context(), bundleID, slotID, &req)
	if err != nil {
		respondBundleError(c, err, "Failed to update slot")
		return
	}
	utils.Success(c, 200, "Slot updated successfully", slot)
}

// RemoveSlot handles DELETE /v1/admin/bundles/:id/slots/:slotId
func (h *BundleSlotHandler) RemoveSlot(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	slotID, err := parseID(c, "slotId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid slot ID")
		return
	}
	if err := h.bundleService.RemoveSlot(c.Request.Context(), bundleID, slotID); err != nil {
		respondBundleError(c, err, "Failed to remove slot")
		return
	}
	utils.Success(c, 200, "Slot removed successfully", nil)
}
