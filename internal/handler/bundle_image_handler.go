package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/elektromart/bundle_api/internal/service"
	"github.com/elektromart/bundle_api/internal/utils"
)

// 5MB per file keeps uploads within the object store request limits.
const maxImageSize = 5 << 20

// BundleImageHandler handles bundle image upload and management endpoints.
type BundleImageHandler struct {
	imageService *service.ImageService
}

// NewBundleImageHandler constructs a BundleImageHandler.
func NewBundleImageHandler(imageService *service.ImageService) *BundleImageHandler {
	return &BundleImageHandler{imageService: imageService}
}

// Upload handles POST /v1/admin/bundles/:id/images (multipart, field "images")
func (h *BundleImageHandler) Upload(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid multipart form")
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "No images provided")
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageSize {
			utils.Error(c, 400, "FILE_TOO_LARGE", "Image exceeds 5MB limit")
			return
		}
		f, err := fh.Open()
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Failed to read uploaded file")
			return
		}
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	images, err := h.imageService.Upload(c.Request.Context(), bundleID, files)
	if err != nil {
		respondBundleError(c, err, "Failed to upload images")
		return
	}
	utils.Success(c, 201, "Images uploaded successfully", images)
}

// SetPrimary handles POST /v1/admin/bundles/:id/images/:imageId/primary
func (h *BundleImageHandler) SetPrimary(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	imageID, err := parseID(c, "imageId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid image ID")
		return
	}
	if err := h.imageService.SetPrimary(c.Request.Context(), bundleID, imageID); err != nil {
		respondBundleError(c, err, "Failed to set primary image")
		return
	}
	utils.Success(c, 200, "Primary image updated", nil)
}

// Delete handles DELETE /v1/admin/bundles/:id/images/:imageId
func (h *BundleImageHandler) Delete(c *gin.Context) {
	bundleID, err := parseID(c, "id")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid bundle ID")
		return
	}
	imageID, err := parseID(c, "imageId")
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid image ID")
		return
	}
	if err := h.imageService.Delete(c.Request.Context(), bundleID, imageID); err != nil {
		respondBundleError(c, err, "Failed to delete image")
		return
	}
	utils.Success(c, 200, "Image deleted successfully", nil)
}
