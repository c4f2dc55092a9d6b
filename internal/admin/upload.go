package admin

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/pkg/response"
	"github.com/aura-webinar/storefront/pkg/storage"
)

// Upload handles POST /admin/uploads (multipart: file, folder).
func (h *Handler) Upload(c *gin.Context) {
	if h.uploads == nil {
		response.ServiceUnavailable(c, "file storage is not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	ct := file.Header.Get("Content-Type")
	if !storage.ValidateUploadType(ct, file.Filename) {
		response.BadRequest(c, "invalid file type: only images (jpg, png, webp, gif) and pdf allowed")
		return
	}
	contentType := storage.ContentTypeForFilename(file.Filename)
	if _, ok := storage.AllowedUploadTypes[ct]; ok {
		contentType = ct
	}

	key := storage.UploadKey(c.PostForm("folder"), file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	url, err := h.uploads.Upload(c.Request.Context(), h.uploads.UploadsBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}
	response.Created(c, gin.H{"url": url, "key": key, "content_type": contentType, "size": file.Size})
}
