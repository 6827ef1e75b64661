package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborview/homehub/internal/config"
)

// Presigner hands out upload URLs; see storage.MediaStore.
type Presigner interface {
	PresignUpload(ctx context.Context, contentType string) (key, uploadURL, publicURL string, err error)
}

type UploadsHandler struct {
	media Presigner
}

func NewUploadsHandler(media Presigner) *UploadsHandler {
	return &UploadsHandler{media: media}
}

type PresignRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// Presign returns a short-lived PUT URL for one listing image. The client
// uploads directly to object storage and stores the public URL on the
// listing.
func (h *UploadsHandler) Presign(ctx *gin.Context) {
	var req PresignRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !strings.HasPrefix(req.ContentType, "image/") {
		RespondBadRequest(ctx, "contentType must be an image type", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	key, uploadURL, publicURL, err := h.media.PresignUpload(cctx, req.ContentType)

	if err != nil {
		RespondInternal(ctx, "Could not create upload URL")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"key":       key,
		"uploadUrl": uploadURL,
		"publicUrl": publicURL,
	})
}
