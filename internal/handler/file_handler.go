package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/service"
)

// FileHandler serves raw objects of the local file store. Objects in S3 are
// reached through /media/:id/content instead.
type FileHandler struct {
	media *service.MediaService
}

func NewFileHandler(media *service.MediaService) *FileHandler {
	return &FileHandler{media: media}
}

func (h *FileHandler) Get(c *gin.Context) {
	if h.media.StoreType() != "local" {
		c.Status(http.StatusNotFound)
		return
	}
	item, rc, err := h.media.OpenByKey(c.Request.Context(), getUserID(c), c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "private, max-age=3600")
	c.DataFromReader(http.StatusOK, item.Size, item.ContentType, rc, nil)
}
