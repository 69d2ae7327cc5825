package handler

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/errcode"
	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type MediaHandler struct {
	media    *service.MediaService
	maxBytes int64
}

func NewMediaHandler(media *service.MediaService, maxBytes int64) *MediaHandler {
	return &MediaHandler{media: media, maxBytes: maxBytes}
}

type speechRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	NoteID string `json:"note_id"`
}

func (h *MediaHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		// multipart framing needs some room on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large, limit is "+formatUploadLimit(h.maxBytes))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffContentType(opened)
	}
	transcribe, _ := strconv.ParseBool(c.PostForm("transcribe"))
	item, err := h.media.Upload(c.Request.Context(), getUserID(c), service.MediaUploadInput{
		NoteID:      c.PostForm("note_id"),
		Filename:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Reader:      opened,
		Transcribe:  transcribe,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *MediaHandler) Get(c *gin.Context) {
	item, err := h.media.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *MediaHandler) Content(c *gin.Context) {
	item, rc, err := h.media.Open(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(item.Filename))
	c.DataFromReader(http.StatusOK, item.Size, item.ContentType, rc, nil)
}

func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.media.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *MediaHandler) Speech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.media.Speech(c.Request.Context(), getUserID(c), service.SpeechInput{
		NoteID: req.NoteID,
		Text:   req.Text,
		Voice:  req.Voice,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *MediaHandler) Transcribe(c *gin.Context) {
	item, err := h.media.Transcribe(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func sniffContentType(r io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := io.ReadFull(r, buf)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
