package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type noteCreateRequest struct {
	NotebookID string   `json:"notebook_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	TagIDs     []string `json:"tag_ids"`
	TagNames   []string `json:"tag_names"`
	Pinned     bool     `json:"pinned"`
}

type noteUpdateRequest struct {
	NotebookID *string  `json:"notebook_id"`
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	TagIDs     []string `json:"tag_ids"`
	TagNames   []string `json:"tag_names"`
}

type notePinRequest struct {
	Pinned bool `json:"pinned"`
}

type noteTagsRequest struct {
	TagIDs   []string `json:"tag_ids"`
	TagNames []string `json:"tag_names"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req noteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	note, err := h.notes.Create(c.Request.Context(), getUserID(c), service.NoteCreateInput{
		NotebookID: req.NotebookID,
		Title:      req.Title,
		Content:    req.Content,
		TagIDs:     req.TagIDs,
		TagNames:   req.TagNames,
		Pinned:     req.Pinned,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context(), getUserID(c), service.NoteListInput{
		NotebookID: c.Query("notebook_id"),
		TagID:      c.Query("tag_id"),
		Pinned:     queryBool(c, "pinned"),
		Limit:      queryInt(c, "limit", 0),
		Offset:     queryInt(c, "offset", 0),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, notes)
}

func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req noteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	note, err := h.notes.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.NoteUpdateInput{
		NotebookID: req.NotebookID,
		Title:      req.Title,
		Content:    req.Content,
		TagIDs:     req.TagIDs,
		TagNames:   req.TagNames,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Pin(c *gin.Context) {
	var req notePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if err := h.notes.SetPinned(c.Request.Context(), getUserID(c), c.Param("id"), req.Pinned); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *NoteHandler) SetTags(c *gin.Context) {
	var req noteTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	note, err := h.notes.SetTags(c.Request.Context(), getUserID(c), c.Param("id"), req.TagIDs, req.TagNames)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *NoteHandler) Export(c *gin.Context) {
	data, name, err := h.notes.Export(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}

func (h *NoteHandler) HTML(c *gin.Context) {
	html, err := h.notes.RenderHTML(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"html": html})
}
