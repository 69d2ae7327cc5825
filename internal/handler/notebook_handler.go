package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type NotebookHandler struct {
	notebooks *service.NotebookService
}

func NewNotebookHandler(notebooks *service.NotebookService) *NotebookHandler {
	return &NotebookHandler{notebooks: notebooks}
}

type notebookCreateRequest struct {
	Title    string `json:"title"`
	ParentID string `json:"parent_id"`
}

type notebookUpdateRequest struct {
	Title    *string `json:"title"`
	ParentID *string `json:"parent_id"`
}

func (h *NotebookHandler) Create(c *gin.Context) {
	var req notebookCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	nb, err := h.notebooks.Create(c.Request.Context(), getUserID(c), req.Title, req.ParentID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nb)
}

func (h *NotebookHandler) List(c *gin.Context) {
	items, err := h.notebooks.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *NotebookHandler) Get(c *gin.Context) {
	nb, err := h.notebooks.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nb)
}

func (h *NotebookHandler) Update(c *gin.Context) {
	var req notebookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	nb, err := h.notebooks.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.NotebookUpdateInput{
		Title:    req.Title,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nb)
}

func (h *NotebookHandler) Delete(c *gin.Context) {
	if err := h.notebooks.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *NotebookHandler) Notes(c *gin.Context) {
	notes, err := h.notebooks.ListNotes(c.Request.Context(), getUserID(c), c.Param("id"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, notes)
}
