package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/model"
	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type TagHandler struct {
	tags  *service.TagService
	notes *service.NoteService
}

func NewTagHandler(tags *service.TagService, notes *service.NoteService) *TagHandler {
	return &TagHandler{tags: tags, notes: notes}
}

type tagCreateRequest struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

type tagRenameRequest struct {
	Name string `json:"name"`
}

// Create makes a single tag from name, or with names ensures each listed tag
// exists and returns them all.
func (h *TagHandler) Create(c *gin.Context) {
	var req tagCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	ctx := c.Request.Context()
	if len(req.Names) > 0 {
		tags, err := h.tags.EnsureByNames(ctx, getUserID(c), req.Names)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, tags)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(c, "name required")
		return
	}
	tag, err := h.tags.Create(ctx, getUserID(c), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tag)
}

// List returns every tag, optionally narrowed by a case-insensitive q.
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, filterTags(tags, c.Query("q")))
}

func (h *TagHandler) Rename(c *gin.Context) {
	var req tagRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	tag, err := h.tags.Rename(c.Request.Context(), getUserID(c), c.Param("id"), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.tags.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *TagHandler) Notes(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context(), getUserID(c), service.NoteListInput{
		TagID:  c.Param("id"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, notes)
}

func filterTags(tags []model.Tag, q string) []model.Tag {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return tags
	}
	out := make([]model.Tag, 0, len(tags))
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag.Name), q) {
			out = append(out, tag)
		}
	}
	return out
}
