package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type ConversationHandler struct {
	convs *service.ConversationService
}

func NewConversationHandler(convs *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convs: convs}
}

type conversationCreateRequest struct {
	Title  string `json:"title"`
	NoteID string `json:"note_id"`
}

type conversationRenameRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Content string `json:"content"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req conversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	conv, err := h.convs.Create(c.Request.Context(), getUserID(c), req.Title, req.NoteID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	items, err := h.convs.List(c.Request.Context(), getUserID(c), c.Query("note_id"), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.convs.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) Rename(c *gin.Context) {
	var req conversationRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	conv, err := h.convs.Rename(c.Request.Context(), getUserID(c), c.Param("id"), req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.convs.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

// Send stores the message and returns right away; the reply is picked up
// through Poll.
func (h *ConversationHandler) Send(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := h.convs.Send(c.Request.Context(), getUserID(c), c.Param("id"), req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ConversationHandler) Poll(c *gin.Context) {
	poll, err := h.convs.Poll(c.Request.Context(), getUserID(c), c.Param("id"), queryInt64(c, "after", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, poll)
}

// Stream answers over server-sent events: "delta" events carry text chunks,
// then one "done" event carries the stored item, or "error" on failure.
// Errors raised before the first chunk are returned as a normal envelope.
func (h *ConversationHandler) Stream(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
	}
	item, err := h.convs.Stream(c.Request.Context(), getUserID(c), c.Param("id"), req.Content, func(delta string) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		start()
		c.SSEvent("delta", gin.H{"text": delta})
		c.Writer.Flush()
		return nil
	})
	if err != nil && !started {
		handleError(c, err)
		return
	}
	start()
	if err != nil {
		code, msg := classifyError(err)
		c.SSEvent("error", gin.H{"code": code, "msg": msg, "item": item})
	} else {
		c.SSEvent("done", item)
	}
	c.Writer.Flush()
}
