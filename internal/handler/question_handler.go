package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/response"
	"github.com/xxxsen/griffin/internal/service"
)

type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type questionCreateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type questionUpdateRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

type questionGenerateRequest struct {
	Count int `json:"count"`
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req questionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.questions.Create(c.Request.Context(), getUserID(c), c.Param("id"), req.Question, req.Answer)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *QuestionHandler) List(c *gin.Context) {
	items, err := h.questions.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	var req questionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	item, err := h.questions.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.QuestionUpdateInput{
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	ok(c)
}

func (h *QuestionHandler) Generate(c *gin.Context) {
	var req questionGenerateRequest
	// an empty body means the default count
	_ = c.ShouldBindJSON(&req)
	items, err := h.questions.Generate(c.Request.Context(), getUserID(c), c.Param("id"), req.Count)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}
