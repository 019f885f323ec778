package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-assistant/internal/rag"
	"portfolio-assistant/internal/transport/http/response"
)

// SearchHandler exposes the retrieval pipeline for the admin dashboard.
// defaultTopK applies when the request omits top_k.
type SearchHandler struct {
	engine      *rag.Engine
	defaultTopK int
}

func NewSearchHandler(engine *rag.Engine, defaultTopK int) *SearchHandler {
	if defaultTopK <= 0 {
		defaultTopK = rag.DefaultTopK
	}
	return &SearchHandler{engine: engine, defaultTopK: defaultTopK}
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.defaultTopK
	}

	results, err := h.engine.EnhancedSearch(c.Request.Context(), req.Query, topK)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		return
	}
	response.OK(c, results)
}

// Context returns the assembled context and confidence for a query; the
// engine guarantees a valid zero-value shape even when the store is down.
func (h *SearchHandler) Context(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing query")
		return
	}
	response.OK(c, h.engine.RelevantContext(c.Request.Context(), query))
}
