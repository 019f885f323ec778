package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio-assistant/internal/app"
	"portfolio-assistant/internal/transport/http/response"
)

type ChatHandler struct {
	assistant *app.AssistantService
}

func NewChatHandler(assistant *app.AssistantService) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

type CreateConversationRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
	Title     string `json:"title" binding:"max=128"`
}

type SendMessageRequest struct {
	VisitorID      string `json:"visitor_id" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	conv, err := h.assistant.CreateConversation(c.Request.Context(), app.CreateConversationInput{
		VisitorID: req.VisitorID,
		Title:     req.Title,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create conversation failed")
		}
		return
	}
	response.OK(c, conv)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	visitorID := c.Query("visitor_id")
	if visitorID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing visitor_id")
		return
	}
	conversations, err := h.assistant.ListConversations(c.Request.Context(), visitorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, conversations)
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	visitorID := c.Query("visitor_id")
	conversationID := c.Param("id")
	err := h.assistant.DeleteConversation(c.Request.Context(), visitorID, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": conversationID})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.assistant.SendMessage(c.Request.Context(), app.SendMessageInput{
		VisitorID:      req.VisitorID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	})
	if err != nil {
		h.writeChatError(c, err)
		return
	}
	response.OK(c, result)
}

// StreamMessage answers over SSE: content deltas as "message" events, then a
// terminal "done" event.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "streaming unsupported")
		return
	}

	_, err := h.assistant.StreamMessage(c.Request.Context(), app.SendMessageInput{
		VisitorID:      req.VisitorID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	}, func(chunk string) error {
		c.SSEvent("message", chunk)
		flusher.Flush()
		return nil
	})
	if err != nil {
		c.SSEvent("error", err.Error())
		flusher.Flush()
		return
	}
	c.SSEvent("done", "")
	flusher.Flush()
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	visitorID := c.Query("visitor_id")
	conversationID := c.Query("conversation_id")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.assistant.GetHistory(c.Request.Context(), visitorID, conversationID, limit)
	if err != nil {
		h.writeChatError(c, err)
		return
	}
	response.OK(c, messages)
}

func (h *ChatHandler) writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer,
			fmt.Sprintf("chat request failed: %v", err))
	}
}
