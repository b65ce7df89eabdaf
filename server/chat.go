package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/retrieval"
)

type chatRequest struct {
	ConversationId core.ID                    `json:"conversationId"`
	Message        string                     `json:"message"`
	Sources        *retrieval.SourceSelection `json:"sources"`
}

type chatResponse struct {
	ConversationId core.ID `json:"conversationId"`
	Reply          string  `json:"reply"`
	ContextUsed    bool    `json:"contextUsed"`
}

type messageResponse struct {
	Id        core.ID   `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// handleChat runs one conversation turn. conversationId 0 (or omitted)
// starts a new conversation.
func (s *Server) handleChat(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "invalid request body",
		})
		return
	}

	reply, err := s.orchestrator.SendMessage(c.Request.Context(), req.ConversationId, userId, req.Message, req.Sources)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationId: reply.ConversationId,
		Reply:          reply.AssistantMessage.Content,
		ContextUsed:    reply.ContextUsed,
	})
}

func (s *Server) handleGetConversation(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	conv, err := s.convs.GetConversation(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if conv.OwnerId != userId {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
		return
	}

	msgs, err := s.convs.GetMessages(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]messageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = messageResponse{
			Id:        msg.Id,
			Role:      msg.Role.String(),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       conv.Id,
		"title":    conv.Title,
		"messages": out,
	})
}
