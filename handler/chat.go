package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/si451/creatorconnect/backend/middleware"
	"github.com/si451/creatorconnect/backend/model"
	"github.com/si451/creatorconnect/backend/pkg/logger"
	"github.com/si451/creatorconnect/backend/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type OpenSessionRequest struct {
	CreatorUsername string `json:"creator_username" binding:"required"`
	Platform        string `json:"platform"`
}

type SendMessageRequest struct {
	Message        string               `json:"message" binding:"required"`
	CreatorDetails model.CreatorDetails `json:"creator_details"`
}

// OpenSession returns the chat session for (tenant, creator), creating and
// persisting one on first contact. The same pair always maps to the same
// session id.
func (h *ChatHandler) OpenSession(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "creator_username is required"})
		return
	}

	sess, err := h.chat.OpenSession(c.Request.Context(), tenant, req.CreatorUsername, req.Platform)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to open session",
			"creator_username", req.CreatorUsername,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":       sess.ID,
		"creator_username": sess.CreatorUsername,
		"platform":         sess.Platform,
	})
}

// GetMessages refreshes the transcript from the negotiation backend and
// returns it. When the refresh fails the cached transcript is returned
// unchanged, so a flaky upstream never wipes what the user already sees.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	sess := h.ownedSession(c)
	if sess == nil {
		return
	}

	history, err := h.chat.LoadHistory(c.Request.Context(), sess)
	if err != nil {
		logger.Warn(c.Request.Context(), "failed to refresh chat history",
			"session_id", sess.ID,
			"error", err,
		)
		history = h.chat.History(sess.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"messages":   history,
		"rendered":   renderAll(history),
	})
}

// SendMessage posts one chat turn. The response always carries the full
// transcript: the server-returned history on success, or the optimistic
// user message plus a synthetic assistant error entry on failure.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	sess := h.ownedSession(c)
	if sess == nil {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	creator := req.CreatorDetails
	if creator.Username == "" {
		creator.Username = sess.CreatorUsername
		creator.Platform = sess.Platform
	}

	history, err := h.chat.SendMessage(c.Request.Context(), sess, req.Message, creator)

	resp := gin.H{
		"session_id": sess.ID,
		"messages":   history,
		"rendered":   renderAll(history),
	}
	if err != nil {
		logger.Error(c.Request.Context(), "chat turn failed",
			"session_id", sess.ID,
			"error", err,
		)
		resp["error"] = "Negotiation service unavailable"
	}

	c.JSON(http.StatusOK, resp)
}

// ClearMessages deletes the remote transcript and empties the local cache.
// The session id is retained, so the next message continues under the same
// session.
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	sess := h.ownedSession(c)
	if sess == nil {
		return
	}

	if err := h.chat.ClearHistory(c.Request.Context(), sess); err != nil {
		logger.Error(c.Request.Context(), "failed to clear chat history",
			"session_id", sess.ID,
			"error", err,
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to clear chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"message":    "Chat history cleared",
	})
}

// ownedSession resolves the :id param to a session owned by the caller's
// tenant. Sessions of other tenants are indistinguishable from missing ones.
func (h *ChatHandler) ownedSession(c *gin.Context) *service.Session {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	sess := h.chat.Session(id)
	if sess == nil || sess.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return sess
}

func renderAll(messages []model.Message) []model.RenderedMessage {
	rendered := make([]model.RenderedMessage, len(messages))
	for i, m := range messages {
		rendered[i] = model.RenderMessage(m)
	}
	return rendered
}
