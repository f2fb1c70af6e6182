package handler

import (
	"net/http"

	"github.com/gdugdh24/speeddate-backend/internal/usecase/conversation"
	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	conversationUseCase *conversation.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *conversation.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

// SendMessage handles POST /matches/:id/messages
// @Summary Send message
// @Description Append a message to a mutual match. A repeated client_token returns the stored message.
// @Tags conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body conversation.SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req conversation.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	msg, err := h.conversationUseCase.SendMessage(c.Request.Context(), matchID, userID, req.Content, req.ClientToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /matches/:id/messages?after=&limit=
// Without paging parameters the whole thread is returned. A paged response
// carries next_after, the cursor for the following page.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	_, hasAfter := c.GetQuery("after")
	_, hasLimit := c.GetQuery("limit")
	if !hasAfter && !hasLimit {
		msgs, err := h.conversationUseCase.ListMessages(c.Request.Context(), matchID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
		return
	}

	after, ok := intQuery(c, "after", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", conversation.DefaultPageSize)
	if !ok {
		return
	}

	msgs, err := h.conversationUseCase.ListMessagesPage(c.Request.Context(), matchID, userID, int64(after), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	next := int64(after)
	if len(msgs) > 0 {
		next = msgs[len(msgs)-1].Seq
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "next_after": next})
}

// MarkRead handles POST /matches/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := h.conversationUseCase.MarkRead(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// Open handles POST /matches/:id/open
func (h *ConversationHandler) Open(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	msgs, err := h.conversationUseCase.OpenConversation(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ListConversations handles GET /conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := h.conversationUseCase.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// UnreadTotal handles GET /conversations/unread
func (h *ConversationHandler) UnreadTotal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.conversationUseCase.UnreadTotal(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": n})
}
