package handler

import (
	"net/http"

	"github.com/gdugdh24/speeddate-backend/internal/usecase/event"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/feed"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventUseCase *event.EventUseCase
	feedUseCase  *feed.FeedUseCase
}

func NewEventHandler(eventUseCase *event.EventUseCase, feedUseCase *feed.FeedUseCase) *EventHandler {
	return &EventHandler{
		eventUseCase: eventUseCase,
		feedUseCase:  feedUseCase,
	}
}

// ListUpcoming handles GET /events?limit=
func (h *EventHandler) ListUpcoming(c *gin.Context) {
	limit, ok := intQuery(c, "limit", event.DefaultUpcomingLimit)
	if !ok {
		return
	}

	events, err := h.eventUseCase.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent handles GET /events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.eventUseCase.GetEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Register handles POST /events/:id/register
func (h *EventHandler) Register(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	reg, err := h.eventUseCase.Register(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reg)
}

// CancelRegistration handles DELETE /events/:id/register
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventUseCase.CancelRegistration(c.Request.Context(), eventID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRegistration handles GET /events/:id/registration
func (h *EventHandler) GetRegistration(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	reg, err := h.eventUseCase.GetRegistration(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// Attendees handles GET /events/:id/attendees
func (h *EventHandler) Attendees(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eventID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	attendees, err := h.feedUseCase.Attendees(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendees": attendees})
}
