package handler

import (
	"net/http"

	"github.com/gdugdh24/speeddate-backend/internal/usecase/match"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchUseCase *match.MatchUseCase
}

func NewMatchHandler(matchUseCase *match.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

func (h *MatchHandler) pairParams(c *gin.Context) (eventID, userID, targetID uuid.UUID, ok bool) {
	if userID, ok = currentUser(c); !ok {
		return
	}
	if eventID, ok = uuidParam(c, "id"); !ok {
		return
	}
	targetID, ok = uuidParam(c, "user_id")
	return
}

// ExpressInterest handles POST /events/:id/interest/:user_id
// @Summary Express interest
// @Description Record interest in another attendee; the second side makes the match mutual
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Success 200 {object} match.InterestResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /events/{id}/interest/{user_id} [post]
func (h *MatchHandler) ExpressInterest(c *gin.Context) {
	eventID, userID, targetID, ok := h.pairParams(c)
	if !ok {
		return
	}

	result, err := h.matchUseCase.ExpressInterest(c.Request.Context(), eventID, userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// WithdrawInterest handles DELETE /events/:id/interest/:user_id
func (h *MatchHandler) WithdrawInterest(c *gin.Context) {
	eventID, userID, targetID, ok := h.pairParams(c)
	if !ok {
		return
	}

	m, err := h.matchUseCase.WithdrawInterest(c.Request.Context(), eventID, userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// DeclineInterest handles POST /events/:id/decline/:user_id
func (h *MatchHandler) DeclineInterest(c *gin.Context) {
	eventID, userID, targetID, ok := h.pairParams(c)
	if !ok {
		return
	}

	m, err := h.matchUseCase.DeclineInterest(c.Request.Context(), eventID, userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// ListMutual handles GET /matches
func (h *MatchHandler) ListMutual(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.matchUseCase.ListMutualMatches(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}

// GetMatch handles GET /matches/:id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	matchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.matchUseCase.GetMatch(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListPending handles GET /matches/pending
func (h *MatchHandler) ListPending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.matchUseCase.ListPendingInterests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}

// PendingCount handles GET /matches/pending/count
func (h *MatchHandler) PendingCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.matchUseCase.PendingInterestCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": n})
}
