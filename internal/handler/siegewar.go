package handler

import (
	"net/http"

	"clan-hub/internal/model"
	"clan-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type SiegeWarHandler struct{ svc *service.SiegeWarService }

func NewSiegeWarHandler(svc *service.SiegeWarService) *SiegeWarHandler {
	return &SiegeWarHandler{svc: svc}
}

// GET /api/siege-war/current
func (h *SiegeWarHandler) Current(c *gin.Context) {
	war, resp, err := h.svc.Current(c.Request.Context(), c.GetInt("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"siegeWar": war, "userResponse": resp})
}

// POST /api/siege-war
func (h *SiegeWarHandler) Create(c *gin.Context) {
	war, err := h.svc.ManualOpen(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"siegeWar": war})
}

// POST /api/siege-war/:id/respond
func (h *SiegeWarHandler) Respond(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req model.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	resp, err := h.svc.SubmitResponse(c.Request.Context(), id, c.GetInt("user_id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": resp})
}

// GET /api/siege-war/:id/responses
func (h *SiegeWarHandler) Responses(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	report, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/siege-war/:id/available-shares
func (h *SiegeWarHandler) AvailableShares(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	shares, err := h.svc.AvailableShares(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availableShares": shares})
}

// POST /api/siege-war/:id/close
func (h *SiegeWarHandler) Close(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	war, err := h.svc.ManualClose(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"siegeWar": war})
}

// GET /api/siege-war/history
func (h *SiegeWarHandler) History(c *gin.Context) {
	wars, err := h.svc.History(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"siegeWars": wars})
}
