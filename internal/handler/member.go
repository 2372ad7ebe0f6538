package handler

import (
	"net/http"

	"clan-hub/internal/model"
	"clan-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct{ svc *service.MemberService }

func NewMemberHandler(svc *service.MemberService) *MemberHandler { return &MemberHandler{svc: svc} }

// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.svc.Roster(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GET /api/members/pending
func (h *MemberHandler) Pending(c *gin.Context) {
	members, err := h.svc.Pending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// POST /api/members/:id/approve
func (h *MemberHandler) Approve(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m})
}

// POST /api/members/:id/reject
func (h *MemberHandler) Reject(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := h.svc.Reject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": m})
}

// PUT /api/me/push-token  body: {"token":"..."}
func (h *MemberHandler) PushToken(c *gin.Context) {
	var req model.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.svc.SetPushToken(c.Request.Context(), c.GetInt("user_id"), req.Token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
