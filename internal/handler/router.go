package handler

import (
	"net/http"

	"clan-hub/internal/logger"
	"clan-hub/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *AuthHandler
	Members  *MemberHandler
	SiegeWar *SiegeWarHandler
}

// NewRouter wires every route. metrics may be nil.
func NewRouter(h Handlers, tokens *middleware.Tokens, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-New-Token"},
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	r.POST("/api/login", h.Auth.Login)
	r.POST("/api/register", h.Auth.Register)

	api := r.Group("/api", middleware.JWTAuth(tokens))
	leader := middleware.RequireLeader()

	api.GET("/members", h.Members.List)
	api.GET("/members/pending", leader, h.Members.Pending)
	api.POST("/members/:id/approve", leader, h.Members.Approve)
	api.POST("/members/:id/reject", leader, h.Members.Reject)
	api.PUT("/me/push-token", h.Members.PushToken)

	api.GET("/siege-war/current", h.SiegeWar.Current)
	api.GET("/siege-war/history", h.SiegeWar.History)
	api.POST("/siege-war", leader, h.SiegeWar.Create)
	api.POST("/siege-war/:id/respond", h.SiegeWar.Respond)
	api.GET("/siege-war/:id/responses", leader, h.SiegeWar.Responses)
	api.GET("/siege-war/:id/available-shares", h.SiegeWar.AvailableShares)
	api.POST("/siege-war/:id/close", leader, h.SiegeWar.Close)

	return r
}
