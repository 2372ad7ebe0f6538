package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clan-hub/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(tokens *Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", JWTAuth(tokens))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetInt("user_id"), "role": c.GetString("user_role")})
	})
	api.GET("/lead", RequireLeader(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour*48)
	r := newRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "garbage").Code)

	other, err := NewTokens("other-secret", time.Hour).Issue(1, "x", model.RoleLeader)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", other).Code)

	tok, err := tokens.Issue(7, "Ayla", model.RoleMember)
	require.NoError(t, err)
	w := do(r, "/api/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":7,"role":"MEMBER"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-New-Token"))
}

func TestJWTAuthRenewsShortLivedToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	tok, err := tokens.Issue(3, "Bo", model.RoleMember)
	require.NoError(t, err)

	w := do(newRouter(tokens), "/api/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	fresh := w.Header().Get("X-New-Token")
	require.NotEmpty(t, fresh)

	claims, err := tokens.Parse(fresh)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UID)
}

func TestRequireLeader(t *testing.T) {
	tokens := NewTokens("test-secret", 0)
	r := newRouter(tokens)

	member, _ := tokens.Issue(1, "m", model.RoleMember)
	leader, _ := tokens.Issue(2, "l", model.RoleLeader)

	assert.Equal(t, http.StatusForbidden, do(r, "/api/lead", member).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/lead", leader).Code)
}
