package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"clan-hub/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UID  int    `json:"uid"`
	Nick string `json:"nick"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(uid int, nick, role string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:  uid,
		Nick: nick,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
		},
	}).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &claims, nil
}

func JWTAuth(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := tokens.Parse(auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user_id", claims.UID)
		c.Set("user_nick", claims.Nick)
		c.Set("user_role", claims.Role)

		// less than a day left: hand out a fresh token
		if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < 24*time.Hour {
			if fresh, err := tokens.Issue(claims.UID, claims.Nick, claims.Role); err == nil {
				c.Header("X-New-Token", fresh)
			}
		}

		c.Next()
	}
}

// RequireLeader must run after JWTAuth.
func RequireLeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_role") != model.RoleLeader {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "leader only"})
			return
		}
		c.Next()
	}
}
