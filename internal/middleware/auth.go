package middleware

import (
	"net/http"
	"strings"

	"coworking/internal/domain"
	"coworking/internal/pkg/jwt"
	"coworking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth validates the bearer token and stores user_id and role on the context.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}
		if !domain.UserRole(claims.Role).Valid() {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Unknown role in token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller set by JWTAuth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	id := c.GetInt64(ctxUserID)
	if id == 0 {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id, Role: domain.UserRole(c.GetString(ctxRole))}, true
}

// CurrentActor is ActorFrom for handlers: it writes a 401 when there is no caller.
func CurrentActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return actor, ok
}
