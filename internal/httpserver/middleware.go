package httpserver

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/domain"
	"thriftshop/internal/session"
)

// Authenticator verifies bearer tokens and scopes the auth provider to one
// token for session operations such as sign-out.
type Authenticator interface {
	VerifyToken(ctx context.Context, idToken string) (*domain.Identity, error)
	Bind(idToken string) session.AuthProvider
}

// RoleStore answers admin lookups for request handling. Claim additionally
// attaches the identity to an admin row that was invited by email only.
type RoleStore interface {
	IsAdmin(ctx context.Context, identityID string) bool
	Claim(ctx context.Context, ident domain.Identity) bool
}

const (
	identityKey = "identity"
	tokenKey    = "authToken"
)

func authMiddleware(auth Authenticator, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token = strings.TrimSpace(token)
		ident, err := auth.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.Printf("auth: token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, ident)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// adminMiddleware requires a resolved admin identity. While the role lookup
// cannot be completed the request is rejected, never waved through.
func adminMiddleware(roles RoleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := currentIdentity(c)
		if ident == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if !roles.Claim(c.Request.Context(), *ident) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) *domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, ok := v.(*domain.Identity)
	if !ok {
		return nil
	}
	return ident
}

func currentToken(c *gin.Context) string {
	v, ok := c.Get(tokenKey)
	if !ok {
		return ""
	}
	token, _ := v.(string)
	return token
}
