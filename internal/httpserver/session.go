package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"thriftshop/internal/session"
)

// sessionHandler resolves the caller's session: identity from the verified
// token, then the admin lookup. Claiming runs first so an email-invited admin
// gets their row attached on first sign-in.
func sessionHandler(roles RoleStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := currentIdentity(c)
		if ident != nil {
			roles.Claim(c.Request.Context(), *ident)
		}
		sess := session.Resolve(c.Request.Context(), ident, roles)
		c.JSON(http.StatusOK, sess)
	}
}

// signOutHandler revokes the caller's session through the provider scoped to
// their own token.
func signOutHandler(auth Authenticator, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Bind(currentToken(c)).SignOut(c.Request.Context()); err != nil {
			logger.Printf("session: sign out: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign out failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
