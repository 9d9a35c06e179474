package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskforge/taskforge/pkg/store"
)

// Context keys set by the authorization gate.
const (
	contextAccountKey = "account"
	contextTokenKey   = "session_token"
)

// authMiddleware is the authorization gate. It extracts the bearer token,
// resolves it against the token service, and binds the account plus the raw
// token string into the request context. A missing header, a malformed
// prefix, and a failed resolve all collapse to the same 401 so the response
// never reveals which check failed.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			s.rejectUnauthorized(c)
			return
		}

		account, err := s.tokens.Resolve(c.Request.Context(), token)
		if err != nil {
			s.rejectUnauthorized(c)
			return
		}

		// The raw token stays available so logout can revoke exactly this
		// session rather than all of them.
		c.Set(contextAccountKey, account)
		c.Set(contextTokenKey, token)
		c.Next()
	}
}

func (s *Server) rejectUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization error"})
}

// currentAccount returns the account bound by the authorization gate, or nil
// when the gate never ran.
func currentAccount(c *gin.Context) *store.Account {
	value, exists := c.Get(contextAccountKey)
	if !exists {
		return nil
	}
	account, ok := value.(*store.Account)
	if !ok {
		return nil
	}
	return account
}

// currentToken returns the raw session token bound by the authorization gate.
func currentToken(c *gin.Context) string {
	return c.GetString(contextTokenKey)
}

// extractTokenFromHeader pulls the token out of "Bearer <token>".
func extractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
