package middleware

import (
	"github.com/gin-gonic/gin"
)

// Session tokens are opaque server-issued strings carried in the
// X-Session-Token header or the session_token query/body parameter. They
// prove a browser's claim over a table or takeaway session and are compared
// byte-for-byte; there is nothing to parse or verify cryptographically.

const sessionTokenKey = "session_token"

// ExtractSessionToken pulls the session token (if any) off the request and
// stores it in the Gin context. Tokens are optional on most endpoints:
// ownership checks happen against the resource, not up front.
func ExtractSessionToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Session-Token")
		if token == "" {
			token = c.Query("sessionToken")
		}
		if token == "" {
			token = c.Query("session_token")
		}
		if token != "" {
			c.Set(sessionTokenKey, token)
		}
		c.Next()
	}
}

// GetSessionToken returns the session token stored by ExtractSessionToken,
// or an empty string when the request carried none
func GetSessionToken(c *gin.Context) string {
	v, exists := c.Get(sessionTokenKey)
	if !exists {
		return ""
	}
	token, ok := v.(string)
	if !ok {
		return ""
	}
	return token
}
