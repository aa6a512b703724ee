package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

const contextKeyIdentity = "identity"

// IdentityFromContext returns the caller identity set by WithIdentity,
// or nil for anonymous requests.
func IdentityFromContext(c *gin.Context) *Identity {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return nil
	}
	id, ok := v.(Identity)
	if !ok {
		return nil
	}
	return &id
}

// WithIdentity returns a middleware that reads an optional bearer credential.
// No Authorization header means the request proceeds anonymously; whether a
// given operation tolerates that is decided in the service layer. A credential
// that is present but fails verification is a hard 401 — it is never treated
// as anonymous.
func WithIdentity(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw := strings.TrimPrefix(header, bearerPrefix)
		identity, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired credential"})
			return
		}
		c.Set(contextKeyIdentity, identity)
		c.Next()
	}
}
