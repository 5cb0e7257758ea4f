package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YAREUGO/shopmall/internal/identity"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

const ownerKey = "owner_id"

// Auth resolves the bearer token once per request and stores the owner id in
// the Gin context. Handlers then pass the owner explicitly into every core
// operation; nothing below the HTTP layer reads ambient identity state.
func Auth(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthenticated"})
			return
		}
		ownerID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, shoperr.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthenticated"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable", "code": "internal"})
			return
		}
		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the owner id resolved by Auth, or "" when the request was
// not authenticated.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
