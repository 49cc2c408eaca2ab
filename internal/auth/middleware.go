package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyClaims is the gin context key holding the session claims.
const ContextKeyClaims = "auth_claims"

// RequireSession returns a middleware that authenticates the request
// via an Authorization bearer header or the session cookie, in that
// order, and aborts with 401 otherwise.
func RequireSession(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := resolveClaims(c, tokens)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims returns the session claims set by RequireSession, or nil.
func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// resolveClaims tries bearer auth first (API clients), then the
// session cookie (web clients).
func resolveClaims(c *gin.Context, tokens TokenService) *Claims {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if claims, err := tokens.Parse(strings.TrimSpace(parts[1])); err == nil {
				return claims
			}
		}
		return nil
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return nil
	}
	claims, err := tokens.Parse(cookie)
	if err != nil {
		return nil
	}
	return claims
}

// HasValidSession reports whether the request carries a valid session,
// used by the CSRF middleware to exempt bearer-authenticated API calls.
func HasValidSession(c *gin.Context, tokens TokenService) bool {
	return resolveClaims(c, tokens) != nil
}
