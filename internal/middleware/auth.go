package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

const claimsKey = "claims"

// Auth verifies the access token from the "token" query parameter or a
// bearer Authorization header. On failure it calls reject, which must write
// the response, and aborts the chain.
func Auth(verifier services.TokenVerifier, reject func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected access token", logger.Fields{"path": c.Request.URL.Path, "reason": err.Error()})
			}
			reject(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the verified token claims, or nil outside of Auth.
func GetClaims(c *gin.Context) *services.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}
