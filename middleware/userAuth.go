package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"samayog/utils"
)

// Context keys set by JWTAuthUserMiddleware.
const (
	ContextUserID = "userID"
	ContextToken  = "token"
	ContextClaims = "claims"
)

// JWTAuthUserMiddleware requires a valid, unrevoked bearer token.
func JWTAuthUserMiddleware(issuer *utils.TokenIssuer, revoked utils.RevocationList, logger *zap.Logger) gin.HandlerFunc {
	logger = utils.OrNop(logger)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization")
			return
		}

		claims, err := issuer.Validate(tokenString)
		if err != nil {
			logger.Debug("Rejected token", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		isRevoked, err := revoked.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			logger.Error("Revocation check failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "internal", "Authentication error")
			return
		}
		if isRevoked {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextToken, tokenString)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}
