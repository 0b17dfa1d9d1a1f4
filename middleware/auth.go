package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/grievances/utils"
)

// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
const ContextUserIDKey = "user_id"

// AuthRequired ensures the request carries a valid bearer token.
func AuthRequired(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims, err := issuer.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx.Set(ContextUserIDKey, claims.User.ID)
		ctx.Next()
	}
}

// OptionalAuth resolves the requester when a valid token is present and lets anonymous requests through.
func OptionalAuth(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString, ok := bearerToken(ctx); ok {
			if claims, err := issuer.ParseToken(tokenString); err == nil {
				ctx.Set(ContextUserIDKey, claims.User.ID)
			}
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func bearerToken(ctx *gin.Context) (string, bool) {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
