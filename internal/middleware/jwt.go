package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/griffin/internal/pkg/errcode"
	"github.com/xxxsen/griffin/internal/pkg/jwt"
	"github.com/xxxsen/griffin/internal/pkg/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
)

// accepted on GET so media urls can be used directly as <img>/<audio> sources
const accessTokenQuery = "access_token"

// JWTAuth authenticates by "Authorization: Bearer <token>", or for GET
// requests by the access_token query parameter.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := requestToken(c)
		if !ok {
			response.Abort(c, errcode.ErrUnauthorized, "missing authorization")
			return
		}
		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			response.Abort(c, errcode.ErrUnauthorized, "invalid token")
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		if claims.Email != "" {
			c.Set(ContextUserEmailKey, claims.Email)
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		return bearerToken(header)
	}
	if c.Request.Method == http.MethodGet {
		if token := strings.TrimSpace(c.Query(accessTokenQuery)); token != "" {
			return token, true
		}
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserID returns the authenticated user id, or "" outside JWTAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
