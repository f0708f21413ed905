package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabtrack/pkg/util"
)

// AuthMiddleware 校验 JWT 并把 actor_id / role 写入 gin context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		actorID, role, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// store identity in context so handlers can use it
		c.Set("actor_id", actorID)
		c.Set("role", role)

		c.Next()
	}
}
