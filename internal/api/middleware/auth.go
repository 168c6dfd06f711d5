package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/auth"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, model.Error(401, "缺少Authorization Header"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, model.Error(401, "Token格式错误：Authorization header 必须以 'Bearer ' 开头"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, model.Error(401, "Token无效或已过期: "+err.Error()))
			c.Abort()
			return
		}

		// 将用户信息保存到上下文
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, model.Error(403, "需要管理员权限"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor 从请求上下文取出用户身份
func CurrentActor(c *gin.Context) (id, name string) {
	id = c.GetString("user_id")
	name = c.GetString("username")
	return
}
