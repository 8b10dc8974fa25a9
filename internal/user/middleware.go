package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName   = "session"
	CookieMaxAge = 365 * 24 * 60 * 60
	UserIDKey    = "userID"
)

// LoadUserMiddleware 读取会话cookie，校验签名后把用户ID放入Gin上下文中。
// 没有有效会话时不中断请求，由各个处理器自行决定是否要求登录。
func LoadUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := c.Cookie(CookieName)
		if err == nil {
			if userID, ok := VerifySession(session); ok {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// RequireUserMiddleware 在LoadUserMiddleware之后使用，拒绝未认证的请求。
func RequireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(UserIDKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
			return
		}
		c.Next()
	}
}

// CurrentUserID 从Gin上下文取出已认证的用户ID。
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
