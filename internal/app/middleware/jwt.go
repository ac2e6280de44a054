package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"visitor-pass-service/internal/domain/services"
	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// 上下文键
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AuthMiddleware 基于JWT的认证与角色校验
type AuthMiddleware struct {
	jwtService services.InterfaceJWTService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtService services.InterfaceJWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// Authenticate 校验令牌并将用户ID和角色写入上下文
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, code.ErrTokenInvalid, "缺少Authorization请求头")
			return
		}

		tokenString := extractToken(authHeader)
		if tokenString == "" {
			response.Abort(c, code.ErrTokenInvalid, "Authorization格式应为 Bearer {token}")
			return
		}

		claims, err := m.jwtService.ExtractClaims(tokenString)
		if err != nil {
			response.Abort(c, code.ErrTokenInvalid, "令牌无效或已过期")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRoles 要求调用者具备任一角色，需在 Authenticate 之后使用
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if _, ok := allowed[role]; !ok {
			response.Abort(c, code.ErrForbidden, "")
			return
		}
		c.Next()
	}
}

// CurrentUserID 读取当前认证用户ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}
