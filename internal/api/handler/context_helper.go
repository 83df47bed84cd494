package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DEVASANJAY001/qamatrixx/internal/api/middleware"
	"github.com/DEVASANJAY001/qamatrixx/pkg/jwt"
	"github.com/DEVASANJAY001/qamatrixx/pkg/response"
)

// MustGetOperatorID 从 Gin 上下文中安全提取 operator_id。
// 如果 JWT 中间件未正确注入 operator_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetOperatorID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxOperatorID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 从 Gin 上下文中安全提取当前 Token 声明。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// MustGetSNo 解析路径参数 :sno（正整数）。
func MustGetSNo(c *gin.Context) (int, bool) {
	sNo, err := strconv.Atoi(c.Param("sno"))
	if err != nil || sNo <= 0 {
		response.BadRequest(c, 10001, "序号无效")
		return 0, false
	}
	return sNo, true
}
