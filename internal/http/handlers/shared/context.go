package shared

import (
	"strconv"
	"strings"

	"github.com/licensedesk/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ContextUint 读取中间件写入上下文的 ID；缺失视为未登录
func ContextUint(c *gin.Context, key, invalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return id, true
}

// ParamUint 解析正整数路径参数，失败时直接写入 400 响应
func ParamUint(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}
