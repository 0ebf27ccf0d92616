package admin

import (
	handlershared "github.com/licensedesk/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// getAdminID 读取鉴权中间件写入的管理员 ID
func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.ContextUint(c, "admin_id", "error.admin_id_invalid")
}
