package authz

import (
	"fmt"
	"strings"
)

// 策略命名：管理员主体 operator:<id>，角色 desk:<name>
// desk:__registry__ 仅作角色登记挂点，不可作为角色使用
const (
	apiPrefix    = "/api/v1"
	adminScope   = "/admin"
	operatorFmt  = "operator:%d"
	rolePrefix   = "desk:"
	roleRegistry = rolePrefix + "__registry__"
)

// SubjectForAdmin 管理员在策略中的主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(operatorFmt, adminID)
}

// NormalizeRole 角色名统一为 desk:<name>，内部空白折叠为下划线
func NormalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.Join(strings.Fields(role), "_"), rolePrefix)
	if name == "" {
		return "", ErrRoleRequired
	}
	full := rolePrefix + name
	if full == roleRegistry {
		return "", ErrRoleReserved
	}
	return full, nil
}

// NormalizeObject 授权资源为后台路由模板，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	path := "/" + strings.TrimLeft(strings.TrimSpace(object), "/")
	if path == apiPrefix {
		return "/"
	}
	if rest, ok := strings.CutPrefix(path, apiPrefix+"/"); ok {
		return "/" + rest
	}
	return path
}

// NormalizeAction 授权动作统一大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}

func inAdminScope(object string) bool {
	return object == adminScope || strings.HasPrefix(object, adminScope+"/")
}

func isRoleName(value string) bool {
	return strings.HasPrefix(value, rolePrefix) && value != roleRegistry
}
