package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// 预置角色
const (
	RoleDeskAuditor      = "desk_auditor"
	RoleInventoryManager = "inventory_manager"
	RoleOrderSupport     = "order_support"
)

// BuiltinRoleSeeds 预置角色矩阵：审计只读，库存侧管密钥与激活令牌，客服侧管订单与申诉
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:      RoleDeskAuditor,
			Policies:  []Policy{{Object: "/admin/*", Action: "GET"}},
			Immutable: true,
		},
		{
			Role:     RoleInventoryManager,
			Inherits: []string{RoleDeskAuditor},
			Policies: []Policy{
				{Object: "/admin/license-keys", Action: "POST"},
				{Object: "/admin/getcid-tokens", Action: "POST"},
				{Object: "/admin/getcid-tokens/:id", Action: "PATCH"},
				{Object: "/admin/delivery-delays", Action: "*"},
				{Object: "/admin/contact-requests/:id/fulfill", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     RoleOrderSupport,
			Inherits: []string{RoleDeskAuditor},
			Policies: []Policy{
				{Object: "/admin/orders/:order_id/flags", Action: "PATCH"},
				{Object: "/admin/appeals/:id/review", Action: "POST"},
				{Object: "/admin/contact-requests/:id/fulfill", Action: "POST"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色、继承与策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", seed.Role, err)
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link %s to %s: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("seed role %s: policy action is required", role)
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("seed policy for %s: %w", role, err)
			}
		}
	}
	return nil
}
