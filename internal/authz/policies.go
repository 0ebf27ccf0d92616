package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Policy 授权策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

func (p Policy) key() string {
	return p.Subject + "|" + p.Object + "|" + p.Action
}

// rolePolicy 经过校验的自定义角色策略
type rolePolicy struct {
	role   string
	object string
	action string
}

func (s *Service) parseRolePolicy(role, object, action string) (rolePolicy, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return rolePolicy{}, err
	}
	if err := s.ready(); err != nil {
		return rolePolicy{}, err
	}
	if s.IsImmutableRole(normalized) {
		return rolePolicy{}, ErrRoleImmutable
	}
	p := rolePolicy{role: normalized, object: NormalizeObject(object), action: NormalizeAction(action)}
	if !inAdminScope(p.object) {
		return rolePolicy{}, ErrObjectOutOfScope
	}
	if _, ok := allowedActions[p.action]; !ok {
		return rolePolicy{}, ErrActionInvalid
	}
	return p, nil
}

// GrantRolePolicy 为自定义角色授予后台路由权限，角色不存在时自动登记
func (s *Service) GrantRolePolicy(role, object, action string) error {
	p, err := s.parseRolePolicy(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.EnsureRole(p.role); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(p.role, p.object, p.action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销自定义角色的后台路由权限
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	p, err := s.parseRolePolicy(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(p.role, p.object, p.action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 角色直接授予的策略，不含继承
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalized)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return toPolicies(rules), nil
}

// GetAdminPolicies 管理员生效策略：直授、所持角色及其继承链
func (s *Service) GetAdminPolicies(adminID uint) ([]Policy, error) {
	if adminID == 0 {
		return nil, ErrAdminIDRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	subject := SubjectForAdmin(adminID)
	implicit, err := s.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get implicit roles failed: %w", err)
	}
	subjects := append([]string{subject}, implicit...)

	seen := make(map[string]struct{})
	var effective []Policy
	for _, sub := range subjects {
		if sub != subject && !isRoleName(sub) {
			continue
		}
		rules, err := s.enforcer.GetFilteredPolicy(0, sub)
		if err != nil {
			return nil, fmt.Errorf("get policies failed: %w", err)
		}
		for _, p := range toPolicies(rules) {
			if _, dup := seen[p.key()]; dup {
				continue
			}
			seen[p.key()] = struct{}{}
			effective = append(effective, p)
		}
	}
	sort.Slice(effective, func(i, j int) bool { return effective[i].key() < effective[j].key() })
	if effective == nil {
		effective = []Policy{}
	}
	return effective, nil
}

func toPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}
