package authz

import (
	"fmt"
	"sort"
)

// RoleInfo 角色概览
type RoleInfo struct {
	Role     string   `json:"role"`
	Builtin  bool     `json:"builtin"`
	Inherits []string `json:"inherits"`
}

// EnsureRole 登记角色，已存在时直接返回规范名
func (s *Service) EnsureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleRegistry); err != nil {
		return "", fmt.Errorf("register role failed: %w", err)
	}
	return normalized, nil
}

// ListRoles 列出全部角色及其继承关系
func (s *Service) ListRoles() ([]RoleInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	links, err := s.enforcer.GetNamedGroupingPolicy("g")
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}

	parents := make(map[string][]string)
	for _, link := range links {
		if len(link) < 2 {
			continue
		}
		child, parent := link[0], link[1]
		if parent == roleRegistry && isRoleName(child) {
			if _, seen := parents[child]; !seen {
				parents[child] = []string{}
			}
			continue
		}
		if isRoleName(child) && isRoleName(parent) {
			parents[child] = append(parents[child], parent)
		}
		if isRoleName(parent) {
			if _, seen := parents[parent]; !seen {
				parents[parent] = []string{}
			}
		}
	}

	roles := make([]RoleInfo, 0, len(parents))
	for role, inherits := range parents {
		sort.Strings(inherits)
		_, builtin := s.builtin[role]
		roles = append(roles, RoleInfo{Role: role, Builtin: builtin, Inherits: inherits})
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Role < roles[j].Role })
	return roles, nil
}

// DeleteRole 删除自定义角色，连同其策略、继承与成员关系
func (s *Service) DeleteRole(role string) error {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if s.IsImmutableRole(normalized) {
		return ErrRoleImmutable
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, normalized); err != nil {
		return fmt.Errorf("remove role policy failed: %w", err)
	}
	// 角色作为子节点（登记与继承）与作为父节点（成员）两侧都要清掉
	for _, field := range []int{0, 1} {
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", field, normalized); err != nil {
			return fmt.Errorf("remove role links failed: %w", err)
		}
	}
	return nil
}

// SetAdminRoles 覆盖管理员角色；任一角色不存在则保持原状
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminIDRequired
	}
	known, err := s.ListRoles()
	if err != nil {
		return err
	}
	registered := make(map[string]struct{}, len(known))
	for _, info := range known {
		registered[info.Role] = struct{}{}
	}

	assign := make([]string, 0, len(roles))
	for _, role := range roles {
		normalized, err := NormalizeRole(role)
		if err != nil {
			return err
		}
		if _, ok := registered[normalized]; !ok {
			return fmt.Errorf("%w: %s", ErrRoleUnknown, normalized)
		}
		assign = append(assign, normalized)
	}

	subject := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, role := range assign {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// GetAdminRoles 管理员直接持有的角色
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminIDRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	direct, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	roles := make([]string, 0, len(direct))
	for _, role := range direct {
		if isRoleName(role) {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles, nil
}
