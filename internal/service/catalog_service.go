package service

import (
	"context"
	"strings"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"
)

// CatalogService 商品目录解析服务
type CatalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// ResolvedProduct 解析后的商品，Components 为有序叶子商品编码
type ResolvedProduct struct {
	Product    *models.Product
	Components []string
}

// IsCombo 是否套装
func (p *ResolvedProduct) IsCombo() bool {
	return p != nil && p.Product != nil && p.Product.Kind == constants.ProductKindCombo
}

// IssuesKeys 是否通过授权码池交付
func (p *ResolvedProduct) IssuesKeys() bool {
	if p == nil || p.Product == nil {
		return false
	}
	return p.Product.Kind == constants.ProductKindLicenseKey || p.Product.Kind == constants.ProductKindCombo
}

// SlotsPerUnit 每份购买对应的授权码数量
func (p *ResolvedProduct) SlotsPerUnit() int {
	if p == nil || len(p.Components) == 0 {
		return 1
	}
	return len(p.Components)
}

// Resolve 解析商品编码，套装递归展开为叶子组件
func (s *CatalogService) Resolve(ctx context.Context, code string) (*ResolvedProduct, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !isKnownProductKind(product.Kind) {
		return nil, ErrProductInvalid
	}
	if product.Kind != constants.ProductKindCombo {
		return &ResolvedProduct{Product: product, Components: []string{product.Code}}, nil
	}
	leaves, err := s.expandCombo(ctx, product, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return &ResolvedProduct{Product: product, Components: leaves}, nil
}

func (s *CatalogService) expandCombo(ctx context.Context, combo *models.Product, visiting map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if visiting[combo.Code] {
		return nil, ErrCatalogCycle
	}
	if len(combo.Components) == 0 {
		return nil, ErrProductInvalid
	}
	visiting[combo.Code] = true
	defer delete(visiting, combo.Code)

	leaves := make([]string, 0, len(combo.Components))
	for _, raw := range combo.Components {
		code := strings.TrimSpace(raw)
		if code == "" {
			return nil, ErrProductInvalid
		}
		if visiting[code] {
			return nil, ErrCatalogCycle
		}
		component, err := s.productRepo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if component == nil {
			return nil, ErrProductNotFound
		}
		switch component.Kind {
		case constants.ProductKindCombo:
			nested, err := s.expandCombo(ctx, component, visiting)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, nested...)
		case constants.ProductKindLicenseKey:
			leaves = append(leaves, component.Code)
		default:
			return nil, ErrProductInvalid
		}
	}
	return leaves, nil
}

// ActivationTarget 确定电话激活的组件与激活族：请求的组件须属于该商品，
// 组件未声明激活族时沿用商品自身的激活族
func (s *CatalogService) ActivationTarget(ctx context.Context, resolved *ResolvedProduct, requested string) (string, string, error) {
	family := resolved.Product.ActivationFamily
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == resolved.Product.Code {
		return resolved.Product.Code, family, nil
	}
	found := false
	for _, code := range resolved.Components {
		if code == requested {
			found = true
			break
		}
	}
	if !found {
		return "", "", ErrProductRouteUnsupported
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	component, err := s.productRepo.GetByCode(requested)
	if err != nil {
		return "", "", err
	}
	if component != nil && strings.TrimSpace(component.ActivationFamily) != "" {
		family = component.ActivationFamily
	}
	return requested, family, nil
}

// ExpandSlots 按购买数量展开授权码槽位，顺序为 [c1..cn] x quantity
func ExpandSlots(components []string, quantity int) []string {
	if quantity < 1 {
		quantity = 1
	}
	slots := make([]string, 0, len(components)*quantity)
	for i := 0; i < quantity; i++ {
		slots = append(slots, components...)
	}
	return slots
}

func isKnownProductKind(kind string) bool {
	switch kind {
	case constants.ProductKindLicenseKey,
		constants.ProductKindCombo,
		constants.ProductKindSubscription,
		constants.ProductKindEnterpriseAccount,
		constants.ProductKindCAD,
		constants.ProductKindPreactivated:
		return true
	default:
		return false
	}
}
