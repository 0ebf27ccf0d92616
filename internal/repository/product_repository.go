package repository

import (
	"errors"

	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品定义数据访问接口
type ProductRepository interface {
	GetByCode(code string) (*models.Product, error)
	ListByCodes(codes []string) ([]models.Product, error)
	Create(product *models.Product) error
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetByCode 根据编码获取商品
func (r *GormProductRepository) GetByCode(code string) (*models.Product, error) {
	if code == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByCodes 批量获取商品
func (r *GormProductRepository) ListByCodes(codes []string) ([]models.Product, error) {
	if len(codes) == 0 {
		return []models.Product{}, nil
	}
	var items []models.Product
	if err := r.db.Where("code IN ?", codes).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}
