package repository

import (
	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// ActivationAttemptRepository 电话激活记录数据访问接口
type ActivationAttemptRepository interface {
	Create(attempt *models.ActivationAttempt) error
	ListByOrder(orderID string) ([]models.ActivationAttempt, error)
}

// GormActivationAttemptRepository GORM 实现
type GormActivationAttemptRepository struct {
	db *gorm.DB
}

// NewActivationAttemptRepository 创建电话激活记录仓库
func NewActivationAttemptRepository(db *gorm.DB) *GormActivationAttemptRepository {
	return &GormActivationAttemptRepository{db: db}
}

// Create 写入激活记录
func (r *GormActivationAttemptRepository) Create(attempt *models.ActivationAttempt) error {
	return r.db.Create(attempt).Error
}

// ListByOrder 获取订单的激活记录
func (r *GormActivationAttemptRepository) ListByOrder(orderID string) ([]models.ActivationAttempt, error) {
	var items []models.ActivationAttempt
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
