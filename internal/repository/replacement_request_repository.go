package repository

import (
	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// ReplacementRequestRepository 替换记录数据访问接口
type ReplacementRequestRepository interface {
	Create(request *models.ReplacementRequest) error
	CountByOrder(orderID, source string) (int64, error)
	WithTx(tx *gorm.DB) *GormReplacementRequestRepository
}

// GormReplacementRequestRepository GORM 实现
type GormReplacementRequestRepository struct {
	db *gorm.DB
}

// NewReplacementRequestRepository 创建替换记录仓库
func NewReplacementRequestRepository(db *gorm.DB) *GormReplacementRequestRepository {
	return &GormReplacementRequestRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReplacementRequestRepository) WithTx(tx *gorm.DB) *GormReplacementRequestRepository {
	if tx == nil {
		return r
	}
	return &GormReplacementRequestRepository{db: tx}
}

// Create 写入替换记录
func (r *GormReplacementRequestRepository) Create(request *models.ReplacementRequest) error {
	return r.db.Create(request).Error
}

// CountByOrder 统计订单的替换次数，source 为空时统计全部来源
func (r *GormReplacementRequestRepository) CountByOrder(orderID, source string) (int64, error) {
	query := r.db.Model(&models.ReplacementRequest{}).Where("order_id = ?", orderID)
	if source != "" {
		query = query.Where("source = ?", source)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
