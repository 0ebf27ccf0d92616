package repository

import (
	"time"

	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryDelayRepository 送达延迟配置数据访问接口
type DeliveryDelayRepository interface {
	List() ([]models.DeliveryDelay, error)
	Upsert(stateName string, delayHours int) error
}

// GormDeliveryDelayRepository GORM 实现
type GormDeliveryDelayRepository struct {
	db *gorm.DB
}

// NewDeliveryDelayRepository 创建送达延迟配置仓库
func NewDeliveryDelayRepository(db *gorm.DB) *GormDeliveryDelayRepository {
	return &GormDeliveryDelayRepository{db: db}
}

// List 获取全部配置
func (r *GormDeliveryDelayRepository) List() ([]models.DeliveryDelay, error) {
	var items []models.DeliveryDelay
	if err := r.db.Order("state_name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert 新增或覆盖州延迟配置
func (r *GormDeliveryDelayRepository) Upsert(stateName string, delayHours int) error {
	now := time.Now()
	row := models.DeliveryDelay{
		StateName:  stateName,
		DelayHours: delayHours,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"delay_hours", "updated_at"}),
	}).Create(&row).Error
}
