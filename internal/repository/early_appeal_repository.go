package repository

import (
	"errors"
	"time"

	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// EarlyAppealRepository 提前送达申诉数据访问接口
type EarlyAppealRepository interface {
	Create(appeal *models.EarlyAppeal) error
	GetByID(id uint) (*models.EarlyAppeal, error)
	Review(id uint, fromStatus, toStatus string, adminID uint, note string, reviewedAt time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormEarlyAppealRepository
}

// GormEarlyAppealRepository GORM 实现
type GormEarlyAppealRepository struct {
	db *gorm.DB
}

// NewEarlyAppealRepository 创建申诉仓库
func NewEarlyAppealRepository(db *gorm.DB) *GormEarlyAppealRepository {
	return &GormEarlyAppealRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEarlyAppealRepository) WithTx(tx *gorm.DB) *GormEarlyAppealRepository {
	if tx == nil {
		return r
	}
	return &GormEarlyAppealRepository{db: tx}
}

// Create 创建申诉
func (r *GormEarlyAppealRepository) Create(appeal *models.EarlyAppeal) error {
	return r.db.Create(appeal).Error
}

// GetByID 根据 ID 获取申诉
func (r *GormEarlyAppealRepository) GetByID(id uint) (*models.EarlyAppeal, error) {
	var appeal models.EarlyAppeal
	if err := r.db.First(&appeal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appeal, nil
}

// Review 条件更新申诉审核结果
func (r *GormEarlyAppealRepository) Review(id uint, fromStatus, toStatus string, adminID uint, note string, reviewedAt time.Time) (bool, error) {
	result := r.db.Model(&models.EarlyAppeal{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":      toStatus,
			"reviewed_by": adminID,
			"review_note": note,
			"reviewed_at": reviewedAt,
			"updated_at":  reviewedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
