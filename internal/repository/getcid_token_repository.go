package repository

import (
	"errors"
	"time"

	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetcidTokenRepository getcid 令牌池数据访问接口
type GetcidTokenRepository interface {
	List() ([]models.GetcidToken, error)
	GetByID(id uint) (*models.GetcidToken, error)
	GetByToken(token string) (*models.GetcidToken, error)
	MaxPriority() (int, error)
	Upsert(token *models.GetcidToken) error
	Update(id uint, updates map[string]interface{}) error
	PickAvailable() (*models.GetcidToken, error)
	IncrementUsage(id uint, usedAt time.Time) (bool, error)
}

// GormGetcidTokenRepository GORM 实现
type GormGetcidTokenRepository struct {
	db *gorm.DB
}

// NewGetcidTokenRepository 创建 getcid 令牌仓库
func NewGetcidTokenRepository(db *gorm.DB) *GormGetcidTokenRepository {
	return &GormGetcidTokenRepository{db: db}
}

// List 按优先级倒序列出全部令牌
func (r *GormGetcidTokenRepository) List() ([]models.GetcidToken, error) {
	var tokens []models.GetcidToken
	if err := r.db.Order("priority desc, id asc").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetByID 根据 ID 获取令牌
func (r *GormGetcidTokenRepository) GetByID(id uint) (*models.GetcidToken, error) {
	var token models.GetcidToken
	if err := r.db.First(&token, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// GetByToken 根据令牌值获取
func (r *GormGetcidTokenRepository) GetByToken(value string) (*models.GetcidToken, error) {
	var tokens []models.GetcidToken
	if err := r.db.Where("token = ?", value).Limit(1).Find(&tokens).Error; err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &tokens[0], nil
}

// MaxPriority 当前最大优先级，空表返回 0
func (r *GormGetcidTokenRepository) MaxPriority() (int, error) {
	var highest int
	if err := r.db.Model(&models.GetcidToken{}).Select("COALESCE(MAX(priority), 0)").Scan(&highest).Error; err != nil {
		return 0, err
	}
	return highest, nil
}

// Upsert 按令牌值新增或覆盖校验结果
func (r *GormGetcidTokenRepository) Upsert(token *models.GetcidToken) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "count_used", "total_available", "priority", "is_active", "last_verified_at", "updated_at",
		}),
	}).Create(token).Error
}

// Update 更新启用状态或优先级
func (r *GormGetcidTokenRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.GetcidToken{}).Where("id = ?", id).Updates(updates).Error
}

// PickAvailable 选取优先级最高且仍有额度的启用令牌
func (r *GormGetcidTokenRepository) PickAvailable() (*models.GetcidToken, error) {
	var tokens []models.GetcidToken
	err := r.db.
		Where("is_active = ? AND count_used < total_available", true).
		Order("priority desc, id asc").
		Limit(1).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &tokens[0], nil
}

// IncrementUsage 额度未满时占用一次，返回是否占用成功
func (r *GormGetcidTokenRepository) IncrementUsage(id uint, usedAt time.Time) (bool, error) {
	result := r.db.Model(&models.GetcidToken{}).
		Where("id = ? AND is_active = ? AND count_used < total_available", id, true).
		Updates(map[string]interface{}{
			"count_used":   gorm.Expr("count_used + 1"),
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
