package repository

import (
	"errors"
	"time"

	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LicenseKeyRepository 授权码库存数据访问接口
type LicenseKeyRepository interface {
	CreateBatch(items []models.LicenseKey) (int64, error)
	GetByID(id uint) (*models.LicenseKey, error)
	ListAvailable(productCode string, limit int) ([]models.LicenseKey, error)
	ListAvailableExcluding(productCode string, excludeIDs []uint, limit int) ([]models.LicenseKey, error)
	MarkRedeemed(id uint, orderRef string, slotIndex *int, replacement bool, redeemedAt time.Time) (bool, error)
	ListByOrder(orderRef string) ([]models.LicenseKey, error)
	CountByProduct(productCode string) (*LicenseKeyStats, error)
	WithTx(tx *gorm.DB) *GormLicenseKeyRepository
}

// GormLicenseKeyRepository GORM 实现
type GormLicenseKeyRepository struct {
	db *gorm.DB
}

// NewLicenseKeyRepository 创建授权码仓库
func NewLicenseKeyRepository(db *gorm.DB) *GormLicenseKeyRepository {
	return &GormLicenseKeyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLicenseKeyRepository) WithTx(tx *gorm.DB) *GormLicenseKeyRepository {
	if tx == nil {
		return r
	}
	return &GormLicenseKeyRepository{db: tx}
}

// CreateBatch 批量导入授权码，已存在的授权码跳过，返回实际写入数量
func (r *GormLicenseKeyRepository) CreateBatch(items []models.LicenseKey) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "license_key"}},
		DoNothing: true,
	}).CreateInBatches(&items, 200)
	return result.RowsAffected, result.Error
}

// GetByID 根据 ID 获取授权码
func (r *GormLicenseKeyRepository) GetByID(id uint) (*models.LicenseKey, error) {
	var key models.LicenseKey
	if err := r.db.First(&key, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

// ListAvailable 按 ID 顺序获取未发放的授权码
func (r *GormLicenseKeyRepository) ListAvailable(productCode string, limit int) ([]models.LicenseKey, error) {
	return r.ListAvailableExcluding(productCode, nil, limit)
}

// ListAvailableExcluding 获取未发放的授权码并排除指定 ID；postgres 下对候选行加 SKIP LOCKED 行锁
func (r *GormLicenseKeyRepository) ListAvailableExcluding(productCode string, excludeIDs []uint, limit int) ([]models.LicenseKey, error) {
	if productCode == "" || limit <= 0 {
		return []models.LicenseKey{}, nil
	}
	query := r.db.Model(&models.LicenseKey{}).
		Where("product_code = ? AND is_redeemed = ?", productCode, false)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	var items []models.LicenseKey
	if err := applyClaimLocking(query).Order("id asc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRedeemed 条件标记授权码已发放，授权码已被其他订单领取时返回 false
func (r *GormLicenseKeyRepository) MarkRedeemed(id uint, orderRef string, slotIndex *int, replacement bool, redeemedAt time.Time) (bool, error) {
	if id == 0 || orderRef == "" {
		return false, nil
	}
	result := r.db.Model(&models.LicenseKey{}).
		Where("id = ? AND is_redeemed = ?", id, false).
		Updates(map[string]interface{}{
			"is_redeemed":    true,
			"order_ref":      orderRef,
			"slot_index":     slotIndex,
			"is_replacement": replacement,
			"redeemed_at":    redeemedAt,
			"updated_at":     redeemedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByOrder 获取订单已发放的授权码，原始槽位在前、替换在后
func (r *GormLicenseKeyRepository) ListByOrder(orderRef string) ([]models.LicenseKey, error) {
	if orderRef == "" {
		return []models.LicenseKey{}, nil
	}
	var items []models.LicenseKey
	if err := r.db.Where("order_ref = ? AND is_redeemed = ?", orderRef, true).
		Order("is_replacement asc").
		Order("slot_index asc").
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountByProduct 统计库存数量（总/可用/已发放）
func (r *GormLicenseKeyRepository) CountByProduct(productCode string) (*LicenseKeyStats, error) {
	if productCode == "" {
		return nil, errors.New("invalid product code")
	}
	type countRow struct {
		IsRedeemed bool
		Total      int64
	}
	var rows []countRow
	if err := r.db.Model(&models.LicenseKey{}).
		Select("is_redeemed, COUNT(*) as total").
		Where("product_code = ?", productCode).
		Group("is_redeemed").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := &LicenseKeyStats{ProductCode: productCode}
	for _, row := range rows {
		stats.Total += row.Total
		if row.IsRedeemed {
			stats.Redeemed += row.Total
		} else {
			stats.Available += row.Total
		}
	}
	return stats, nil
}
