package repository

import (
	"errors"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 平台订单数据访问接口
type OrderRepository interface {
	GetByOrderID(orderID string) (*models.MarketplaceOrder, error)
	GetBySecretCode(code string) (*models.MarketplaceOrder, error)
	Create(order *models.MarketplaceOrder) error
	Claim(id uint, claimedAt time.Time) (bool, error)
	SetLicenseRef(id uint, licenseKeyID uint) error
	IncrementActivationUsage(id uint, maxAttempts int) (bool, error)
	IncrementActivationConfirmed(id uint) error
	TransitionActivationState(id uint, from []string, to string) (bool, error)
	TransitionAppealStatus(id uint, from []string, to string) (bool, error)
	UpdateFlags(id uint, updates map[string]interface{}) error
	UpdateContact(id uint, email, phone string) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByOrderID 按平台订单号获取订单
func (r *GormOrderRepository) GetByOrderID(orderID string) (*models.MarketplaceOrder, error) {
	if orderID == "" {
		return nil, nil
	}
	var order models.MarketplaceOrder
	if err := r.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetBySecretCode 按内部兑换码获取订单
func (r *GormOrderRepository) GetBySecretCode(code string) (*models.MarketplaceOrder, error) {
	if code == "" {
		return nil, nil
	}
	var order models.MarketplaceOrder
	if err := r.db.Where("secret_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.MarketplaceOrder) error {
	return r.db.Create(order).Error
}

// Claim 以比较交换方式占用订单，仅第一个请求返回 true
func (r *GormOrderRepository) Claim(id uint, claimedAt time.Time) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.MarketplaceOrder{}).
		Where("id = ? AND is_redeemed = ?", id, false).
		Updates(map[string]interface{}{
			"is_redeemed": true,
			"redeemed_at": claimedAt,
			"updated_at":  claimedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetLicenseRef 记录订单的首个授权码
func (r *GormOrderRepository) SetLicenseRef(id uint, licenseKeyID uint) error {
	return r.db.Model(&models.MarketplaceOrder{}).
		Where("id = ?", id).
		Update("license_key_id", licenseKeyID).Error
}

// IncrementActivationUsage 在未超出上限时原子递增电话激活次数
func (r *GormOrderRepository) IncrementActivationUsage(id uint, maxAttempts int) (bool, error) {
	if id == 0 || maxAttempts <= 0 {
		return false, nil
	}
	result := r.db.Model(&models.MarketplaceOrder{}).
		Where("id = ? AND activation_usage_count < ?", id, maxAttempts).
		Updates(map[string]interface{}{
			"activation_usage_count": gorm.Expr("activation_usage_count + ?", 1),
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementActivationConfirmed 递增电话激活成功次数
func (r *GormOrderRepository) IncrementActivationConfirmed(id uint) error {
	return r.db.Model(&models.MarketplaceOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"activation_confirmed_count": gorm.Expr("activation_confirmed_count + ?", 1),
			"updated_at":                 time.Now(),
		}).Error
}

// TransitionActivationState 条件更新电话激活通道状态
func (r *GormOrderRepository) TransitionActivationState(id uint, from []string, to string) (bool, error) {
	if id == 0 || len(from) == 0 {
		return false, nil
	}
	query := r.db.Model(&models.MarketplaceOrder{}).Where("id = ?", id)
	if containsString(from, constants.ActivationStateNotStarted) {
		query = query.Where("(activation_state IN ? OR activation_state = '' OR activation_state IS NULL)", from)
	} else {
		query = query.Where("activation_state IN ?", from)
	}
	result := query.Updates(map[string]interface{}{
		"activation_state": to,
		"updated_at":       time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// TransitionAppealStatus 条件更新提前送达申诉状态，from 含空串时匹配未申诉订单
func (r *GormOrderRepository) TransitionAppealStatus(id uint, from []string, to string) (bool, error) {
	if id == 0 || len(from) == 0 {
		return false, nil
	}
	query := r.db.Model(&models.MarketplaceOrder{}).Where("id = ?", id)
	if containsString(from, "") {
		query = query.Where("(early_appeal_status IN ? OR early_appeal_status IS NULL)", from)
	} else {
		query = query.Where("early_appeal_status IN ?", from)
	}
	result := query.Updates(map[string]interface{}{
		"early_appeal_status": to,
		"updated_at":          time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateFlags 更新订单标记字段
func (r *GormOrderRepository) UpdateFlags(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.MarketplaceOrder{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateContact 保存订单联系方式，空值不覆盖
func (r *GormOrderRepository) UpdateContact(id uint, email, phone string) error {
	updates := map[string]interface{}{}
	if email != "" {
		updates["contact_email"] = email
	}
	if phone != "" {
		updates["contact_phone"] = phone
	}
	return r.UpdateFlags(id, updates)
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
