package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"
	"github.com/licensedesk/internal/models"

	"gorm.io/gorm"
)

// ContactRequestRepository 人工补发登记数据访问接口
type ContactRequestRepository interface {
	GetByID(id uint) (*models.ContactRequest, error)
	GetPending(orderID, reason string) (*models.ContactRequest, error)
	Create(request *models.ContactRequest) error
	UpdateContact(id uint, email, phone string) error
	MarkFulfilled(id uint, fulfilledAt time.Time) (bool, error)
	MarkClosed(id uint, reason string, closedAt time.Time) (bool, error)
	List(filter ContactRequestListFilter) ([]models.ContactRequest, int64, error)
}

// GormContactRequestRepository GORM 实现
type GormContactRequestRepository struct {
	db *gorm.DB
}

// NewContactRequestRepository 创建人工补发登记仓库
func NewContactRequestRepository(db *gorm.DB) *GormContactRequestRepository {
	return &GormContactRequestRepository{db: db}
}

// GetByID 根据 ID 获取登记
func (r *GormContactRequestRepository) GetByID(id uint) (*models.ContactRequest, error) {
	var request models.ContactRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetPending 获取订单在某原因下待处理的登记
func (r *GormContactRequestRepository) GetPending(orderID, reason string) (*models.ContactRequest, error) {
	var requests []models.ContactRequest
	err := r.db.Where("order_id = ? AND reason = ? AND status = ?", orderID, reason, constants.ContactStatusPending).
		Order("id desc").
		Limit(1).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

// Create 创建登记
func (r *GormContactRequestRepository) Create(request *models.ContactRequest) error {
	return r.db.Create(request).Error
}

// UpdateContact 更新登记联系方式，空值不覆盖
func (r *GormContactRequestRepository) UpdateContact(id uint, email, phone string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if email != "" {
		updates["email"] = email
	}
	if phone != "" {
		updates["phone"] = phone
	}
	return r.db.Model(&models.ContactRequest{}).Where("id = ?", id).Updates(updates).Error
}

// MarkFulfilled 条件标记登记已补发
func (r *GormContactRequestRepository) MarkFulfilled(id uint, fulfilledAt time.Time) (bool, error) {
	result := r.db.Model(&models.ContactRequest{}).
		Where("id = ? AND status = ?", id, constants.ContactStatusPending).
		Updates(map[string]interface{}{
			"status":       constants.ContactStatusFulfilled,
			"fulfilled_at": fulfilledAt,
			"updated_at":   fulfilledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkClosed 条件关闭待处理登记，不再补发
func (r *GormContactRequestRepository) MarkClosed(id uint, reason string, closedAt time.Time) (bool, error) {
	result := r.db.Model(&models.ContactRequest{}).
		Where("id = ? AND status = ?", id, constants.ContactStatusPending).
		Updates(map[string]interface{}{
			"status":       constants.ContactStatusClosed,
			"close_reason": reason,
			"updated_at":   closedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// List 分页查询登记
func (r *GormContactRequestRepository) List(filter ContactRequestListFilter) ([]models.ContactRequest, int64, error) {
	query := r.db.Model(&models.ContactRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.ProductCode != "" {
		query = query.Where("product_code = ?", filter.ProductCode)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		like := "%" + search + "%"
		query = query.Where(fmt.Sprintf("(order_id %s ? OR email %s ? OR phone %s ?)", operator, operator, operator), like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var items []models.ContactRequest
	if err := query.Order("id desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
