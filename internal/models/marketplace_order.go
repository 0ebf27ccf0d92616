package models

import (
	"strings"
	"time"

	"github.com/licensedesk/internal/constants"

	"gorm.io/gorm"
)

// MarketplaceOrder 平台订单表（由外部同步写入，本服务只更新兑换相关字段）
type MarketplaceOrder struct {
	ID                       uint           `gorm:"primarykey" json:"id"`                                                      // 主键
	OrderID                  string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_id"`                     // 平台订单号
	SecretCode               *string        `gorm:"type:varchar(32);uniqueIndex" json:"-"`                                     // 内部兑换码
	ProductCode              string         `gorm:"type:varchar(64);index" json:"product_code"`                                // 商品编码
	Quantity                 int            `gorm:"not null;default:1" json:"quantity"`                                        // 购买数量
	FulfillmentType          string         `gorm:"type:varchar(32);index;not null" json:"fulfillment_type"`                   // 履约方式
	FulfillmentStatus        string         `gorm:"type:varchar(32)" json:"fulfillment_status"`                                // 平台履约状态
	ShipmentStatus           string         `gorm:"type:varchar(16);not null;default:'PENDING'" json:"shipment_status"`        // 后台发货状态
	ShipState                string         `gorm:"type:varchar(64)" json:"ship_state"`                                        // 收货州
	OrderDate                *time.Time     `gorm:"index" json:"order_date"`                                                   // 下单时间
	IsRefunded               bool           `gorm:"not null;default:false" json:"is_refunded"`                                 // 是否已退款
	IsBlocked                bool           `gorm:"not null;default:false" json:"is_blocked"`                                  // 是否风控拦截
	BlockReason              string         `gorm:"type:varchar(255)" json:"block_reason"`                                     // 拦截原因
	IsRedeemed               bool           `gorm:"not null;default:false;index" json:"is_redeemed"`                           // 是否已兑换
	LicenseKeyID             *uint          `gorm:"index" json:"license_key_id,omitempty"`                                     // 首个授权码
	RedeemedAt               *time.Time     `json:"redeemed_at"`                                                               // 兑换时间
	SubscriptionActive       bool           `gorm:"not null;default:false" json:"subscription_active"`                         // 订阅是否已开通
	ActivationState          string         `gorm:"type:varchar(32);not null;default:'not_started'" json:"activation_state"`   // 电话激活通道状态
	ActivationUsageCount     int            `gorm:"not null;default:0" json:"activation_usage_count"`                          // 电话激活已用次数
	ActivationConfirmedCount int            `gorm:"not null;default:0" json:"activation_confirmed_count"`                      // 电话激活成功次数
	EarlyAppealStatus        string         `gorm:"type:varchar(16)" json:"early_appeal_status"`                               // 提前送达申诉状态
	ContactEmail             string         `gorm:"type:varchar(255)" json:"contact_email"`                                    // 联系邮箱
	ContactPhone             string         `gorm:"type:varchar(32)" json:"contact_phone"`                                     // 联系电话
	CreatedAt                time.Time      `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt                time.Time      `gorm:"index" json:"updated_at"`                                                   // 更新时间
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`                                                            // 软删除时间
}

// TableName 指定表名
func (MarketplaceOrder) TableName() string {
	return "marketplace_orders"
}

// NormalizedQuantity 购买数量，最小为 1
func (o *MarketplaceOrder) NormalizedQuantity() int {
	if o == nil || o.Quantity < 1 {
		return 1
	}
	return o.Quantity
}

// IsPlatformFulfilled 是否平台仓配订单
func (o *MarketplaceOrder) IsPlatformFulfilled() bool {
	return o != nil && strings.EqualFold(strings.TrimSpace(o.FulfillmentType), constants.FulfillmentTypeAmazonFBA)
}

// CurrentActivationState 当前电话激活通道状态
func (o *MarketplaceOrder) CurrentActivationState() string {
	if o == nil || strings.TrimSpace(o.ActivationState) == "" {
		return constants.ActivationStateNotStarted
	}
	return o.ActivationState
}
