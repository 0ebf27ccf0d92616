package models

import "time"

// LicenseKey 授权码库存表
type LicenseKey struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                          // 主键
	Key           string     `gorm:"column:license_key;type:varchar(255);uniqueIndex;not null" json:"license_key"` // 授权码
	ProductCode   string     `gorm:"type:varchar(64);index;not null" json:"product_code"`           // 商品编码
	BatchNo       string     `gorm:"type:varchar(64);index" json:"batch_no"`                        // 导入批次号
	IsRedeemed    bool       `gorm:"not null;default:false;index" json:"is_redeemed"`               // 是否已发放
	OrderRef      *string    `gorm:"type:varchar(32);index" json:"order_ref,omitempty"`             // 归属订单号
	SlotIndex     *int       `json:"slot_index,omitempty"`                                          // 订单内槽位序号
	IsReplacement bool       `gorm:"not null;default:false" json:"is_replacement"`                  // 是否为替换发放
	RedeemedAt    *time.Time `gorm:"index" json:"redeemed_at"`                                      // 发放时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (LicenseKey) TableName() string {
	return "license_keys"
}
