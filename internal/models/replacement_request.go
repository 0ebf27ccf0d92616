package models

import "time"

// ReplacementRequest 授权码替换记录
type ReplacementRequest struct {
	ID             uint      `gorm:"primarykey" json:"id"`                             // 主键
	OrderID        string    `gorm:"type:varchar(32);index;not null" json:"order_id"`  // 平台订单号
	ProductCode    string    `gorm:"type:varchar(64);not null" json:"product_code"`    // 商品编码
	OriginalKeyID  *uint     `json:"original_key_id,omitempty"`                        // 原授权码
	NewKeyID       uint      `gorm:"not null" json:"new_key_id"`                       // 新授权码
	Source         string    `gorm:"type:varchar(16);index;not null" json:"source"`    // 来源
	Status         string    `gorm:"type:varchar(16);index;not null" json:"status"`    // 状态
	InstallationID string    `gorm:"type:varchar(64)" json:"installation_id"`          // 触发替换的安装 ID
	Note           string    `gorm:"type:varchar(255)" json:"note"`                    // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (ReplacementRequest) TableName() string {
	return "replacement_requests"
}
