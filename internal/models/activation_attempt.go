package models

import "time"

// ActivationAttempt 电话激活请求记录
type ActivationAttempt struct {
	ID             uint      `gorm:"primarykey" json:"id"`                              // 主键
	OrderID        string    `gorm:"type:varchar(32);index;not null" json:"order_id"`   // 平台订单号
	ProductCode    string    `gorm:"type:varchar(64)" json:"product_code"`              // 商品编码
	InstallationID string    `gorm:"type:varchar(64);not null" json:"installation_id"`  // 安装 ID
	ConfirmationID string    `gorm:"type:varchar(64)" json:"confirmation_id"`           // 确认 ID
	Status         string    `gorm:"type:varchar(32);index;not null" json:"status"`     // 结果分类
	RawResponse    string    `gorm:"type:text" json:"raw_response"`                     // 原始响应
	ClientIP       string    `gorm:"type:varchar(64)" json:"client_ip"`                 // 客户端 IP
	UserAgent      string    `gorm:"type:varchar(512)" json:"user_agent"`               // 客户端 UA
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (ActivationAttempt) TableName() string {
	return "activation_attempts"
}
