package models

import "time"

// ContactRequest 人工补发登记
type ContactRequest struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	OrderID     string     `gorm:"type:varchar(32);index:idx_contact_order_reason;not null" json:"order_id"` // 平台订单号
	ProductCode string     `gorm:"type:varchar(64);index" json:"product_code"`                           // 商品编码
	Email       string     `gorm:"type:varchar(255)" json:"email"`                                       // 联系邮箱
	Phone       string     `gorm:"type:varchar(32)" json:"phone"`                                        // 联系电话
	Reason      string     `gorm:"type:varchar(32);index:idx_contact_order_reason;not null" json:"reason"` // 登记原因
	Status      string     `gorm:"type:varchar(16);index;not null" json:"status"`                        // 处理状态
	CloseReason string     `gorm:"type:varchar(64)" json:"close_reason,omitempty"`                        // 关闭原因（订单被拦截等）
	FulfilledAt *time.Time `json:"fulfilled_at"`                                                         // 补发时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (ContactRequest) TableName() string {
	return "contact_requests"
}
