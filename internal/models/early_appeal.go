package models

import "time"

// EarlyAppeal 提前送达申诉
type EarlyAppeal struct {
	ID         uint       `gorm:"primarykey" json:"id"`                            // 主键
	OrderID    string     `gorm:"type:varchar(32);index;not null" json:"order_id"` // 平台订单号
	Email      string     `gorm:"type:varchar(255)" json:"email"`                  // 联系邮箱
	Phone      string     `gorm:"type:varchar(32)" json:"phone"`                   // 联系电话
	ProofURL   string     `gorm:"type:varchar(512)" json:"proof_url"`              // 送达凭证地址
	Status     string     `gorm:"type:varchar(16);index;not null" json:"status"`   // 审核状态
	ReviewedBy *uint      `json:"reviewed_by,omitempty"`                           // 审核管理员
	ReviewNote string     `gorm:"type:varchar(255)" json:"review_note"`            // 审核备注
	ReviewedAt *time.Time `json:"reviewed_at"`                                     // 审核时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (EarlyAppeal) TableName() string {
	return "early_appeals"
}
