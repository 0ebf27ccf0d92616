package models

import "time"

// DeliveryDelay 各州平台送达延迟配置
type DeliveryDelay struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                // 主键
	StateName  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"state_name"` // 州名（大写），DEFAULT 为兜底
	DelayHours int       `gorm:"not null" json:"delay_hours"`                         // 延迟小时数
	CreatedAt  time.Time `json:"created_at"`                                          // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (DeliveryDelay) TableName() string {
	return "delivery_delays"
}
