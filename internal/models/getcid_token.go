package models

import "time"

// GetcidToken getcid 兑换令牌，按优先级轮换使用
type GetcidToken struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                   // 主键
	Token          string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"token"`    // 令牌（小写）
	Email          string     `gorm:"type:varchar(255)" json:"email"`                         // 令牌归属邮箱
	CountUsed      int        `gorm:"not null;default:0" json:"count_used"`                   // 已用次数
	TotalAvailable int        `gorm:"not null;default:0" json:"total_available"`              // 总额度
	Priority       int        `gorm:"index;not null;default:0" json:"priority"`               // 优先级，越大越先使用
	IsActive       bool       `gorm:"index;not null;default:true" json:"is_active"`           // 是否启用
	LastVerifiedAt *time.Time `json:"last_verified_at"`                                       // 最近校验时间
	LastUsedAt     *time.Time `json:"last_used_at"`                                           // 最近使用时间
	CreatedAt      time.Time  `json:"created_at"`                                             // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                             // 更新时间
}

// TableName 指定表名
func (GetcidToken) TableName() string {
	return "getcid_tokens"
}

// Remaining 剩余额度
func (t GetcidToken) Remaining() int {
	if t.CountUsed >= t.TotalAvailable {
		return 0
	}
	return t.TotalAvailable - t.CountUsed
}
