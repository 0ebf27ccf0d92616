package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品定义表
type Product struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                 // 主键
	Code                  string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`    // 商品编码
	Title                 string         `gorm:"type:varchar(255);not null" json:"title"`              // 商品名称
	Kind                  string         `gorm:"type:varchar(32);index;not null" json:"kind"`          // 商品类型
	Components            StringArray    `gorm:"type:text" json:"components"`                          // 套装组件编码（有序）
	ActivationFamily      string         `gorm:"type:varchar(32)" json:"activation_family"`            // 激活产品族
	RequiresEditionSwitch bool           `gorm:"not null;default:false" json:"requires_edition_switch"` // 是否需切换系统版本
	DownloadURL           string         `gorm:"type:varchar(512)" json:"download_url"`                // 下载地址
	InstallationDoc       string         `gorm:"type:varchar(512)" json:"installation_doc"`            // 安装说明
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
