package repository

import "time"

// ContactRequestListFilter 查询人工补发登记的过滤条件
type ContactRequestListFilter struct {
	Page        int
	PageSize    int
	Status      string
	Reason      string
	ProductCode string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// LicenseKeyStats 授权码库存统计
type LicenseKeyStats struct {
	ProductCode string `json:"product_code"`
	Total       int64  `json:"total"`
	Available   int64  `json:"available"`
	Redeemed    int64  `json:"redeemed"`
}
