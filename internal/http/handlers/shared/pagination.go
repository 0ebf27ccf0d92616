package shared

import "github.com/gin-gonic/gin"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageQuery 列表接口的分页查询参数
type PageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// BindPageQuery 读取 page/page_size，非法或缺失时回落到第一页、每页 20 条，上限 100
func BindPageQuery(c *gin.Context) (int, int) {
	var q PageQuery
	_ = c.ShouldBindQuery(&q)
	return NormalizePagination(q.Page, q.PageSize)
}

func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}
