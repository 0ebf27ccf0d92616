package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，HTTP 状态码恒为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	RequestID  string      `json:"request_id,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Response
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// NewPagination 根据总数计算总页数
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPage: totalPage}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope(c, CodeOK, "success", data))
}

func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		Response:   envelope(c, CodeOK, "success", data),
		Pagination: pagination,
	})
}

func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(http.StatusOK, envelope(c, statusCode, msg, nil))
}

// ErrorWithData 错误响应；兑换资格等结构化结果随错误一并返回
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.JSON(http.StatusOK, envelope(c, statusCode, msg, data))
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

func envelope(c *gin.Context, statusCode int, msg string, data interface{}) Response {
	resp := Response{StatusCode: statusCode, Msg: msg, Data: data}
	if c != nil {
		resp.RequestID = c.GetString("request_id")
	}
	return resp
}
