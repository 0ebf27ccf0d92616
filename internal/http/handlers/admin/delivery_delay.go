package admin

import (
	"errors"

	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// UpsertDeliveryDelayRequest 送达延迟配置请求
type UpsertDeliveryDelayRequest struct {
	StateName  string `json:"state_name" binding:"required"`
	DelayHours *int   `json:"delay_hours" binding:"required"`
}

// GetDeliveryDelays 获取送达延迟配置
func (h *Handler) GetDeliveryDelays(c *gin.Context) {
	rows, err := h.DeliveryDelayService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.delivery_delay_fetch_failed", err)
		return
	}
	response.Success(c, rows)
}

// UpsertDeliveryDelay 新增或覆盖州送达延迟
func (h *Handler) UpsertDeliveryDelay(c *gin.Context) {
	var req UpsertDeliveryDelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.DeliveryDelayService.Upsert(c.Request.Context(), req.StateName, *req.DelayHours); err != nil {
		if errors.Is(err, service.ErrDeliveryDelayInvalid) {
			respondError(c, response.CodeBadRequest, "error.delivery_delay_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.delivery_delay_save_failed", err)
		return
	}
	requestLog(c).Infow("admin_delivery_delay_saved", "admin_id", currentAdminID(c), "state_name", req.StateName, "delay_hours", *req.DelayHours)
	response.Success(c, nil)
}
